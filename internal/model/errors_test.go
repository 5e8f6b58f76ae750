package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainErrorKindMatching(t *testing.T) {
	err := NewConflictError("course was already reviewed")
	if !errors.Is(err, ErrConflict) {
		t.Fatal("conflict error should match ErrConflict")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("conflict error should not match ErrNotFound")
	}
	if got := ErrorKind(err); got != KindConflict {
		t.Fatalf("ErrorKind = %q, want %q", got, KindConflict)
	}
}

func TestErrorKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("handling request: %w", NewValidationError("rating must be between 1 and 5"))
	if got := ErrorKind(err); got != KindValidation {
		t.Fatalf("ErrorKind = %q, want %q", got, KindValidation)
	}
}

func TestErrorKindInternalFallback(t *testing.T) {
	if got := ErrorKind(errors.New("connection reset")); got != KindInternal {
		t.Fatalf("ErrorKind = %q, want %q", got, KindInternal)
	}
}

func TestWrapErrorKeepsCause(t *testing.T) {
	cause := errors.New("unique constraint violation")
	err := WrapError(ErrConflict, "failed to enroll", cause)
	if !errors.Is(err, cause) {
		t.Fatal("wrapped error should match its cause")
	}
	if !errors.Is(err, ErrConflict) {
		t.Fatal("wrapped error should match its kind")
	}
}
