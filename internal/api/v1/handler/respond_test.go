package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"app/internal/model"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
		wantKind   string
	}{
		{model.NewValidationError("rating must be between 1 and 5"), http.StatusBadRequest, model.KindValidation},
		{model.NewConflictError("course was already reviewed"), http.StatusConflict, model.KindConflict},
		{model.NewNotFoundError("course not found"), http.StatusNotFound, model.KindNotFound},
		{model.NewForbiddenError("only enrolled students can rate a course"), http.StatusForbidden, model.KindForbidden},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, model.KindInternal},
	}

	for _, c := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, c.err)
		if rec.Code != c.wantStatus {
			t.Fatalf("%v: status = %d, want %d", c.err, rec.Code, c.wantStatus)
		}
		var body errorBody
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid error body: %v", err)
		}
		if body.Kind != c.wantKind {
			t.Fatalf("%v: kind = %q, want %q", c.err, body.Kind, c.wantKind)
		}
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("password=hunter2 dial failed"))
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	if body.Message != "internal server error" {
		t.Fatalf("internal error message leaked: %q", body.Message)
	}
}
