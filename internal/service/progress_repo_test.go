package service

import (
	"context"
	"errors"
	"testing"

	"app/internal/model"

	"github.com/rs/zerolog"
)

type fakeCompletionRepo struct {
	facts map[string]*model.CompletionFact // keyed user|lesson
}

func newFakeCompletionRepo() *fakeCompletionRepo {
	return &fakeCompletionRepo{facts: make(map[string]*model.CompletionFact)}
}

func (r *fakeCompletionRepo) UpsertCompletionFact(ctx context.Context, f *model.CompletionFact) error {
	key := f.UserID + "|" + f.LessonID
	if existing, ok := r.facts[key]; ok {
		// Monotonic: completed can only go false -> true.
		existing.Completed = existing.Completed || f.Completed
		existing.CompletedAt = f.CompletedAt
		return nil
	}
	copied := *f
	r.facts[key] = &copied
	return nil
}

func (r *fakeCompletionRepo) GetFactsByUserAndLessonIDs(ctx context.Context, userID string, lessonIDs []string) ([]model.CompletionFact, error) {
	var out []model.CompletionFact
	for _, id := range lessonIDs {
		if f, ok := r.facts[userID+"|"+id]; ok {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeCompletionRepo) GetFactsByLessonIDs(ctx context.Context, lessonIDs []string) ([]model.CompletionFact, error) {
	ids := make(map[string]bool, len(lessonIDs))
	for _, id := range lessonIDs {
		ids[id] = true
	}
	var out []model.CompletionFact
	for _, f := range r.facts {
		if ids[f.LessonID] {
			out = append(out, *f)
		}
	}
	return out, nil
}

func publishedLessons(ids ...string) []model.Lesson {
	return lessonSet(ids...)
}

func TestMarkCompleteUnknownLesson(t *testing.T) {
	svc := NewProgressService(&fakeLessonRepo{}, newFakeCompletionRepo(), newFakeEnrollmentRepo(), zerolog.Nop())
	err := svc.MarkComplete(context.Background(), "u1", "missing")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestMarkCompleteIsIdempotent(t *testing.T) {
	lessons := &fakeLessonRepo{lessons: publishedLessons("l1", "l2")}
	completions := newFakeCompletionRepo()
	svc := NewProgressService(lessons, completions, newFakeEnrollmentRepo(), zerolog.Nop())

	ctx := context.Background()
	if err := svc.MarkComplete(ctx, "u1", "l1"); err != nil {
		t.Fatalf("MarkComplete failed: %v", err)
	}
	if err := svc.MarkComplete(ctx, "u1", "l1"); err != nil {
		t.Fatalf("second MarkComplete failed: %v", err)
	}

	progress, err := svc.GetUserCourseProgress(ctx, "u1", "c1")
	if err != nil {
		t.Fatalf("GetUserCourseProgress failed: %v", err)
	}
	if progress.CompletedCount != 1 {
		t.Fatalf("completed = %d, want 1 (double completion must not double count)", progress.CompletedCount)
	}
}

func TestGetUserCourseProgressEndToEnd(t *testing.T) {
	lessons := &fakeLessonRepo{lessons: publishedLessons("l1", "l2", "l3", "l4")}
	completions := newFakeCompletionRepo()
	svc := NewProgressService(lessons, completions, newFakeEnrollmentRepo(), zerolog.Nop())

	ctx := context.Background()
	for _, id := range []string{"l1", "l2", "l3"} {
		if err := svc.MarkComplete(ctx, "u1", id); err != nil {
			t.Fatalf("MarkComplete(%s) failed: %v", id, err)
		}
	}

	progress, err := svc.GetUserCourseProgress(ctx, "u1", "c1")
	if err != nil {
		t.Fatalf("GetUserCourseProgress failed: %v", err)
	}
	if progress.CompletedCount != 3 || progress.TotalCount != 4 {
		t.Fatalf("unexpected counts: %+v", progress)
	}
	if progress.Percentage != 75 {
		t.Fatalf("percentage = %d, want 75", progress.Percentage)
	}
	if progress.Status != model.ProgressStatusInProgress {
		t.Fatalf("status = %s, want in-progress", progress.Status)
	}
}

func TestComputeEnrollmentProgressPerUser(t *testing.T) {
	lessons := &fakeLessonRepo{lessons: publishedLessons("l1", "l2")}
	completions := newFakeCompletionRepo()
	enrollments := newFakeEnrollmentRepo()
	svc := NewProgressService(lessons, completions, enrollments, zerolog.Nop())

	ctx := context.Background()
	for _, user := range []string{"u1", "u2", "u3"} {
		if err := enrollments.CreateEnrollment(ctx, &model.Enrollment{ID: user, UserID: user, CourseID: "c1"}); err != nil {
			t.Fatalf("enroll %s failed: %v", user, err)
		}
	}
	// u1 finishes everything, u2 half, u3 nothing.
	svc.MarkComplete(ctx, "u1", "l1")
	svc.MarkComplete(ctx, "u1", "l2")
	svc.MarkComplete(ctx, "u2", "l1")

	byUser, err := svc.ComputeEnrollmentProgress(ctx, "c1")
	if err != nil {
		t.Fatalf("ComputeEnrollmentProgress failed: %v", err)
	}
	if len(byUser) != 3 {
		t.Fatalf("users = %d, want 3", len(byUser))
	}
	if byUser["u1"].Status != model.ProgressStatusCompleted {
		t.Fatalf("u1 status = %s, want completed", byUser["u1"].Status)
	}
	if byUser["u2"].Percentage != 50 {
		t.Fatalf("u2 percentage = %d, want 50", byUser["u2"].Percentage)
	}
	if byUser["u3"].Status != model.ProgressStatusNotStarted {
		t.Fatalf("u3 status = %s, want not-started", byUser["u3"].Status)
	}
}
