package service

import (
	"context"
	"errors"
	"testing"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

type fakeEnrollmentRepo struct {
	enrollments map[string]*model.Enrollment // keyed user|course
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{enrollments: make(map[string]*model.Enrollment)}
}

func (r *fakeEnrollmentRepo) CreateEnrollment(ctx context.Context, e *model.Enrollment) error {
	key := e.UserID + "|" + e.CourseID
	if _, ok := r.enrollments[key]; ok {
		return repository.ErrAlreadyEnrolled
	}
	r.enrollments[key] = e
	return nil
}

func (r *fakeEnrollmentRepo) GetEnrollmentsByCourseID(ctx context.Context, courseID string) ([]model.Enrollment, error) {
	var out []model.Enrollment
	for _, e := range r.enrollments {
		if e.CourseID == courseID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEnrollmentRepo) GetEnrollment(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	e, ok := r.enrollments[userID+"|"+courseID]
	if !ok {
		return nil, nil
	}
	return e, nil
}

type fakeRatingRepo struct {
	ratings map[string]*model.Rating
}

func newFakeRatingRepo() *fakeRatingRepo {
	return &fakeRatingRepo{ratings: make(map[string]*model.Rating)}
}

func (r *fakeRatingRepo) UpsertRating(ctx context.Context, rt *model.Rating) error {
	r.ratings[rt.UserID+"|"+rt.CourseID] = rt
	return nil
}

func (r *fakeRatingRepo) GetRatingsByCourseID(ctx context.Context, courseID string) ([]model.Rating, error) {
	var out []model.Rating
	for _, rt := range r.ratings {
		if rt.CourseID == courseID {
			out = append(out, *rt)
		}
	}
	return out, nil
}

func newTestEnrollmentService(course *model.Course) (EnrollmentService, *fakeEnrollmentRepo) {
	courses := newFakeCourseRepo()
	if course != nil {
		courses.courses[course.ID] = course
	}
	enrollments := newFakeEnrollmentRepo()
	return NewEnrollmentService(courses, enrollments, newFakeRatingRepo(), zerolog.Nop()), enrollments
}

func publishedCourse(id string) *model.Course {
	c := draftCourse(id)
	c.Status = model.CourseStatusPublished
	c.IsPublished = true
	return c
}

func TestEnrollInPublishedCourse(t *testing.T) {
	svc, _ := newTestEnrollmentService(publishedCourse("c1"))
	e, err := svc.Enroll(context.Background(), "u1", "c1")
	if err != nil {
		t.Fatalf("Enroll returned error: %v", err)
	}
	if e.UserID != "u1" || e.CourseID != "c1" {
		t.Fatalf("unexpected enrollment: %+v", e)
	}
}

func TestEnrollInDraftCourseRejected(t *testing.T) {
	svc, _ := newTestEnrollmentService(draftCourse("c1"))
	_, err := svc.Enroll(context.Background(), "u1", "c1")
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEnrollTwiceConflicts(t *testing.T) {
	svc, _ := newTestEnrollmentService(publishedCourse("c1"))
	if _, err := svc.Enroll(context.Background(), "u1", "c1"); err != nil {
		t.Fatalf("first enroll failed: %v", err)
	}
	_, err := svc.Enroll(context.Background(), "u1", "c1")
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestEnrollUnknownCourseNotFound(t *testing.T) {
	svc, _ := newTestEnrollmentService(nil)
	_, err := svc.Enroll(context.Background(), "u1", "missing")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestRateCourseRequiresEnrollment(t *testing.T) {
	svc, _ := newTestEnrollmentService(publishedCourse("c1"))
	_, err := svc.RateCourse(context.Background(), "u1", "c1", 5, nil)
	if !errors.Is(err, model.ErrForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}

func TestRateCourseValidatesRange(t *testing.T) {
	svc, _ := newTestEnrollmentService(publishedCourse("c1"))
	for _, rating := range []int{0, 6, -1} {
		if _, err := svc.RateCourse(context.Background(), "u1", "c1", rating, nil); !errors.Is(err, model.ErrValidation) {
			t.Fatalf("rating %d: expected validation error, got %v", rating, err)
		}
	}
}

func TestRateCourseUpserts(t *testing.T) {
	svc, _ := newTestEnrollmentService(publishedCourse("c1"))
	if _, err := svc.Enroll(context.Background(), "u1", "c1"); err != nil {
		t.Fatalf("enroll failed: %v", err)
	}

	review := "solid introduction"
	rt, err := svc.RateCourse(context.Background(), "u1", "c1", 4, &review)
	if err != nil {
		t.Fatalf("RateCourse returned error: %v", err)
	}
	if rt.Rating != 4 || rt.Review == nil || *rt.Review != "solid introduction" {
		t.Fatalf("unexpected rating: %+v", rt)
	}

	// Re-rating replaces the previous value rather than adding a second row.
	rt, err = svc.RateCourse(context.Background(), "u1", "c1", 2, nil)
	if err != nil {
		t.Fatalf("second RateCourse returned error: %v", err)
	}
	if rt.Rating != 2 {
		t.Fatalf("rating = %d, want 2", rt.Rating)
	}
}
