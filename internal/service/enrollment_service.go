package service

import (
	"context"
	"errors"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// EnrollmentService enrolls students and records their course ratings.
// Only published courses accept enrollments; ratings require an existing
// enrollment.
type EnrollmentService interface {
	Enroll(ctx context.Context, userID, courseID string) (*model.Enrollment, error)
	RateCourse(ctx context.Context, userID, courseID string, rating int, review *string) (*model.Rating, error)
}

type enrollmentService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	ratings     repository.RatingRepository
	logger      zerolog.Logger
}

// NewEnrollmentService creates a new EnrollmentService.
func NewEnrollmentService(
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	ratings repository.RatingRepository,
	logger zerolog.Logger,
) EnrollmentService {
	return &enrollmentService{
		courses:     courses,
		enrollments: enrollments,
		ratings:     ratings,
		logger:      logger.With().Str("service", "EnrollmentService").Logger(),
	}
}

func (s *enrollmentService) Enroll(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	course, err := s.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, model.NewNotFoundError("course not found")
	}
	if course.Status != model.CourseStatusPublished {
		return nil, model.NewValidationError("course is not open for enrollment")
	}

	e := &model.Enrollment{UserID: userID, CourseID: courseID}
	if err := s.enrollments.CreateEnrollment(ctx, e); err != nil {
		if errors.Is(err, repository.ErrAlreadyEnrolled) {
			return nil, model.NewConflictError("user is already enrolled in this course")
		}
		return nil, err
	}
	return e, nil
}

func (s *enrollmentService) RateCourse(ctx context.Context, userID, courseID string, rating int, review *string) (*model.Rating, error) {
	if rating < 1 || rating > 5 {
		return nil, model.NewValidationError("rating must be between 1 and 5")
	}
	enrollment, err := s.enrollments.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, model.NewForbiddenError("only enrolled students can rate a course")
	}

	rt := &model.Rating{UserID: userID, CourseID: courseID, Rating: rating, Review: review}
	if err := s.ratings.UpsertRating(ctx, rt); err != nil {
		return nil, err
	}
	return rt, nil
}
