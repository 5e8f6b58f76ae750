package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"app/internal/model"
	"app/internal/pubsub"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// minRejectionReasonLen is the shortest rejection reason a reviewer may
// record.
const minRejectionReasonLen = 10

// LifecycleService is the single owner of course status transitions.
// Every endpoint that touches a course's publication state goes through
// here, so no two call sites can disagree about what is legal or which
// fields trigger re-approval.
type LifecycleService interface {
	CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error)
	GetCourseByID(ctx context.Context, courseID string) (*model.Course, error)
	// Submit moves a draft or rejected course into review. It requires
	// at least one module and at least one lesson with content.
	Submit(ctx context.Context, courseID, actorID string) (*model.Course, error)
	// Review records a reviewer decision on a pending_review course.
	Review(ctx context.Context, courseID, actorID string, decision model.ReviewDecision, reason string) (*model.Course, error)
	// ApplyEdit saves an instructor edit and reports whether it demoted
	// a published course back to review.
	ApplyEdit(ctx context.Context, courseID, actorID string, edit model.CourseEdit) (*model.Course, bool, error)
	ListEvents(ctx context.Context, courseID string) ([]model.CourseEvent, error)
}

type lifecycleService struct {
	courses      repository.CourseRepository
	modules      repository.ModuleRepository
	lessons      repository.LessonRepository
	publisher    pubsub.Publisher
	eventsTopic  string
	cascadeQueue string
	logger       zerolog.Logger
}

// NewLifecycleService creates a new LifecycleService.
func NewLifecycleService(
	courses repository.CourseRepository,
	modules repository.ModuleRepository,
	lessons repository.LessonRepository,
	publisher pubsub.Publisher,
	eventsTopic string,
	cascadeQueue string,
	logger zerolog.Logger,
) LifecycleService {
	return &lifecycleService{
		courses:      courses,
		modules:      modules,
		lessons:      lessons,
		publisher:    publisher,
		eventsTopic:  eventsTopic,
		cascadeQueue: cascadeQueue,
		logger:       logger.With().Str("service", "LifecycleService").Logger(),
	}
}

func (s *lifecycleService) CreateCourse(ctx context.Context, c *model.Course) (*model.Course, error) {
	if err := s.courses.CreateCourse(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	return c, nil
}

func (s *lifecycleService) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	course, err := s.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, model.NewNotFoundError("course not found")
	}
	return course, nil
}

func (s *lifecycleService) Submit(ctx context.Context, courseID, actorID string) (*model.Course, error) {
	course, err := s.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.Status.CanSubmit() {
		return nil, model.NewConflictError(fmt.Sprintf("course in status %q cannot be submitted", course.Status))
	}

	moduleCount, err := s.modules.CountModulesByCourseID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if moduleCount == 0 {
		return nil, model.NewValidationError("no submittable content")
	}
	lessonCount, err := s.lessons.CountSubmittableLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if lessonCount == 0 {
		return nil, model.NewValidationError("no submittable content")
	}

	if err := s.courses.SubmitForReview(ctx, courseID, actorID, model.SubmittableStatuses); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, model.NewConflictError("course status changed concurrently")
		}
		return nil, err
	}

	s.publishEvent(ctx, "course.submitted", courseID, actorID)
	return s.GetCourseByID(ctx, courseID)
}

func (s *lifecycleService) Review(ctx context.Context, courseID, actorID string, decision model.ReviewDecision, reason string) (*model.Course, error) {
	if !decision.IsValid() {
		return nil, model.NewValidationError(fmt.Sprintf("unknown review decision %q", decision))
	}
	course, err := s.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.Status.CanReview() {
		return nil, model.NewConflictError(fmt.Sprintf("course in status %q cannot be reviewed", course.Status))
	}

	switch decision {
	case model.ReviewDecisionApprove:
		err = s.courses.ApproveCourse(ctx, courseID, actorID, s.cascadeQueue)
	case model.ReviewDecisionReject, model.ReviewDecisionRequestChanges:
		if utf8.RuneCountInString(strings.TrimSpace(reason)) < minRejectionReasonLen {
			return nil, model.NewValidationError(fmt.Sprintf("rejection reason must be at least %d characters", minRejectionReasonLen))
		}
		to := model.CourseStatusRejected
		if decision == model.ReviewDecisionRequestChanges {
			to = model.CourseStatusNeedsChanges
		}
		err = s.courses.RejectCourse(ctx, courseID, actorID, reason, to)
	}
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			// A concurrent reviewer won the race; this decision is not
			// applied and must not overwrite theirs.
			return nil, model.NewConflictError("course was already reviewed")
		}
		return nil, err
	}

	if decision == model.ReviewDecisionApprove {
		s.publishEvent(ctx, "course.published", courseID, actorID)
	} else {
		s.publishEvent(ctx, "course.rejected", courseID, actorID)
	}
	return s.GetCourseByID(ctx, courseID)
}

func (s *lifecycleService) ApplyEdit(ctx context.Context, courseID, actorID string, edit model.CourseEdit) (*model.Course, bool, error) {
	course, err := s.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, false, err
	}

	updated := *course
	edit.Apply(&updated)

	// The re-approval decision is a declarative diff of the major-field
	// snapshot; it cannot depend on which endpoint sent the edit.
	requiresReapproval := model.RequiresReapproval(course.Major(), updated.Major())
	demote := requiresReapproval && course.Status == model.CourseStatusPublished

	if err := s.courses.UpdateCourseContent(ctx, &updated, demote, actorID); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, false, model.NewConflictError("course status changed concurrently")
		}
		return nil, false, err
	}

	if demote {
		updated.Status = model.CourseStatusPendingReview
		updated.IsPublished = false
		s.logger.Info().
			Str("course_id", courseID).
			Msg("Published course demoted to review after major-field edit")
	}
	return &updated, requiresReapproval, nil
}

func (s *lifecycleService) ListEvents(ctx context.Context, courseID string) ([]model.CourseEvent, error) {
	if _, err := s.GetCourseByID(ctx, courseID); err != nil {
		return nil, err
	}
	return s.courses.ListEventsByCourseID(ctx, courseID)
}

// publishEvent notifies external consumers about a lifecycle transition.
// The transition itself is already durable; a publish failure is logged,
// not propagated.
func (s *lifecycleService) publishEvent(ctx context.Context, event, courseID, actorID string) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{
		"event":     event,
		"course_id": courseID,
		"actor_id":  actorID,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("event", event).Msg("Failed to marshal lifecycle event")
		return
	}
	if _, err := s.publisher.Publish(ctx, s.eventsTopic, payload); err != nil {
		s.logger.Error().Err(err).Str("event", event).Str("course_id", courseID).
			Msg("Failed to publish lifecycle event")
	}
}
