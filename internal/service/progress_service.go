package service

import (
	"context"
	"math"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// ProgressService records lesson completions and derives course progress
// from the completion facts. Progress is never stored: the published
// lesson set changes underneath us (cascades, new lessons, unpublishes)
// and a cached percentage would go stale the moment it does.
type ProgressService interface {
	// MarkComplete records that a user finished a lesson. Marking an
	// already-completed lesson is a no-op on the completed flag.
	MarkComplete(ctx context.Context, userID, lessonID string) error
	// GetUserCourseProgress derives one user's progress over the
	// currently published lessons of a course.
	GetUserCourseProgress(ctx context.Context, userID, courseID string) (*model.CourseProgress, error)
	// ComputeEnrollmentProgress derives progress for every enrolled user
	// of a course in one pass.
	ComputeEnrollmentProgress(ctx context.Context, courseID string) (map[string]model.CourseProgress, error)
}

type progressService struct {
	lessons     repository.LessonRepository
	completions repository.CompletionRepository
	enrollments repository.EnrollmentRepository
	logger      zerolog.Logger
}

// NewProgressService creates a new ProgressService.
func NewProgressService(
	lessons repository.LessonRepository,
	completions repository.CompletionRepository,
	enrollments repository.EnrollmentRepository,
	logger zerolog.Logger,
) ProgressService {
	return &progressService{
		lessons:     lessons,
		completions: completions,
		enrollments: enrollments,
		logger:      logger.With().Str("service", "ProgressService").Logger(),
	}
}

func (s *progressService) MarkComplete(ctx context.Context, userID, lessonID string) error {
	lesson, err := s.lessons.GetLessonByID(ctx, lessonID)
	if err != nil {
		return err
	}
	if lesson == nil {
		return model.NewNotFoundError("lesson not found")
	}

	now := time.Now().UTC()
	fact := &model.CompletionFact{
		UserID:      userID,
		LessonID:    lessonID,
		Completed:   true,
		CompletedAt: &now,
	}
	return s.completions.UpsertCompletionFact(ctx, fact)
}

func (s *progressService) GetUserCourseProgress(ctx context.Context, userID, courseID string) (*model.CourseProgress, error) {
	published, err := s.lessons.GetLessonsByCourseID(ctx, courseID, true)
	if err != nil {
		return nil, err
	}
	facts, err := s.completions.GetFactsByUserAndLessonIDs(ctx, userID, lessonIDs(published))
	if err != nil {
		return nil, err
	}
	progress := BuildCourseProgress(published, facts)
	return &progress, nil
}

func (s *progressService) ComputeEnrollmentProgress(ctx context.Context, courseID string) (map[string]model.CourseProgress, error) {
	enrollments, err := s.enrollments.GetEnrollmentsByCourseID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	published, err := s.lessons.GetLessonsByCourseID(ctx, courseID, true)
	if err != nil {
		return nil, err
	}
	facts, err := s.completions.GetFactsByLessonIDs(ctx, lessonIDs(published))
	if err != nil {
		return nil, err
	}

	byUser := PartitionFactsByUser(facts)
	result := make(map[string]model.CourseProgress, len(enrollments))
	for _, e := range enrollments {
		result[e.UserID] = BuildCourseProgress(published, byUser[e.UserID])
	}
	return result, nil
}

// BuildCourseProgress derives a progress snapshot from the published
// lesson set and one user's completion facts. Facts for lessons outside
// the published set are ignored, so completions against since-unpublished
// lessons neither count nor crash. A course with zero published lessons
// reports 0% not-started.
func BuildCourseProgress(published []model.Lesson, facts []model.CompletionFact) model.CourseProgress {
	total := len(published)
	if total == 0 {
		return model.CourseProgress{Status: model.ProgressStatusNotStarted}
	}

	completedSet := make(map[string]bool, len(facts))
	for _, f := range facts {
		if f.Completed {
			completedSet[f.LessonID] = true
		}
	}

	completed := 0
	for _, l := range published {
		if completedSet[l.ID] {
			completed++
		}
	}

	progress := model.CourseProgress{
		CompletedCount: completed,
		TotalCount:     total,
		Percentage:     int(math.Round(float64(completed) / float64(total) * 100)),
	}
	// Status follows the rounded percentage, not the raw counts, so the
	// reported status and percentage can never contradict each other.
	switch {
	case progress.Percentage == 0:
		progress.Status = model.ProgressStatusNotStarted
	case progress.Percentage == 100:
		progress.Status = model.ProgressStatusCompleted
	default:
		progress.Status = model.ProgressStatusInProgress
	}
	return progress
}

// PartitionFactsByUser groups completion facts by user id.
func PartitionFactsByUser(facts []model.CompletionFact) map[string][]model.CompletionFact {
	byUser := make(map[string][]model.CompletionFact)
	for _, f := range facts {
		byUser[f.UserID] = append(byUser[f.UserID], f)
	}
	return byUser
}

func lessonIDs(lessons []model.Lesson) []string {
	ids := make([]string, 0, len(lessons))
	for _, l := range lessons {
		ids = append(ids, l.ID)
	}
	return ids
}
