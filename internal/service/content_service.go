package service

import (
	"context"
	"errors"
	"strings"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// ContentService manages the module/lesson tree under a course. Lessons
// are created unpublished; they only go live through the publish cascade
// or an explicit publish flag change.
type ContentService interface {
	CreateModule(ctx context.Context, courseID, title string) (*model.Module, error)
	GetModulesByCourseID(ctx context.Context, courseID string) ([]model.Module, error)
	CreateLesson(ctx context.Context, moduleID, title string, content *string) (*model.Lesson, error)
	GetLessonsByModuleID(ctx context.Context, moduleID string) ([]model.Lesson, error)
	// ReorderLessons assigns positions 1..n following the order of
	// lessonIDs, which must be exactly the module's lesson set.
	ReorderLessons(ctx context.Context, moduleID string, lessonIDs []string) ([]model.Lesson, error)
	SetLessonPublished(ctx context.Context, lessonID string, published bool) (*model.Lesson, error)
}

type contentService struct {
	courses repository.CourseRepository
	modules repository.ModuleRepository
	lessons repository.LessonRepository
	logger  zerolog.Logger
}

// NewContentService creates a new ContentService.
func NewContentService(
	courses repository.CourseRepository,
	modules repository.ModuleRepository,
	lessons repository.LessonRepository,
	logger zerolog.Logger,
) ContentService {
	return &contentService{
		courses: courses,
		modules: modules,
		lessons: lessons,
		logger:  logger.With().Str("service", "ContentService").Logger(),
	}
}

func (s *contentService) CreateModule(ctx context.Context, courseID, title string) (*model.Module, error) {
	if strings.TrimSpace(title) == "" {
		return nil, model.NewValidationError("module title must not be empty")
	}
	course, err := s.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, model.NewNotFoundError("course not found")
	}

	m := &model.Module{CourseID: courseID, Title: title}
	if err := s.modules.CreateModule(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *contentService) GetModulesByCourseID(ctx context.Context, courseID string) ([]model.Module, error) {
	course, err := s.courses.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, model.NewNotFoundError("course not found")
	}
	return s.modules.GetModulesByCourseID(ctx, courseID)
}

func (s *contentService) CreateLesson(ctx context.Context, moduleID, title string, content *string) (*model.Lesson, error) {
	if strings.TrimSpace(title) == "" {
		return nil, model.NewValidationError("lesson title must not be empty")
	}
	module, err := s.modules.GetModuleByID(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if module == nil {
		return nil, model.NewNotFoundError("module not found")
	}

	l := &model.Lesson{ModuleID: moduleID, Title: title, Content: content}
	if err := s.lessons.CreateLesson(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *contentService) GetLessonsByModuleID(ctx context.Context, moduleID string) ([]model.Lesson, error) {
	module, err := s.modules.GetModuleByID(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if module == nil {
		return nil, model.NewNotFoundError("module not found")
	}
	return s.lessons.GetLessonsByModuleID(ctx, moduleID)
}

func (s *contentService) ReorderLessons(ctx context.Context, moduleID string, lessonIDs []string) ([]model.Lesson, error) {
	if len(lessonIDs) == 0 {
		return nil, model.NewValidationError("lesson order must not be empty")
	}
	seen := make(map[string]bool, len(lessonIDs))
	for _, id := range lessonIDs {
		if seen[id] {
			return nil, model.NewValidationError("lesson order contains duplicate ids")
		}
		seen[id] = true
	}
	module, err := s.modules.GetModuleByID(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if module == nil {
		return nil, model.NewNotFoundError("module not found")
	}

	if err := s.lessons.ResequenceLessons(ctx, moduleID, lessonIDs); err != nil {
		if errors.Is(err, repository.ErrLessonSetMismatch) {
			return nil, model.NewValidationError("lesson order must cover exactly the module's lessons")
		}
		return nil, err
	}
	return s.lessons.GetLessonsByModuleID(ctx, moduleID)
}

func (s *contentService) SetLessonPublished(ctx context.Context, lessonID string, published bool) (*model.Lesson, error) {
	lesson, err := s.lessons.GetLessonByID(ctx, lessonID)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, model.NewNotFoundError("lesson not found")
	}
	if err := s.lessons.SetLessonPublished(ctx, lessonID, published); err != nil {
		return nil, err
	}
	lesson.IsPublished = published
	return lesson, nil
}
