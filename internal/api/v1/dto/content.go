package dto

import (
	"time"

	"app/internal/model"
)

// ModuleCreateDTO is used for incoming module creation requests
type ModuleCreateDTO struct {
	Title string `json:"title" validate:"required"`
}

// ModuleResponseDTO is returned in API responses for modules
type ModuleResponseDTO struct {
	ModuleID  string    `json:"module_id"`
	CourseID  string    `json:"course_id"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LessonCreateDTO is used for incoming lesson creation requests
type LessonCreateDTO struct {
	Title   string  `json:"title" validate:"required"`
	Content *string `json:"content,omitempty"`
}

// LessonReorderDTO carries the full lesson order for a module.
type LessonReorderDTO struct {
	LessonIDs []string `json:"lesson_ids" validate:"required,min=1,dive,required"`
}

// LessonPublishDTO toggles a lesson's publish flag.
type LessonPublishDTO struct {
	IsPublished *bool `json:"is_published" validate:"required"`
}

// LessonResponseDTO is returned in API responses for lessons
type LessonResponseDTO struct {
	LessonID    string    `json:"lesson_id"`
	ModuleID    string    `json:"module_id"`
	Title       string    `json:"title"`
	Content     *string   `json:"content,omitempty"`
	Position    int       `json:"position"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewModuleResponseDTO maps a module model to its response shape.
func NewModuleResponseDTO(m *model.Module) ModuleResponseDTO {
	return ModuleResponseDTO{
		ModuleID:  m.ID,
		CourseID:  m.CourseID,
		Title:     m.Title,
		Position:  m.Position,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// NewLessonResponseDTO maps a lesson model to its response shape.
func NewLessonResponseDTO(l *model.Lesson) LessonResponseDTO {
	return LessonResponseDTO{
		LessonID:    l.ID,
		ModuleID:    l.ModuleID,
		Title:       l.Title,
		Content:     l.Content,
		Position:    l.Position,
		IsPublished: l.IsPublished,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}

// NewLessonResponseDTOs maps a lesson slice to response shapes.
func NewLessonResponseDTOs(lessons []model.Lesson) []LessonResponseDTO {
	out := make([]LessonResponseDTO, 0, len(lessons))
	for i := range lessons {
		out = append(out, NewLessonResponseDTO(&lessons[i]))
	}
	return out
}
