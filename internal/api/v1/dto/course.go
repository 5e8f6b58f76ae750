package dto

import (
	"time"

	"app/internal/model"
)

// CourseCreateDTO is used for incoming course creation requests
type CourseCreateDTO struct {
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description" validate:"required"`
	Category     string `json:"category" validate:"required"`
	Level        string `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	PriceCents   int64  `json:"price_cents" validate:"gte=0"`
	ContentType  string `json:"content_type,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// CourseUpdateDTO is used for incoming course update requests. All
// fields are optional; omitted fields are left untouched.
type CourseUpdateDTO struct {
	Title        *string `json:"title,omitempty"`
	Description  *string `json:"description,omitempty"`
	Category     *string `json:"category,omitempty"`
	Level        *string `json:"level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	PriceCents   *int64  `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
	ContentType  *string `json:"content_type,omitempty"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
}

// ToEdit maps the update request onto the partial-edit model.
func (d CourseUpdateDTO) ToEdit() model.CourseEdit {
	return model.CourseEdit{
		Title:        d.Title,
		Description:  d.Description,
		Category:     d.Category,
		Level:        d.Level,
		PriceCents:   d.PriceCents,
		ContentType:  d.ContentType,
		ThumbnailURL: d.ThumbnailURL,
	}
}

// ReviewRequestDTO carries a reviewer decision.
type ReviewRequestDTO struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject request_changes"`
	Reason   string `json:"reason,omitempty"`
}

// CourseResponseDTO is returned in API responses for courses
type CourseResponseDTO struct {
	CourseID        string     `json:"course_id"`
	InstructorID    string     `json:"instructor_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Category        string     `json:"category"`
	Level           string     `json:"level"`
	PriceCents      int64      `json:"price_cents"`
	ContentType     string     `json:"content_type,omitempty"`
	ThumbnailURL    string     `json:"thumbnail_url,omitempty"`
	Status          string     `json:"status"`
	IsPublished     bool       `json:"is_published"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	ReviewedBy      *string    `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// UpdateCourseResponseDTO wraps the updated course and reports whether
// the edit sent it back to review.
type UpdateCourseResponseDTO struct {
	Course             CourseResponseDTO `json:"course"`
	RequiresReapproval bool              `json:"requires_reapproval"`
}

// CourseEventDTO is one entry of a course's audit trail.
type CourseEventDTO struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	ActorID   string    `json:"actor_id"`
	Detail    *string   `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCourseResponseDTO maps a course model to its response shape.
func NewCourseResponseDTO(c *model.Course) CourseResponseDTO {
	return CourseResponseDTO{
		CourseID:        c.ID,
		InstructorID:    c.InstructorID,
		Title:           c.Title,
		Description:     c.Description,
		Category:        c.Category,
		Level:           c.Level,
		PriceCents:      c.PriceCents,
		ContentType:     c.ContentType,
		ThumbnailURL:    c.ThumbnailURL,
		Status:          string(c.Status),
		IsPublished:     c.IsPublished,
		RejectionReason: c.RejectionReason,
		ReviewedBy:      c.ReviewedBy,
		ReviewedAt:      c.ReviewedAt,
		PublishedAt:     c.PublishedAt,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// NewCourseEventDTO maps an audit event to its response shape.
func NewCourseEventDTO(e model.CourseEvent) CourseEventDTO {
	return CourseEventDTO{
		EventID:   e.ID,
		EventType: string(e.EventType),
		ActorID:   e.ActorID,
		Detail:    e.Detail,
		CreatedAt: e.CreatedAt,
	}
}
