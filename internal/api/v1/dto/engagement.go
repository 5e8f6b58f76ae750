package dto

import (
	"time"

	"app/internal/model"
)

// EnrollmentResponseDTO is returned after a successful enrollment.
type EnrollmentResponseDTO struct {
	EnrollmentID string    `json:"enrollment_id"`
	UserID       string    `json:"user_id"`
	CourseID     string    `json:"course_id"`
	EnrolledAt   time.Time `json:"enrolled_at"`
}

// RatingCreateDTO is used for incoming course rating requests
type RatingCreateDTO struct {
	Rating int     `json:"rating" validate:"required,min=1,max=5"`
	Review *string `json:"review,omitempty"`
}

// RatingResponseDTO is returned in API responses for ratings
type RatingResponseDTO struct {
	RatingID  string    `json:"rating_id"`
	UserID    string    `json:"user_id"`
	CourseID  string    `json:"course_id"`
	Rating    int       `json:"rating"`
	Review    *string   `json:"review,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProgressResponseDTO reports a user's derived progress over a course's
// currently published lessons.
type ProgressResponseDTO struct {
	CourseID       string `json:"course_id"`
	UserID         string `json:"user_id"`
	CompletedCount int    `json:"completed_count"`
	TotalCount     int    `json:"total_count"`
	Percentage     int    `json:"percentage"`
	Status         string `json:"status"`
}

// ExportResponseDTO points at a stored analytics snapshot.
type ExportResponseDTO struct {
	Key         string    `json:"key"`
	DownloadURL string    `json:"download_url"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewEnrollmentResponseDTO maps an enrollment model to its response shape.
func NewEnrollmentResponseDTO(e *model.Enrollment) EnrollmentResponseDTO {
	return EnrollmentResponseDTO{
		EnrollmentID: e.ID,
		UserID:       e.UserID,
		CourseID:     e.CourseID,
		EnrolledAt:   e.EnrolledAt,
	}
}

// NewRatingResponseDTO maps a rating model to its response shape.
func NewRatingResponseDTO(rt *model.Rating) RatingResponseDTO {
	return RatingResponseDTO{
		RatingID:  rt.ID,
		UserID:    rt.UserID,
		CourseID:  rt.CourseID,
		Rating:    rt.Rating,
		Review:    rt.Review,
		CreatedAt: rt.CreatedAt,
		UpdatedAt: rt.UpdatedAt,
	}
}

// NewProgressResponseDTO maps derived progress to its response shape.
func NewProgressResponseDTO(courseID, userID string, p *model.CourseProgress) ProgressResponseDTO {
	return ProgressResponseDTO{
		CourseID:       courseID,
		UserID:         userID,
		CompletedCount: p.CompletedCount,
		TotalCount:     p.TotalCount,
		Percentage:     p.Percentage,
		Status:         string(p.Status),
	}
}
