package model

// ProgressStatus classifies a user's position in a course.
type ProgressStatus string

const (
	ProgressStatusNotStarted ProgressStatus = "not-started"
	ProgressStatusInProgress ProgressStatus = "in-progress"
	ProgressStatusCompleted  ProgressStatus = "completed"
)

// CourseProgress is a derived snapshot of a user's progress through the
// currently published lessons of a course. It is computed on every read
// and never stored.
type CourseProgress struct {
	CompletedCount int            `json:"completed_count"`
	TotalCount     int            `json:"total_count"`
	Percentage     int            `json:"percentage"`
	Status         ProgressStatus `json:"status"`
}
