package model

import "time"

// Enrollment links a user to a course. A user may enroll in a course at
// most once; the (user_id, course_id) pair is unique.
type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// CompletionFact is the atomic record that a user finished a lesson.
// At most one fact exists per (user, lesson); later writes overwrite
// earlier ones, except that completed=true never reverts.
type CompletionFact struct {
	UserID      string     `db:"user_id" json:"user_id"`
	LessonID    string     `db:"lesson_id" json:"lesson_id"`
	Completed   bool       `db:"completed" json:"completed"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// Rating is a user's 1-5 rating of a course, unique per (user, course)
// and upsertable.
type Rating struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Rating    int       `db:"rating" json:"rating"`
	Review    *string   `db:"review" json:"review,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
