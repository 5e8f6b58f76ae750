package model

import "time"

// Module groups lessons inside a course. Position is a dense rank,
// reassigned on reorder, so iteration order is deterministic.
type Module struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	Title     string    `db:"title" json:"title"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Lesson belongs to exactly one module. A lesson stays unpublished until
// its course is approved (or it is published explicitly afterwards);
// only published lessons count toward progress.
type Lesson struct {
	ID          string    `db:"id" json:"id"`
	ModuleID    string    `db:"module_id" json:"module_id"`
	Title       string    `db:"title" json:"title"`
	Content     *string   `db:"content" json:"content,omitempty"`
	Position    int       `db:"position" json:"position"`
	IsPublished bool      `db:"is_published" json:"is_published"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
