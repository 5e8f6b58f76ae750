package model

import "time"

// CourseStatus is the publication state of a course. Transitions are
// decided in the lifecycle service; no other code compares raw strings.
type CourseStatus string

const (
	CourseStatusDraft         CourseStatus = "draft"
	CourseStatusPendingReview CourseStatus = "pending_review"
	CourseStatusPublished     CourseStatus = "published"
	CourseStatusRejected      CourseStatus = "rejected"
	// CourseStatusNeedsChanges is a variant of rejected used for minor
	// feedback that still allows the instructor to edit and resubmit.
	CourseStatusNeedsChanges CourseStatus = "needs_changes"
)

// IsValid reports whether s is a known course status.
func (s CourseStatus) IsValid() bool {
	switch s {
	case CourseStatusDraft, CourseStatusPendingReview, CourseStatusPublished,
		CourseStatusRejected, CourseStatusNeedsChanges:
		return true
	default:
		return false
	}
}

// CanSubmit reports whether a course in this status may be submitted for
// review. needs_changes counts as a rejected variant.
func (s CourseStatus) CanSubmit() bool {
	return s == CourseStatusDraft || s == CourseStatusRejected || s == CourseStatusNeedsChanges
}

// CanReview reports whether a course in this status may be reviewed.
func (s CourseStatus) CanReview() bool {
	return s == CourseStatusPendingReview
}

// SubmittableStatuses are the states a submission transition is legal from.
var SubmittableStatuses = []CourseStatus{
	CourseStatusDraft,
	CourseStatusRejected,
	CourseStatusNeedsChanges,
}

// ReviewDecision is the outcome a reviewer records for a pending course.
type ReviewDecision string

const (
	ReviewDecisionApprove ReviewDecision = "approve"
	ReviewDecisionReject  ReviewDecision = "reject"
	// ReviewDecisionRequestChanges rejects with minor feedback, leaving
	// the course in needs_changes instead of rejected.
	ReviewDecisionRequestChanges ReviewDecision = "request_changes"
)

// IsValid reports whether d is a known review decision.
func (d ReviewDecision) IsValid() bool {
	switch d {
	case ReviewDecisionApprove, ReviewDecisionReject, ReviewDecisionRequestChanges:
		return true
	default:
		return false
	}
}

// Course represents a course in the system
type Course struct {
	ID              string       `db:"id" json:"id"`
	InstructorID    string       `db:"instructor_id" json:"instructor_id"`
	Title           string       `db:"title" json:"title"`
	Description     string       `db:"description" json:"description"`
	Category        string       `db:"category" json:"category"`
	Level           string       `db:"level" json:"level"`
	PriceCents      int64        `db:"price_cents" json:"price_cents"`
	ContentType     string       `db:"content_type" json:"content_type"`
	ThumbnailURL    string       `db:"thumbnail_url" json:"thumbnail_url"`
	Status          CourseStatus `db:"status" json:"status"`
	IsPublished     bool         `db:"is_published" json:"is_published"`
	RejectionReason *string      `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ReviewedBy      *string      `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time   `db:"reviewed_at" json:"reviewed_at,omitempty"`
	PublishedAt     *time.Time   `db:"published_at" json:"published_at,omitempty"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// MajorFields is the snapshot of the fields whose change on a published
// course requires re-approval. The set is declared once, here, so every
// endpoint agrees on what counts as a major edit.
type MajorFields struct {
	Title       string
	Description string
	Category    string
	Level       string
	PriceCents  int64
}

// Major returns the course's current major-field snapshot.
func (c *Course) Major() MajorFields {
	return MajorFields{
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Level:       c.Level,
		PriceCents:  c.PriceCents,
	}
}

// RequiresReapproval reports whether moving from current to next changes
// any major field. Pure with respect to the diff: it does not care which
// endpoint produced next.
func RequiresReapproval(current, next MajorFields) bool {
	return current != next
}

// CourseEdit carries an instructor's partial edit. Nil fields are left
// untouched.
type CourseEdit struct {
	Title        *string
	Description  *string
	Category     *string
	Level        *string
	PriceCents   *int64
	ContentType  *string
	ThumbnailURL *string
}

// Apply copies the non-nil edit fields onto the course.
func (e CourseEdit) Apply(c *Course) {
	if e.Title != nil {
		c.Title = *e.Title
	}
	if e.Description != nil {
		c.Description = *e.Description
	}
	if e.Category != nil {
		c.Category = *e.Category
	}
	if e.Level != nil {
		c.Level = *e.Level
	}
	if e.PriceCents != nil {
		c.PriceCents = *e.PriceCents
	}
	if e.ContentType != nil {
		c.ContentType = *e.ContentType
	}
	if e.ThumbnailURL != nil {
		c.ThumbnailURL = *e.ThumbnailURL
	}
}

// CourseEventType identifies an entry in a course's audit trail.
type CourseEventType string

const (
	CourseEventSubmitted        CourseEventType = "submitted"
	CourseEventApproved         CourseEventType = "approved"
	CourseEventRejected         CourseEventType = "rejected"
	CourseEventChangesRequested CourseEventType = "changes_requested"
	// CourseEventEditDemoted records a published course being sent back
	// to review because a major field changed.
	CourseEventEditDemoted CourseEventType = "edit_demoted"
	// CourseEventLessonsPublished is written by the cascade worker once
	// every lesson of an approved course has been published.
	CourseEventLessonsPublished CourseEventType = "lessons_published"
)

// CourseEvent is one audit record of a lifecycle transition.
type CourseEvent struct {
	ID        string          `db:"id" json:"id"`
	CourseID  string          `db:"course_id" json:"course_id"`
	ActorID   string          `db:"actor_id" json:"actor_id"`
	EventType CourseEventType `db:"event_type" json:"event_type"`
	Detail    *string         `db:"detail" json:"detail,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}
