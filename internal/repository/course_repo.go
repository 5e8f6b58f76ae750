package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStatusConflict is returned when a status precondition on a course
// transition does not hold at write time: either the state changed
// concurrently or the transition was never legal. The service layer maps
// it to a typed conflict error.
var ErrStatusConflict = errors.New("course status precondition failed")

const courseColumns = `
	id, instructor_id, title, description, category, level, price_cents,
	content_type, thumbnail_url, status, is_published, rejection_reason,
	reviewed_by, reviewed_at, published_at, created_at, updated_at`

// CourseRepository is the course half of the content store. Every state
// transition is applied as one transaction: a compare-and-swap on status,
// the audit event, and (for approvals) the cascade job enqueue either all
// happen or none do.
type CourseRepository interface {
	CreateCourse(ctx context.Context, c *model.Course) error
	GetCourseByID(ctx context.Context, courseID string) (*model.Course, error)
	// SubmitForReview moves the course into pending_review if its
	// current status is one of from, clearing review metadata.
	SubmitForReview(ctx context.Context, courseID, actorID string, from []model.CourseStatus) error
	// ApproveCourse publishes a pending_review course and enqueues the
	// lesson publish-cascade job on cascadeQueue in the same transaction.
	ApproveCourse(ctx context.Context, courseID, reviewerID, cascadeQueue string) error
	// RejectCourse moves a pending_review course to rejected or
	// needs_changes and stores the reason.
	RejectCourse(ctx context.Context, courseID, reviewerID, reason string, to model.CourseStatus) error
	// UpdateCourseContent saves the edited fields. When demote is true
	// the course is simultaneously moved published -> pending_review;
	// if it is no longer published the whole update is rolled back.
	UpdateCourseContent(ctx context.Context, c *model.Course, demote bool, actorID string) error
	ListEventsByCourseID(ctx context.Context, courseID string) ([]model.CourseEvent, error)
}

type courseRepo struct {
	pool *pgxpool.Pool
}

// NewCourseRepo creates a new CourseRepository.
func NewCourseRepo(pool *pgxpool.Pool) CourseRepository {
	return &courseRepo{pool: pool}
}

func (r *courseRepo) CreateCourse(ctx context.Context, c *model.Course) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Status = model.CourseStatusDraft
	c.IsPublished = false
	query := `
		INSERT INTO courses (id, instructor_id, title, description, category, level,
		                     price_cents, content_type, thumbnail_url, status, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query,
		c.ID, c.InstructorID, c.Title, c.Description, c.Category, c.Level,
		c.PriceCents, c.ContentType, c.ThumbnailURL, c.Status, c.IsPublished,
	).Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert course: %w", err)
	}
	return nil
}

func (r *courseRepo) GetCourseByID(ctx context.Context, courseID string) (*model.Course, error) {
	query := `SELECT` + courseColumns + ` FROM courses WHERE id = $1`
	var c model.Course
	err := r.pool.QueryRow(ctx, query, courseID).Scan(
		&c.ID, &c.InstructorID, &c.Title, &c.Description, &c.Category, &c.Level,
		&c.PriceCents, &c.ContentType, &c.ThumbnailURL, &c.Status, &c.IsPublished,
		&c.RejectionReason, &c.ReviewedBy, &c.ReviewedAt, &c.PublishedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan course row: %w", err)
	}
	return &c, nil
}

func (r *courseRepo) SubmitForReview(ctx context.Context, courseID, actorID string, from []model.CourseStatus) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		statuses := make([]string, len(from))
		for i, s := range from {
			statuses[i] = string(s)
		}
		tag, err := tx.Exec(ctx, `
			UPDATE courses
			SET status = $2, rejection_reason = NULL, reviewed_by = NULL,
			    reviewed_at = NULL, updated_at = NOW()
			WHERE id = $1 AND status = ANY($3)
		`, courseID, model.CourseStatusPendingReview, statuses)
		if err != nil {
			return fmt.Errorf("failed to update course status: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrStatusConflict
		}
		return insertCourseEvent(ctx, tx, courseID, actorID, model.CourseEventSubmitted, nil)
	})
}

func (r *courseRepo) ApproveCourse(ctx context.Context, courseID, reviewerID, cascadeQueue string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE courses
			SET status = $2, is_published = TRUE, rejection_reason = NULL,
			    reviewed_by = $3, reviewed_at = NOW(), published_at = NOW(),
			    updated_at = NOW()
			WHERE id = $1 AND status = $4
		`, courseID, model.CourseStatusPublished, reviewerID, model.CourseStatusPendingReview)
		if err != nil {
			return fmt.Errorf("failed to publish course: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrStatusConflict
		}
		if err := insertCourseEvent(ctx, tx, courseID, reviewerID, model.CourseEventApproved, nil); err != nil {
			return err
		}
		// The cascade job is enqueued in the same transaction as the
		// status change, so an approved course always has a durably
		// queued lesson publish job.
		payload, err := json.Marshal(map[string]string{"course_id": courseID})
		if err != nil {
			return fmt.Errorf("failed to marshal cascade payload: %w", err)
		}
		if _, err := tx.Exec(ctx, "SELECT pgmq.send($1, $2::jsonb, 0)", cascadeQueue, string(payload)); err != nil {
			return fmt.Errorf("failed to enqueue lesson publish cascade: %w", err)
		}
		return nil
	})
}

func (r *courseRepo) RejectCourse(ctx context.Context, courseID, reviewerID, reason string, to model.CourseStatus) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE courses
			SET status = $2, is_published = FALSE, rejection_reason = $3,
			    reviewed_by = $4, reviewed_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = $5
		`, courseID, to, reason, reviewerID, model.CourseStatusPendingReview)
		if err != nil {
			return fmt.Errorf("failed to reject course: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrStatusConflict
		}
		eventType := model.CourseEventRejected
		if to == model.CourseStatusNeedsChanges {
			eventType = model.CourseEventChangesRequested
		}
		return insertCourseEvent(ctx, tx, courseID, reviewerID, eventType, &reason)
	})
}

func (r *courseRepo) UpdateCourseContent(ctx context.Context, c *model.Course, demote bool, actorID string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE courses
			SET title = $2, description = $3, category = $4, level = $5,
			    price_cents = $6, content_type = $7, thumbnail_url = $8,
			    updated_at = NOW()
			WHERE id = $1
		`, c.ID, c.Title, c.Description, c.Category, c.Level,
			c.PriceCents, c.ContentType, c.ThumbnailURL); err != nil {
			return fmt.Errorf("failed to update course fields: %w", err)
		}
		if !demote {
			return nil
		}
		tag, err := tx.Exec(ctx, `
			UPDATE courses
			SET status = $2, is_published = FALSE, updated_at = NOW()
			WHERE id = $1 AND status = $3
		`, c.ID, model.CourseStatusPendingReview, model.CourseStatusPublished)
		if err != nil {
			return fmt.Errorf("failed to demote course to review: %w", err)
		}
		if tag.RowsAffected() == 0 {
			// The course left published between the read and this write;
			// roll the field update back and let the caller retry.
			return ErrStatusConflict
		}
		return insertCourseEvent(ctx, tx, c.ID, actorID, model.CourseEventEditDemoted, nil)
	})
}

func (r *courseRepo) ListEventsByCourseID(ctx context.Context, courseID string) ([]model.CourseEvent, error) {
	query := `
		SELECT id, course_id, actor_id, event_type, detail, created_at
		FROM course_events
		WHERE course_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query course events: %w", err)
	}
	defer rows.Close()

	var events []model.CourseEvent
	for rows.Next() {
		var e model.CourseEvent
		if err := rows.Scan(&e.ID, &e.CourseID, &e.ActorID, &e.EventType, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan course event row: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	if len(events) == 0 {
		return []model.CourseEvent{}, nil
	}
	return events, nil
}

func (r *courseRepo) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("starting course transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertCourseEvent(ctx context.Context, tx pgx.Tx, courseID, actorID string, eventType model.CourseEventType, detail *string) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO course_events (id, course_id, actor_id, event_type, detail)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), courseID, actorID, eventType, detail); err != nil {
		return fmt.Errorf("failed to record course event: %w", err)
	}
	return nil
}
