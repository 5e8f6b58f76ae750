package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/google/uuid"
)

// ErrLessonSetMismatch is returned when a reorder list does not match
// the module's lesson set exactly.
var ErrLessonSetMismatch = errors.New("reorder list does not match module lesson set")

// LessonRepository manages lessons. Course-ordered reads sort by module
// position first and lesson position second, with created_at and id as
// deterministic tiebreakers, so funnel computation sees a stable order.
type LessonRepository interface {
	CreateLesson(ctx context.Context, l *model.Lesson) error
	GetLessonByID(ctx context.Context, lessonID string) (*model.Lesson, error)
	GetLessonsByModuleID(ctx context.Context, moduleID string) ([]model.Lesson, error)
	// GetLessonsByCourseID returns the course's lessons in course order,
	// optionally restricted to published lessons.
	GetLessonsByCourseID(ctx context.Context, courseID string, publishedOnly bool) ([]model.Lesson, error)
	// CountSubmittableLessons counts the course's lessons with non-null
	// content, the submission precondition.
	CountSubmittableLessons(ctx context.Context, courseID string) (int, error)
	SetLessonPublished(ctx context.Context, lessonID string, published bool) error
	// ResequenceLessons reassigns dense positions 1..n following
	// orderedIDs, which must be exactly the module's lesson set.
	ResequenceLessons(ctx context.Context, moduleID string, orderedIDs []string) error
}

type lessonRepo struct {
	db *sql.DB
}

// NewLessonRepo creates a new LessonRepository.
func NewLessonRepo(db *sql.DB) LessonRepository {
	return &lessonRepo{db: db}
}

// CreateLesson appends a lesson at the end of its module. New lessons
// are always unpublished; they go live when the course is approved or
// when the instructor publishes them explicitly afterwards.
func (r *lessonRepo) CreateLesson(ctx context.Context, l *model.Lesson) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.IsPublished = false
	query := `
		INSERT INTO lessons (id, module_id, title, content, position, is_published)
		SELECT $1, $2, $3, $4, COALESCE(MAX(position), 0) + 1, FALSE
		FROM lessons
		WHERE module_id = $2
		RETURNING position, created_at, updated_at
	`
	if err := r.db.QueryRowContext(ctx, query, l.ID, l.ModuleID, l.Title, l.Content).
		Scan(&l.Position, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert lesson: %w", err)
	}
	return nil
}

func (r *lessonRepo) GetLessonByID(ctx context.Context, lessonID string) (*model.Lesson, error) {
	query := `
		SELECT id, module_id, title, content, position, is_published, created_at, updated_at
		FROM lessons
		WHERE id = $1
	`
	var l model.Lesson
	err := r.db.QueryRowContext(ctx, query, lessonID).Scan(
		&l.ID, &l.ModuleID, &l.Title, &l.Content, &l.Position, &l.IsPublished,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan lesson row: %w", err)
	}
	return &l, nil
}

func (r *lessonRepo) GetLessonsByModuleID(ctx context.Context, moduleID string) ([]model.Lesson, error) {
	query := `
		SELECT id, module_id, title, content, position, is_published, created_at, updated_at
		FROM lessons
		WHERE module_id = $1
		ORDER BY position ASC, created_at ASC, id ASC
	`
	return r.queryLessons(ctx, query, moduleID)
}

func (r *lessonRepo) GetLessonsByCourseID(ctx context.Context, courseID string, publishedOnly bool) ([]model.Lesson, error) {
	query := `
		SELECT l.id, l.module_id, l.title, l.content, l.position, l.is_published,
		       l.created_at, l.updated_at
		FROM lessons l
		JOIN modules m ON m.id = l.module_id
		WHERE m.course_id = $1
	`
	if publishedOnly {
		query += ` AND l.is_published = TRUE`
	}
	query += ` ORDER BY m.position ASC, m.created_at ASC, m.id ASC,
	                    l.position ASC, l.created_at ASC, l.id ASC`
	return r.queryLessons(ctx, query, courseID)
}

func (r *lessonRepo) CountSubmittableLessons(ctx context.Context, courseID string) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM lessons l
		JOIN modules m ON m.id = l.module_id
		WHERE m.course_id = $1 AND l.content IS NOT NULL
	`
	if err := r.db.QueryRowContext(ctx, query, courseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count submittable lessons: %w", err)
	}
	return count, nil
}

func (r *lessonRepo) SetLessonPublished(ctx context.Context, lessonID string, published bool) error {
	query := `UPDATE lessons SET is_published = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, lessonID, published); err != nil {
		return fmt.Errorf("failed to update lesson publish flag: %w", err)
	}
	return nil
}

func (r *lessonRepo) ResequenceLessons(ctx context.Context, moduleID string, orderedIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting resequence transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM lessons WHERE module_id = $1 FOR UPDATE`, moduleID)
	if err != nil {
		return fmt.Errorf("failed to lock module lessons: %w", err)
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan lesson id: %w", err)
		}
		existing[id] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	if len(orderedIDs) != len(existing) {
		return fmt.Errorf("%w: list has %d lessons, module has %d", ErrLessonSetMismatch, len(orderedIDs), len(existing))
	}
	for _, id := range orderedIDs {
		if !existing[id] {
			return fmt.Errorf("%w: lesson %s does not belong to module %s", ErrLessonSetMismatch, id, moduleID)
		}
	}

	// Dense rank: positions become exactly 1..n in the requested order.
	for i, id := range orderedIDs {
		if _, err := tx.ExecContext(ctx,
			`UPDATE lessons SET position = $2, updated_at = NOW() WHERE id = $1`,
			id, i+1); err != nil {
			return fmt.Errorf("failed to reposition lesson %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (r *lessonRepo) queryLessons(ctx context.Context, query string, args ...any) ([]model.Lesson, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []model.Lesson
	for rows.Next() {
		var l model.Lesson
		if err := rows.Scan(
			&l.ID, &l.ModuleID, &l.Title, &l.Content, &l.Position, &l.IsPublished,
			&l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan lesson row: %w", err)
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	if len(lessons) == 0 {
		return []model.Lesson{}, nil
	}
	return lessons, nil
}
