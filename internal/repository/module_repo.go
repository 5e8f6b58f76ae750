package repository

import (
	"context"
	"database/sql"
	"fmt"

	"app/internal/model"

	"github.com/google/uuid"
)

// ModuleRepository manages the modules of a course.
type ModuleRepository interface {
	CreateModule(ctx context.Context, m *model.Module) error
	GetModuleByID(ctx context.Context, moduleID string) (*model.Module, error)
	GetModulesByCourseID(ctx context.Context, courseID string) ([]model.Module, error)
	CountModulesByCourseID(ctx context.Context, courseID string) (int, error)
}

type moduleRepo struct {
	db *sql.DB
}

// NewModuleRepo creates a new ModuleRepository.
func NewModuleRepo(db *sql.DB) ModuleRepository {
	return &moduleRepo{db: db}
}

// CreateModule appends a module at the end of its course's module list.
func (r *moduleRepo) CreateModule(ctx context.Context, m *model.Module) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	query := `
		INSERT INTO modules (id, course_id, title, position)
		SELECT $1, $2, $3, COALESCE(MAX(position), 0) + 1
		FROM modules
		WHERE course_id = $2
		RETURNING position, created_at, updated_at
	`
	if err := r.db.QueryRowContext(ctx, query, m.ID, m.CourseID, m.Title).
		Scan(&m.Position, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert module: %w", err)
	}
	return nil
}

func (r *moduleRepo) GetModuleByID(ctx context.Context, moduleID string) (*model.Module, error) {
	query := `
		SELECT id, course_id, title, position, created_at, updated_at
		FROM modules
		WHERE id = $1
	`
	var m model.Module
	err := r.db.QueryRowContext(ctx, query, moduleID).Scan(
		&m.ID, &m.CourseID, &m.Title, &m.Position, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan module row: %w", err)
	}
	return &m, nil
}

// GetModulesByCourseID returns the course's modules in course order.
// created_at and id break position ties so iteration is deterministic.
func (r *moduleRepo) GetModulesByCourseID(ctx context.Context, courseID string) ([]model.Module, error) {
	query := `
		SELECT id, course_id, title, position, created_at, updated_at
		FROM modules
		WHERE course_id = $1
		ORDER BY position ASC, created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}
	defer rows.Close()

	var modules []model.Module
	for rows.Next() {
		var m model.Module
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Title, &m.Position, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan module row: %w", err)
		}
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	if len(modules) == 0 {
		return []model.Module{}, nil
	}
	return modules, nil
}

func (r *moduleRepo) CountModulesByCourseID(ctx context.Context, courseID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM modules WHERE course_id = $1`
	if err := r.db.QueryRowContext(ctx, query, courseID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count modules: %w", err)
	}
	return count, nil
}
