package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/google/uuid"
)

// ErrAlreadyEnrolled is returned when the (user, course) pair already
// exists.
var ErrAlreadyEnrolled = errors.New("user already enrolled in course")

// EnrollmentRepository stores course enrollments.
type EnrollmentRepository interface {
	CreateEnrollment(ctx context.Context, e *model.Enrollment) error
	GetEnrollmentsByCourseID(ctx context.Context, courseID string) ([]model.Enrollment, error)
	GetEnrollment(ctx context.Context, userID, courseID string) (*model.Enrollment, error)
}

type enrollmentRepo struct {
	db *sql.DB
}

// NewEnrollmentRepo creates a new EnrollmentRepository.
func NewEnrollmentRepo(db *sql.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

// CreateEnrollment inserts the enrollment, relying on the unique
// (user_id, course_id) constraint: a duplicate insert affects zero rows
// and is reported as ErrAlreadyEnrolled.
func (r *enrollmentRepo) CreateEnrollment(ctx context.Context, e *model.Enrollment) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	query := `
		INSERT INTO enrollments (id, user_id, course_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, course_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, e.ID, e.UserID, e.CourseID)
	if err != nil {
		return fmt.Errorf("failed to insert enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read enrollment insert result: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyEnrolled
	}
	return nil
}

func (r *enrollmentRepo) GetEnrollmentsByCourseID(ctx context.Context, courseID string) ([]model.Enrollment, error) {
	query := `
		SELECT id, user_id, course_id, enrolled_at
		FROM enrollments
		WHERE course_id = $1
		ORDER BY enrolled_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []model.Enrollment
	for rows.Next() {
		var e model.Enrollment
		if err := rows.Scan(&e.ID, &e.UserID, &e.CourseID, &e.EnrolledAt); err != nil {
			return nil, fmt.Errorf("failed to scan enrollment row: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	if len(enrollments) == 0 {
		return []model.Enrollment{}, nil
	}
	return enrollments, nil
}

func (r *enrollmentRepo) GetEnrollment(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	query := `
		SELECT id, user_id, course_id, enrolled_at
		FROM enrollments
		WHERE user_id = $1 AND course_id = $2
	`
	var e model.Enrollment
	err := r.db.QueryRowContext(ctx, query, userID, courseID).Scan(
		&e.ID, &e.UserID, &e.CourseID, &e.EnrolledAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan enrollment row: %w", err)
	}
	return &e, nil
}
