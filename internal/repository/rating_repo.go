package repository

import (
	"context"
	"fmt"

	"app/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RatingRepository stores course ratings, unique per (user, course).
type RatingRepository interface {
	UpsertRating(ctx context.Context, rt *model.Rating) error
	GetRatingsByCourseID(ctx context.Context, courseID string) ([]model.Rating, error)
}

type ratingRepo struct {
	pool *pgxpool.Pool
}

// NewRatingRepo creates a new RatingRepository.
func NewRatingRepo(pool *pgxpool.Pool) RatingRepository {
	return &ratingRepo{pool: pool}
}

func (r *ratingRepo) UpsertRating(ctx context.Context, rt *model.Rating) error {
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	query := `
		INSERT INTO ratings (id, user_id, course_id, rating, review)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, course_id)
		DO UPDATE SET rating = EXCLUDED.rating,
		              review = EXCLUDED.review,
		              updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query, rt.ID, rt.UserID, rt.CourseID, rt.Rating, rt.Review).
		Scan(&rt.ID, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}
	return nil
}

func (r *ratingRepo) GetRatingsByCourseID(ctx context.Context, courseID string) ([]model.Rating, error) {
	query := `
		SELECT id, user_id, course_id, rating, review, created_at, updated_at
		FROM ratings
		WHERE course_id = $1
	`
	rows, err := r.pool.Query(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var ratings []model.Rating
	for rows.Next() {
		var rt model.Rating
		if err := rows.Scan(&rt.ID, &rt.UserID, &rt.CourseID, &rt.Rating, &rt.Review, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", err)
		}
		ratings = append(ratings, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	if len(ratings) == 0 {
		return []model.Rating{}, nil
	}
	return ratings, nil
}
