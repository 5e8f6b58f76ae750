package repository

import (
	"context"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CompletionRepository stores per-lesson completion facts. The upsert is
// a single atomic statement keyed by the unique (user, lesson) pair, so
// concurrent MarkComplete calls converge without a read-then-write race.
type CompletionRepository interface {
	UpsertCompletionFact(ctx context.Context, f *model.CompletionFact) error
	// GetFactsByUserAndLessonIDs fetches one user's facts for the whole
	// lesson-id set in a single query.
	GetFactsByUserAndLessonIDs(ctx context.Context, userID string, lessonIDs []string) ([]model.CompletionFact, error)
	// GetFactsByLessonIDs fetches every user's facts for the lesson-id
	// set in a single query; callers partition per user in memory.
	GetFactsByLessonIDs(ctx context.Context, lessonIDs []string) ([]model.CompletionFact, error)
}

type completionRepo struct {
	pool *pgxpool.Pool
}

// NewCompletionRepo creates a new CompletionRepository.
func NewCompletionRepo(pool *pgxpool.Pool) CompletionRepository {
	return &completionRepo{pool: pool}
}

// UpsertCompletionFact records completion with last-write-wins on
// completed_at while keeping completed=true monotonic: once a lesson is
// completed, a later write can never silently revert it.
func (r *completionRepo) UpsertCompletionFact(ctx context.Context, f *model.CompletionFact) error {
	query := `
		INSERT INTO completion_facts (user_id, lesson_id, completed, completed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, lesson_id)
		DO UPDATE SET completed = completion_facts.completed OR EXCLUDED.completed,
		              completed_at = EXCLUDED.completed_at
	`
	if _, err := r.pool.Exec(ctx, query, f.UserID, f.LessonID, f.Completed, f.CompletedAt); err != nil {
		return fmt.Errorf("failed to upsert completion fact: %w", err)
	}
	return nil
}

func (r *completionRepo) GetFactsByUserAndLessonIDs(ctx context.Context, userID string, lessonIDs []string) ([]model.CompletionFact, error) {
	if len(lessonIDs) == 0 {
		return []model.CompletionFact{}, nil
	}
	query := `
		SELECT user_id, lesson_id, completed, completed_at
		FROM completion_facts
		WHERE user_id = $1 AND lesson_id = ANY($2)
	`
	return r.queryFacts(ctx, query, userID, lessonIDs)
}

func (r *completionRepo) GetFactsByLessonIDs(ctx context.Context, lessonIDs []string) ([]model.CompletionFact, error) {
	if len(lessonIDs) == 0 {
		return []model.CompletionFact{}, nil
	}
	query := `
		SELECT user_id, lesson_id, completed, completed_at
		FROM completion_facts
		WHERE lesson_id = ANY($1)
	`
	return r.queryFacts(ctx, query, lessonIDs)
}

func (r *completionRepo) queryFacts(ctx context.Context, query string, args ...any) ([]model.CompletionFact, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query completion facts: %w", err)
	}
	defer rows.Close()

	var facts []model.CompletionFact
	for rows.Next() {
		var f model.CompletionFact
		if err := rows.Scan(&f.UserID, &f.LessonID, &f.Completed, &f.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan completion fact row: %w", err)
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	if len(facts) == 0 {
		return []model.CompletionFact{}, nil
	}
	return facts, nil
}
