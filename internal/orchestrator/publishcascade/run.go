package publishcascade

import (
	"context"
	"encoding/json"
	"time"

	"app/internal/config"
	"app/internal/pgmq"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// cascadeQuery publishes every unpublished lesson of the course, but
// only while the course is still published. A demotion that lands
// between approval and this job simply makes the update a no-op, which
// also makes redelivery of the same message safe.
const cascadeQuery = `
	UPDATE lessons SET is_published = TRUE, updated_at = NOW()
	FROM modules m, courses c
	WHERE lessons.module_id = m.id
	  AND m.course_id = c.id
	  AND c.id = $1
	  AND c.status = 'published'
	  AND lessons.is_published = FALSE
`

const auditQuery = `
	INSERT INTO course_events (id, course_id, actor_id, event_type)
	VALUES ($1, $2, 'system', 'lessons_published')
`

// Run starts the lesson publish-cascade orchestrator. Jobs are enqueued
// in the same transaction that approves a course, so every approval is
// eventually followed by exactly this cascade.
func Run(ctx context.Context, logger zerolog.Logger, client *pgmq.Client) error {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config in publish-cascade orchestrator: %v", err)
	}
	queue := cfg.CascadeQueueName
	logger.Info().Str("queue", queue).Msg("Starting publish-cascade orchestrator")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down publish-cascade orchestrator")
			return nil
		default:
		}

		msgs, err := client.ReadWithPoll(ctx, queue, cfg.CascadePollTimeoutSec, cfg.CascadePollMaxMsg)
		if err != nil {
			logger.Error().Err(err).Msg("Error reading publish-cascade queue")
			time.Sleep(time.Second)
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		msg := msgs[0]
		logger.Info().Int64("msg_id", msg.ID).Msgf("Received publish-cascade job: %s", string(msg.Data))

		var payload struct {
			CourseID string `json:"course_id"`
		}
		if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.CourseID == "" {
			logger.Error().Err(err).Msg("Malformed publish-cascade payload; deleting message")
			client.Delete(ctx, queue, []int64{msg.ID})
			continue
		}

		backoff := time.Duration(cfg.CascadeBackoffInitialSec) * time.Second
		var execErr error
		for attempt := 1; attempt <= cfg.CascadeMaxRetries; attempt++ {
			execErr = client.Exec(ctx, cascadeQuery, payload.CourseID)
			if execErr == nil {
				break
			}
			logger.Error().Err(execErr).Int("attempt", attempt).
				Str("course_id", payload.CourseID).
				Msg("Publish cascade failed, retrying")
			time.Sleep(backoff)
			backoff *= 2
			if backoff > time.Duration(cfg.CascadeBackoffMaxSec)*time.Second {
				backoff = time.Duration(cfg.CascadeBackoffMaxSec) * time.Second
			}
		}

		if execErr != nil {
			dlq := cfg.CascadeDeadLetterQueueName
			if err := client.Send(ctx, dlq, msg.Data); err != nil {
				logger.Error().Err(err).Str("dlq", dlq).Msg("Failed to send message to dead-letter queue")
				// Leave the message in the queue so it redelivers rather
				// than losing the cascade entirely.
				continue
			}
			if err := client.Delete(ctx, queue, []int64{msg.ID}); err != nil {
				logger.Error().Err(err).Msg("Error deleting cascade message after failure")
			}
			logger.Warn().
				Int("attempts", cfg.CascadeMaxRetries).
				Str("course_id", payload.CourseID).
				Err(execErr).
				Msg("Exhausted all cascade retries; moving job to DLQ")
			continue
		}

		// Audit record is best effort; the lessons are already live.
		if err := client.Exec(ctx, auditQuery, uuid.NewString(), payload.CourseID); err != nil {
			logger.Error().Err(err).Str("course_id", payload.CourseID).
				Msg("Failed to record lessons_published event")
		}

		if err := client.Delete(ctx, queue, []int64{msg.ID}); err != nil {
			logger.Error().Err(err).Msg("Error deleting cascade message")
		}
		logger.Info().Str("course_id", payload.CourseID).Msg("Publish cascade completed")
	}
}
