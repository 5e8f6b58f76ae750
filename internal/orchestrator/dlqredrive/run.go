package dlqredrive

import (
	"context"
	"time"

	"app/internal/config"
	"app/internal/pgmq"

	"github.com/rs/zerolog"
)

// Run drains the cascade dead-letter queue back into the main queue and
// exits. It is meant to be run manually after the underlying failure
// (usually a database outage) has been fixed.
func Run(ctx context.Context, logger zerolog.Logger, client *pgmq.Client) error {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config in dlq-redrive orchestrator: %v", err)
	}
	dlq := cfg.CascadeDeadLetterQueueName
	queue := cfg.CascadeQueueName
	logger.Info().Str("dlq", dlq).Str("queue", queue).Msg("Starting DLQ redrive")

	redriven := 0
	for {
		select {
		case <-ctx.Done():
			logger.Info().Int("redriven", redriven).Msg("DLQ redrive interrupted")
			return nil
		default:
		}

		// Short poll: an empty read means the DLQ is drained.
		msgs, err := client.ReadWithPoll(ctx, dlq, 1, 10)
		if err != nil {
			logger.Error().Err(err).Msg("Error reading dead-letter queue")
			time.Sleep(time.Second)
			continue
		}
		if len(msgs) == 0 {
			logger.Info().Int("redriven", redriven).Msg("DLQ drained, redrive complete")
			return nil
		}

		for _, msg := range msgs {
			if err := client.Send(ctx, queue, msg.Data); err != nil {
				logger.Error().Err(err).Int64("msg_id", msg.ID).
					Msg("Failed to redrive message; leaving it in DLQ")
				continue
			}
			if err := client.Delete(ctx, dlq, []int64{msg.ID}); err != nil {
				logger.Error().Err(err).Int64("msg_id", msg.ID).
					Msg("Error deleting redriven message from DLQ")
				continue
			}
			redriven++
		}
	}
}
