package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/ehr-booking/internal/repository"
)

// OutboxCleanupWorker deletes processed events once they age out.
type OutboxCleanupWorker struct {
	repo      repository.OutboxRepository
	retention time.Duration
	interval  time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

func NewOutboxCleanupWorker(repo repository.OutboxRepository, retention, interval time.Duration, logger zerolog.Logger) *OutboxCleanupWorker {
	return &OutboxCleanupWorker{
		repo:      repo,
		retention: retention,
		interval:  interval,
		logger:    logger.With().Str("component", "outbox-cleanup").Logger(),
		now:       time.Now,
	}
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Cleanup(ctx); err != nil {
				w.logger.Error().Err(err).Msg("failed to clean up outbox events")
			}
		}
	}
}

func (w *OutboxCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)
	rows, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if rows > 0 {
		w.logger.Info().Int64("deleted", rows).Time("cutoff", cutoff).Msg("cleaned up processed outbox events")
	}
	return rows, nil
}
