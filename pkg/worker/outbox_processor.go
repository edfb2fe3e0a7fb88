package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/repository"
	"github.com/jwalitptl/ehr-booking/pkg/messaging"
	"github.com/jwalitptl/ehr-booking/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize    int
	PollInterval time.Duration
	// MaxRetries is the number of failed publishes after which an event is
	// marked FAILED and no longer picked up.
	MaxRetries int
}

func (c OutboxProcessorConfig) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be greater than 0")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be greater than 0")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be greater than 0")
	}
	return nil
}

// OutboxProcessor relays committed outbox events to the broker. Each batch
// is claimed and marked inside one transaction, so concurrent processors
// skip each other's rows.
type OutboxProcessor struct {
	store   repository.Store
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	store repository.Store,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger zerolog.Logger,
	m *metrics.Metrics,
) (*OutboxProcessor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &OutboxProcessor{
		store:   store,
		broker:  broker,
		config:  config,
		logger:  logger.With().Str("component", "outbox").Logger(),
		metrics: m,
	}, nil
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info().Msg("starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error().Err(err).Msg("failed to process outbox batch")
			}
		}
	}
}

// ProcessBatch publishes up to BatchSize pending events and returns how many
// were published.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) (int, error) {
	if p.metrics != nil {
		timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
		defer timer.ObserveDuration()
	}

	published := 0
	err := p.store.WithTx(ctx, func(tx repository.Store) error {
		events, err := tx.Outbox().GetPending(ctx, p.config.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to get pending events: %w", err)
		}

		for _, event := range events {
			ok, err := p.processEvent(ctx, tx.Outbox(), event)
			if err != nil {
				return err
			}
			if ok {
				published++
			}
		}
		return nil
	})
	return published, err
}

func (p *OutboxProcessor) processEvent(ctx context.Context, outbox repository.OutboxRepository, event *model.OutboxEvent) (bool, error) {
	log := p.logger.With().
		Str("event_id", event.ID.String()).
		Str("event_type", event.EventType).
		Logger()

	pubErr := p.broker.Publish(ctx, messaging.Channel(event.EventType), event.Payload)
	if pubErr == nil {
		if err := outbox.MarkProcessed(ctx, event.ID); err != nil {
			return false, fmt.Errorf("failed to mark event %s processed: %w", event.ID, err)
		}
		if p.metrics != nil {
			p.metrics.OutboxEventsProcessed.Inc()
		}
		return true, nil
	}

	final := event.RetryCount+1 >= p.config.MaxRetries
	if err := outbox.MarkFailed(ctx, event.ID, pubErr.Error(), final); err != nil {
		return false, fmt.Errorf("failed to mark event %s failed: %w", event.ID, err)
	}
	if p.metrics != nil {
		p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
		if final {
			p.metrics.OutboxEventsFailed.Inc()
		}
	}

	if final {
		log.Error().Err(pubErr).Int("attempts", event.RetryCount+1).Msg("giving up on outbox event")
	} else {
		log.Warn().Err(pubErr).Int("attempts", event.RetryCount+1).Msg("failed to publish outbox event")
	}
	return false, nil
}
