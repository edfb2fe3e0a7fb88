package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/repository"
)

const outboxColumns = `id, event_type, aggregate_id, actor_id, payload, status, error_message, retry_count, created_at, updated_at, processed_at`

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	query := `
		INSERT INTO outbox_events (
			id, event_type, aggregate_id, actor_id, payload, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.Status = model.OutboxStatusPending
	event.CreatedAt = now()
	event.UpdatedAt = event.CreatedAt

	// lib/pq sends []byte as bytea, so the JSONB payload goes over as text.
	_, err := r.q.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.AggregateID,
		event.ActorID,
		string(event.Payload),
		event.Status,
		event.CreatedAt,
		event.UpdatedAt,
	)
	return mapError("create outbox event", err)
}

// GetPending locks the returned rows when called inside a transaction so
// concurrent workers skip each other's batches.
func (r *outboxRepository) GetPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := `
		SELECT ` + outboxColumns + `
		FROM outbox_events
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`
	var events []*model.OutboxEvent
	if err := sqlxSelect(ctx, r.q, &events, query, model.OutboxStatusPending, limit); err != nil {
		return nil, mapError("get pending events", err)
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE outbox_events
		SET status = $1, processed_at = $2, updated_at = $2
		WHERE id = $3
	`
	result, err := r.q.ExecContext(ctx, query, model.OutboxStatusProcessed, now(), id)
	if err != nil {
		return mapError("mark event processed", err)
	}
	return expectOne("mark event processed", result, repository.ErrNotFound)
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, final bool) error {
	status := model.OutboxStatusPending
	if final {
		status = model.OutboxStatusFailed
	}
	query := `
		UPDATE outbox_events
		SET status = $1, error_message = $2, retry_count = retry_count + 1, updated_at = $3
		WHERE id = $4
	`
	result, err := r.q.ExecContext(ctx, query, status, errMsg, now(), id)
	if err != nil {
		return mapError("mark event failed", err)
	}
	return expectOne("mark event failed", result, repository.ErrNotFound)
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM outbox_events
		WHERE status = $1
		AND processed_at < $2
	`
	result, err := r.q.ExecContext(ctx, query, model.OutboxStatusProcessed, before)
	if err != nil {
		return 0, mapError("delete processed events", err)
	}
	return result.RowsAffected()
}
