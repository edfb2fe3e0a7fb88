package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/repository"
)

const slotColumns = `id, doctor_id, start_time, end_time, status, created_at, updated_at`

func (r *slotRepository) Create(ctx context.Context, slot *model.Slot) error {
	query := `
		INSERT INTO appointment_slots (` + slotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	slot.CreatedAt = now()
	slot.UpdatedAt = slot.CreatedAt

	_, err := r.q.ExecContext(ctx, query,
		slot.ID,
		slot.DoctorID,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	return mapError("create slot", err)
}

func (r *slotRepository) Get(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	var slot model.Slot
	query := `SELECT ` + slotColumns + ` FROM appointment_slots WHERE id = $1`
	if err := sqlxGet(ctx, r.q, &slot, query, id); err != nil {
		return nil, mapError("get slot", err)
	}
	return &slot, nil
}

func (r *slotRepository) UpdateWindow(ctx context.Context, slot *model.Slot) error {
	query := `
		UPDATE appointment_slots
		SET start_time = $1, end_time = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	slot.UpdatedAt = now()

	result, err := r.q.ExecContext(ctx, query, slot.StartTime, slot.EndTime, slot.UpdatedAt, slot.ID, model.SlotStatusAvailable)
	if err != nil {
		return mapError("update slot", err)
	}
	return expectOne("update slot", result, repository.ErrSlotUnavailable)
}

// CompareAndSetStatus is a conditional update. Under read committed a
// concurrent writer blocks on the row lock and then re-evaluates the status
// predicate, so exactly one AVAILABLE->BOOKED transition can win.
func (r *slotRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to model.SlotStatus) error {
	query := `
		UPDATE appointment_slots
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.q.ExecContext(ctx, query, to, now(), id, from)
	if err != nil {
		return mapError("update slot status", err)
	}
	return expectOne("update slot status", result, repository.ErrSlotUnavailable)
}

func (r *slotRepository) ListByStatusInRange(ctx context.Context, status model.SlotStatus, tr model.TimeRange) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM appointment_slots
		WHERE status = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time ASC
	`
	var slots []*model.Slot
	if err := sqlxSelect(ctx, r.q, &slots, query, status, tr.From, tr.To); err != nil {
		return nil, mapError("list slots", err)
	}
	return slots, nil
}

func (r *slotRepository) ListByDoctorInRange(ctx context.Context, doctorID uuid.UUID, tr model.TimeRange) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM appointment_slots
		WHERE doctor_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time ASC
	`
	var slots []*model.Slot
	if err := sqlxSelect(ctx, r.q, &slots, query, doctorID, tr.From, tr.To); err != nil {
		return nil, mapError("list doctor slots", err)
	}
	return slots, nil
}
