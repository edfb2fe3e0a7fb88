// Package event appends domain events to the transactional outbox.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/repository"
)

// Append writes one pending event through outbox. Pass the repository of the
// transaction that made the change so the event commits with it.
func Append(ctx context.Context, outbox repository.OutboxRepository, eventType string, aggregateID uuid.UUID, actor model.Caller, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	e := &model.OutboxEvent{
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     body,
	}
	if id := actor.ActorID(); id != uuid.Nil {
		e.ActorID = &id
	}

	if err := outbox.Create(ctx, e); err != nil {
		return fmt.Errorf("failed to append %s event: %w", eventType, err)
	}
	return nil
}

// Payloads carry ids and state only, never demographics.
type (
	SlotPayload struct {
		SlotID    uuid.UUID        `json:"slot_id"`
		DoctorID  uuid.UUID        `json:"doctor_id"`
		Status    model.SlotStatus `json:"status"`
		StartTime string           `json:"start_time"`
		EndTime   string           `json:"end_time"`
	}

	AppointmentPayload struct {
		AppointmentID uuid.UUID               `json:"appointment_id"`
		SlotID        uuid.UUID               `json:"slot_id"`
		PatientID     uuid.UUID               `json:"patient_id"`
		Type          model.AppointmentType   `json:"type,omitempty"`
		Status        model.AppointmentStatus `json:"status"`
		PreviousState model.AppointmentStatus `json:"previous_status,omitempty"`
		SlotReleased  bool                    `json:"slot_released,omitempty"`
	}

	AccountPayload struct {
		AccountID uuid.UUID `json:"account_id"`
		PatientID uuid.UUID `json:"patient_id"`
		Channel   string    `json:"channel"`
	}

	StaffPayload struct {
		StaffID uuid.UUID       `json:"staff_id"`
		WorkID  string          `json:"work_id"`
		Role    model.StaffRole `json:"role"`
	}
)

func NewSlotPayload(s *model.Slot) SlotPayload {
	return SlotPayload{
		SlotID:    s.ID,
		DoctorID:  s.DoctorID,
		Status:    s.Status,
		StartTime: s.StartTime.UTC().Format(time.RFC3339),
		EndTime:   s.EndTime.UTC().Format(time.RFC3339),
	}
}
