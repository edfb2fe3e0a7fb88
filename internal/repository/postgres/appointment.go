package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/repository"
)

const appointmentColumns = `a.id, a.patient_id, a.slot_id, a.status, a.type, a.patient_notes, a.doctor_notes, a.created_at, a.updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, slot_id, status, type,
			patient_notes, doctor_notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if appointment.ID == uuid.Nil {
		appointment.ID = uuid.New()
	}
	appointment.CreatedAt = now()
	appointment.UpdatedAt = appointment.CreatedAt

	_, err := r.q.ExecContext(ctx, query,
		appointment.ID,
		appointment.PatientID,
		appointment.SlotID,
		appointment.Status,
		appointment.Type,
		appointment.PatientNotes,
		appointment.DoctorNotes,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	return mapError("create appointment", err)
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var appointment model.Appointment
	query := `SELECT ` + appointmentColumns + ` FROM appointments a WHERE a.id = $1`
	if err := sqlxGet(ctx, r.q, &appointment, query, id); err != nil {
		return nil, mapError("get appointment", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	query := `UPDATE appointments SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.q.ExecContext(ctx, query, status, now(), id)
	if err != nil {
		return mapError("update appointment status", err)
	}
	return expectOne("update appointment status", result, repository.ErrNotFound)
}

func (r *appointmentRepository) UpdateDoctorNotes(ctx context.Context, id uuid.UUID, notes *string) error {
	query := `UPDATE appointments SET doctor_notes = $1, updated_at = $2 WHERE id = $3`
	result, err := r.q.ExecContext(ctx, query, notes, now(), id)
	if err != nil {
		return mapError("update doctor notes", err)
	}
	return expectOne("update doctor notes", result, repository.ErrNotFound)
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments a
		JOIN appointment_slots s ON s.id = a.slot_id
		WHERE a.patient_id = $1
		ORDER BY s.start_time DESC
	`
	var appointments []*model.Appointment
	if err := sqlxSelect(ctx, r.q, &appointments, query, patientID); err != nil {
		return nil, mapError("list patient appointments", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments a
		JOIN appointment_slots s ON s.id = a.slot_id
		WHERE s.doctor_id = $1
		ORDER BY s.start_time DESC
	`
	var appointments []*model.Appointment
	if err := sqlxSelect(ctx, r.q, &appointments, query, doctorID); err != nil {
		return nil, mapError("list doctor appointments", err)
	}
	return appointments, nil
}
