package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/ehr-booking/internal/repository"
)

type accountRepository struct {
	q sqlx.ExtContext
}

type patientRepository struct {
	q sqlx.ExtContext
}

type staffRepository struct {
	q sqlx.ExtContext
}

type slotRepository struct {
	q sqlx.ExtContext
}

type appointmentRepository struct {
	q sqlx.ExtContext
}

type outboxRepository struct {
	q sqlx.ExtContext
}

func (s *Store) Accounts() repository.AccountRepository {
	return &accountRepository{q: s.q}
}

func (s *Store) Patients() repository.PatientRepository {
	return &patientRepository{q: s.q}
}

func (s *Store) Staff() repository.StaffRepository {
	return &staffRepository{q: s.q}
}

func (s *Store) Slots() repository.SlotRepository {
	return &slotRepository{q: s.q}
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return &appointmentRepository{q: s.q}
}

func (s *Store) Outbox() repository.OutboxRepository {
	return &outboxRepository{q: s.q}
}
