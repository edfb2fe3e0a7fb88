package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/ehr-booking/internal/model"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrSlotUnavailable is returned when a slot status compare-and-set loses.
	ErrSlotUnavailable = errors.New("slot status changed concurrently")
	// ErrDoctorRoleRequired is returned when a slot would be bound to a non-doctor.
	ErrDoctorRoleRequired = errors.New("slot owner must be a doctor")
	// ErrDuplicate is returned on a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
)

type (
	AccountRepository interface {
		Create(ctx context.Context, account *model.Account) error
		Get(ctx context.Context, id uuid.UUID) (*model.Account, error)
		GetByEmail(ctx context.Context, email string) (*model.Account, error)
		GetByPhone(ctx context.Context, phone string) (*model.Account, error)
		GetByEmailOrPhone(ctx context.Context, identifier string) (*model.Account, error)
		ExistsByEmail(ctx context.Context, email string) (bool, error)
		ExistsByPhone(ctx context.Context, phone string) (bool, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByAccount(ctx context.Context, accountID uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
	}

	StaffRepository interface {
		Create(ctx context.Context, staff *model.Staff) error
		Get(ctx context.Context, id uuid.UUID) (*model.Staff, error)
		GetByWorkID(ctx context.Context, workID string) (*model.Staff, error)
		ExistsByWorkID(ctx context.Context, workID string) (bool, error)
		ListByRole(ctx context.Context, role model.StaffRole) ([]*model.Staff, error)
	}

	SlotRepository interface {
		Create(ctx context.Context, slot *model.Slot) error
		Get(ctx context.Context, id uuid.UUID) (*model.Slot, error)
		// UpdateWindow reschedules a slot that is still AVAILABLE and
		// returns ErrSlotUnavailable otherwise.
		UpdateWindow(ctx context.Context, slot *model.Slot) error
		// CompareAndSetStatus moves a slot from one status to another and
		// returns ErrSlotUnavailable when the slot is not in status from.
		CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to model.SlotStatus) error
		ListByStatusInRange(ctx context.Context, status model.SlotStatus, r model.TimeRange) ([]*model.Slot, error)
		ListByDoctorInRange(ctx context.Context, doctorID uuid.UUID, r model.TimeRange) ([]*model.Slot, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
		UpdateDoctorNotes(ctx context.Context, id uuid.UUID, notes *string) error
		// ListByPatient and ListByDoctor order newest first by slot start.
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, final bool) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	// Store groups the repositories. Repositories obtained from the Store
	// passed to a WithTx callback run inside that transaction.
	Store interface {
		Accounts() AccountRepository
		Patients() PatientRepository
		Staff() StaffRepository
		Slots() SlotRepository
		Appointments() AppointmentRepository
		Outbox() OutboxRepository
		WithTx(ctx context.Context, fn func(tx Store) error) error
		Ping(ctx context.Context) error
	}
)
