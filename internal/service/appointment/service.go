// Package appointment is the booking engine: slot lifecycle, online and
// walk-in booking, and appointment status and notes. Every operation runs
// in one store transaction and takes the caller explicitly.
package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/repository"
	"github.com/jwalitptl/ehr-booking/internal/service/event"
	"github.com/jwalitptl/ehr-booking/internal/service/rbac"
	apperrors "github.com/jwalitptl/ehr-booking/pkg/errors"
	"github.com/jwalitptl/ehr-booking/pkg/lock"
	"github.com/jwalitptl/ehr-booking/pkg/metrics"
	"github.com/jwalitptl/ehr-booking/pkg/security"
)

const msgSlotNotAvailable = "Appointment slot is not available."

type Config struct {
	// WalkInPlaceholderPassword is hashed onto accounts created at the front desk.
	WalkInPlaceholderPassword string
	// DefaultWindowDays bounds slot listings when no end is given.
	DefaultWindowDays int
}

type Service struct {
	store   repository.Store
	hasher  security.PasswordHasher
	locker  lock.SlotLocker
	metrics *metrics.Metrics
	logger  zerolog.Logger
	cfg     Config
	now     func() time.Time
}

func NewService(
	store repository.Store,
	hasher security.PasswordHasher,
	locker lock.SlotLocker,
	m *metrics.Metrics,
	logger zerolog.Logger,
	cfg Config,
) *Service {
	if locker == nil {
		locker = lock.NoopSlotLocker()
	}
	if cfg.DefaultWindowDays <= 0 {
		cfg.DefaultWindowDays = 30
	}
	return &Service{
		store:   store,
		hasher:  hasher,
		locker:  locker,
		metrics: m,
		logger:  logger.With().Str("component", "booking").Logger(),
		cfg:     cfg,
		now:     time.Now,
	}
}

func (s *Service) CreateSlot(ctx context.Context, caller model.Caller, req model.CreateSlotRequest) (*model.SlotView, error) {
	var view *model.SlotView
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		doctor, err := s.loadDoctor(ctx, tx, req.DoctorID)
		if err != nil {
			return err
		}
		if !rbac.CanCreateSlot(caller, doctor.ID) {
			return s.deny("create_slot", "Doctors can only create slots for themselves.")
		}

		slot := &model.Slot{
			DoctorID:  doctor.ID,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
			Status:    model.SlotStatusAvailable,
		}
		if err := slot.Validate(); err != nil {
			return apperrors.InvalidArgument("Start time must be before end time.", err)
		}
		if err := tx.Slots().Create(ctx, slot); err != nil {
			return storeError(err)
		}
		if err := event.Append(ctx, tx.Outbox(), model.EventSlotCreated, slot.ID, caller, event.NewSlotPayload(slot)); err != nil {
			return apperrors.Internal(err)
		}

		view = model.NewSlotView(slot, doctor)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SlotCreated()
	s.logger.Info().Str("slot_id", view.ID.String()).Str("doctor_id", view.DoctorID.String()).Msg("slot created")
	return view, nil
}

// UpdateSlot reschedules a slot nobody has booked yet.
func (s *Service) UpdateSlot(ctx context.Context, caller model.Caller, slotID uuid.UUID, req model.UpdateSlotRequest) (*model.SlotView, error) {
	var view *model.SlotView
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		slot, err := loadSlot(ctx, tx, slotID)
		if err != nil {
			return err
		}
		if !rbac.CanManageSlot(caller, slot) {
			return s.deny("update_slot", "Doctors can only change their own slots.")
		}
		if slot.Status != model.SlotStatusAvailable {
			return apperrors.InvalidState("Only available slots can be rescheduled.", nil)
		}

		slot.StartTime, slot.EndTime = req.StartTime, req.EndTime
		if err := slot.Validate(); err != nil {
			return apperrors.InvalidArgument("Start time must be before end time.", err)
		}
		if err := tx.Slots().UpdateWindow(ctx, slot); err != nil {
			return storeError(err)
		}
		if err := event.Append(ctx, tx.Outbox(), model.EventSlotUpdated, slot.ID, caller, event.NewSlotPayload(slot)); err != nil {
			return apperrors.Internal(err)
		}

		doctor, err := optionalStaff(ctx, tx, slot.DoctorID)
		if err != nil {
			return err
		}
		view = model.NewSlotView(slot, doctor)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// CancelSlot withdraws an AVAILABLE slot. Booked slots are cancelled through
// their appointment instead.
func (s *Service) CancelSlot(ctx context.Context, caller model.Caller, slotID uuid.UUID) (*model.SlotView, error) {
	var view *model.SlotView
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		slot, err := loadSlot(ctx, tx, slotID)
		if err != nil {
			return err
		}
		if !rbac.CanManageSlot(caller, slot) {
			return s.deny("cancel_slot", "Doctors can only change their own slots.")
		}

		err = tx.Slots().CompareAndSetStatus(ctx, slot.ID, model.SlotStatusAvailable, model.SlotStatusCancelled)
		if errors.Is(err, repository.ErrSlotUnavailable) {
			return apperrors.InvalidState("Only available slots can be cancelled.", err)
		}
		if err != nil {
			return storeError(err)
		}
		slot.Status = model.SlotStatusCancelled
		if err := event.Append(ctx, tx.Outbox(), model.EventSlotCancelled, slot.ID, caller, event.NewSlotPayload(slot)); err != nil {
			return apperrors.Internal(err)
		}

		doctor, err := optionalStaff(ctx, tx, slot.DoctorID)
		if err != nil {
			return err
		}
		view = model.NewSlotView(slot, doctor)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// BookOnline books slotID for the caller's own patient profile.
func (s *Service) BookOnline(ctx context.Context, caller model.Caller, req model.BookAppointmentRequest) (*model.AppointmentView, error) {
	if !rbac.CanBookOnline(caller) {
		if caller.IsPatientAccount() {
			return nil, s.deny("book_online", "Authenticated user does not have a patient profile.")
		}
		return nil, s.deny("book_online", "Action requires a patient account.")
	}

	var view *model.AppointmentView
	err := s.withSlotLock(ctx, req.SlotID, func(ctx context.Context) error {
		return s.store.WithTx(ctx, func(tx repository.Store) error {
			var err error
			view, err = s.book(ctx, tx, caller, caller.PatientID, req.SlotID, req.Notes, model.AppointmentTypeOnline)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.booked(view)
	return view, nil
}

// BookWalkIn registers a new patient and books them in one step. The caller
// must already have passed rbac.CanBookWalkIn.
func (s *Service) BookWalkIn(ctx context.Context, caller model.Caller, req model.WalkInRequest) (*model.AppointmentView, error) {
	hash, err := s.hasher.Hash(s.cfg.WalkInPlaceholderPassword)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to hash placeholder password: %w", err))
	}

	email, phone := model.NormalizeEmail(req.Email), strings.TrimSpace(req.Phone)

	var view *model.AppointmentView
	err = s.withSlotLock(ctx, req.SlotID, func(ctx context.Context) error {
		return s.store.WithTx(ctx, func(tx repository.Store) error {
			if email != "" {
				exists, err := tx.Accounts().ExistsByEmail(ctx, email)
				if err != nil {
					return apperrors.Internal(err)
				}
				if exists {
					return apperrors.InvalidArgument("An account with this email already exists.", nil)
				}
			}
			exists, err := tx.Accounts().ExistsByPhone(ctx, phone)
			if err != nil {
				return apperrors.Internal(err)
			}
			if exists {
				return apperrors.InvalidArgument("An account with this phone number already exists.", nil)
			}

			account := &model.Account{
				Email:        model.StringPtr(email),
				Phone:        model.StringPtr(phone),
				PasswordHash: hash,
				FirstName:    req.FirstName,
				LastName:     req.LastName,
				Role:         model.AccountRoleUser,
				Active:       true,
				Verified:     true,
			}
			if err := tx.Accounts().Create(ctx, account); err != nil {
				if errors.Is(err, repository.ErrDuplicate) {
					return apperrors.InvalidArgument("An account with this email or phone number already exists.", err)
				}
				return apperrors.Internal(err)
			}

			patient := &model.Patient{AccountID: account.ID}
			req.Demographics().Apply(patient)
			if err := tx.Patients().Create(ctx, patient); err != nil {
				return apperrors.Internal(err)
			}
			if err := event.Append(ctx, tx.Outbox(), model.EventAccountRegistered, account.ID, caller, event.AccountPayload{
				AccountID: account.ID,
				PatientID: patient.ID,
				Channel:   "walk_in",
			}); err != nil {
				return apperrors.Internal(err)
			}

			view, err = s.book(ctx, tx, caller, patient.ID, req.SlotID, req.Notes, model.AppointmentTypeWalkIn)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.booked(view)
	return view, nil
}

// book moves the slot AVAILABLE->BOOKED and creates the appointment. The
// compare-and-set decides the winner when two requests race for one slot.
func (s *Service) book(ctx context.Context, tx repository.Store, caller model.Caller, patientID, slotID uuid.UUID, notes string, typ model.AppointmentType) (*model.AppointmentView, error) {
	slot, err := loadSlot(ctx, tx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.Status != model.SlotStatusAvailable {
		s.metrics.Conflict()
		return nil, apperrors.InvalidState(msgSlotNotAvailable, nil)
	}
	if err := tx.Slots().CompareAndSetStatus(ctx, slot.ID, model.SlotStatusAvailable, model.SlotStatusBooked); err != nil {
		if errors.Is(err, repository.ErrSlotUnavailable) {
			s.metrics.Conflict()
		}
		return nil, storeError(err)
	}
	slot.Status = model.SlotStatusBooked

	appt := &model.Appointment{
		PatientID:    patientID,
		SlotID:       slot.ID,
		Status:       model.AppointmentStatusScheduled,
		Type:         typ,
		PatientNotes: model.StringPtr(notes),
	}
	if err := tx.Appointments().Create(ctx, appt); err != nil {
		return nil, storeError(err)
	}
	if err := event.Append(ctx, tx.Outbox(), model.EventAppointmentBooked, appt.ID, caller, event.AppointmentPayload{
		AppointmentID: appt.ID,
		SlotID:        slot.ID,
		PatientID:     patientID,
		Type:          typ,
		Status:        appt.Status,
	}); err != nil {
		return nil, apperrors.Internal(err)
	}

	return newViewLoader(tx).view(ctx, appt, slot)
}

func (s *Service) booked(view *model.AppointmentView) {
	s.metrics.Booked(string(view.Type))
	s.logger.Info().
		Str("appointment_id", view.ID.String()).
		Str("slot_id", view.SlotID.String()).
		Str("type", string(view.Type)).
		Msg("appointment booked")
}

// withSlotLock runs fn under the per-slot lock. A lock backend outage only
// costs the fast path; the store still serializes the booking.
func (s *Service) withSlotLock(ctx context.Context, slotID uuid.UUID, fn func(ctx context.Context) error) error {
	ran := false
	err := s.locker.WithSlotLock(ctx, slotID, func(ctx context.Context) error {
		ran = true
		return fn(ctx)
	})
	switch {
	case ran:
		return err
	case errors.Is(err, lock.ErrLockNotAcquired):
		s.metrics.Conflict()
		return apperrors.InvalidState(msgSlotNotAvailable, err)
	case errors.Is(err, lock.ErrLockUnavailable):
		s.logger.Warn().Err(err).Str("slot_id", slotID.String()).Msg("booking without slot lock")
		return fn(ctx)
	}
	return err
}

// GetAvailableSlots lists AVAILABLE slots starting in [from, to). A nil from
// means the start of today and a nil to means DefaultWindowDays after from.
func (s *Service) GetAvailableSlots(ctx context.Context, from, to *time.Time) ([]*model.SlotView, error) {
	r, err := s.window(from, to)
	if err != nil {
		return nil, err
	}

	var views []*model.SlotView
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		slots, err := tx.Slots().ListByStatusInRange(ctx, model.SlotStatusAvailable, r)
		if err != nil {
			return apperrors.Internal(err)
		}
		views, err = newViewLoader(tx).slotViews(ctx, slots)
		return err
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *Service) GetDoctorSlots(ctx context.Context, caller model.Caller, doctorID uuid.UUID, from, to *time.Time) ([]*model.SlotView, error) {
	if !rbac.CanViewDoctorSlots(caller, doctorID) {
		return nil, s.deny("view_doctor_slots", "Doctors can only view their own slots.")
	}
	r, err := s.window(from, to)
	if err != nil {
		return nil, err
	}

	var views []*model.SlotView
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		doctor, err := s.loadDoctor(ctx, tx, doctorID)
		if err != nil {
			return err
		}
		slots, err := tx.Slots().ListByDoctorInRange(ctx, doctor.ID, r)
		if err != nil {
			return apperrors.Internal(err)
		}
		views = make([]*model.SlotView, 0, len(slots))
		for _, slot := range slots {
			views = append(views, model.NewSlotView(slot, doctor))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *Service) window(from, to *time.Time) (model.TimeRange, error) {
	var r model.TimeRange
	if from != nil {
		r.From = *from
	} else {
		now := s.now()
		r.From = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
	if to != nil {
		r.To = *to
	} else {
		r.To = r.From.AddDate(0, 0, s.cfg.DefaultWindowDays)
	}
	if !r.From.Before(r.To) {
		return r, apperrors.InvalidArgument("The 'from' time must be before the 'to' time.", nil)
	}
	return r, nil
}

// GetPatientAppointments lists a patient's appointments, newest slot first.
func (s *Service) GetPatientAppointments(ctx context.Context, caller model.Caller, patientID uuid.UUID) ([]*model.AppointmentView, error) {
	if !rbac.CanViewPatientAppointments(caller, patientID) {
		return nil, s.deny("view_patient_appointments", "Patients can only view their own appointments.")
	}

	var views []*model.AppointmentView
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Patients().Get(ctx, patientID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFound(fmt.Sprintf("Patient not found with ID: %s", patientID))
			}
			return apperrors.Internal(err)
		}
		appts, err := tx.Appointments().ListByPatient(ctx, patientID)
		if err != nil {
			return apperrors.Internal(err)
		}
		views, err = newViewLoader(tx).views(ctx, appts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// GetDoctorAppointments lists appointments on a doctor's slots, newest slot first.
func (s *Service) GetDoctorAppointments(ctx context.Context, caller model.Caller, doctorID uuid.UUID) ([]*model.AppointmentView, error) {
	if !rbac.CanViewDoctorAppointments(caller, doctorID) {
		return nil, s.deny("view_doctor_appointments", "Doctors can only view their own appointments.")
	}

	var views []*model.AppointmentView
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := s.loadDoctor(ctx, tx, doctorID); err != nil {
			return err
		}
		appts, err := tx.Appointments().ListByDoctor(ctx, doctorID)
		if err != nil {
			return apperrors.Internal(err)
		}
		views, err = newViewLoader(tx).views(ctx, appts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *Service) GetAppointment(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.AppointmentView, error) {
	var view *model.AppointmentView
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		appt, err := loadAppointment(ctx, tx, id)
		if err != nil {
			return err
		}
		if !rbac.CanViewAppointment(caller, appt) {
			return s.deny("view_appointment", "Patients can only view their own appointments.")
		}
		view, err = newViewLoader(tx).view(ctx, appt, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// UpdateAppointmentStatus sets any status from any status. Cancelling
// releases the slot when it has not started yet; a slot in the past stays
// BOOKED as history. Reviving a cancelled appointment re-books its slot and
// fails if someone else holds it.
func (s *Service) UpdateAppointmentStatus(ctx context.Context, caller model.Caller, id uuid.UUID, status model.AppointmentStatus) (*model.AppointmentView, error) {
	if !status.Valid() {
		return nil, apperrors.InvalidArgument(fmt.Sprintf("Invalid appointment status: %s", status), nil)
	}

	var (
		view     *model.AppointmentView
		previous model.AppointmentStatus
	)
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		appt, err := loadAppointment(ctx, tx, id)
		if err != nil {
			return err
		}
		slot, err := loadSlot(ctx, tx, appt.SlotID)
		if err != nil {
			return err
		}
		if !rbac.CanUpdateAppointmentStatus(caller, slot) {
			return s.deny("update_appointment_status", "Only the appointment's doctor or an admin can change its status.")
		}

		previous = appt.Status
		released := false
		switch {
		case status == model.AppointmentStatusCancelled && previous != model.AppointmentStatusCancelled:
			if slot.StartsAfter(s.now()) {
				if err := tx.Slots().CompareAndSetStatus(ctx, slot.ID, model.SlotStatusBooked, model.SlotStatusAvailable); err != nil {
					return storeError(err)
				}
				slot.Status = model.SlotStatusAvailable
				released = true
			}
		case status != model.AppointmentStatusCancelled && previous == model.AppointmentStatusCancelled:
			if slot.Status == model.SlotStatusAvailable {
				if err := tx.Slots().CompareAndSetStatus(ctx, slot.ID, model.SlotStatusAvailable, model.SlotStatusBooked); err != nil {
					return storeError(err)
				}
				slot.Status = model.SlotStatusBooked
			} else if slot.Status == model.SlotStatusCancelled {
				return apperrors.InvalidState(msgSlotNotAvailable, nil)
			}
		}

		if err := tx.Appointments().UpdateStatus(ctx, appt.ID, status); err != nil {
			return storeError(err)
		}
		if appt, err = loadAppointment(ctx, tx, id); err != nil {
			return err
		}

		if err := event.Append(ctx, tx.Outbox(), model.EventAppointmentStatusChanged, appt.ID, caller, event.AppointmentPayload{
			AppointmentID: appt.ID,
			SlotID:        slot.ID,
			PatientID:     appt.PatientID,
			Status:        status,
			PreviousState: previous,
			SlotReleased:  released,
		}); err != nil {
			return apperrors.Internal(err)
		}

		view, err = newViewLoader(tx).view(ctx, appt, slot)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(previous), string(status))
	s.logger.Info().
		Str("appointment_id", id.String()).
		Str("from", string(previous)).
		Str("to", string(status)).
		Msg("appointment status changed")
	return view, nil
}

// AddDoctorNotes overwrites the doctor's notes. No history is kept.
func (s *Service) AddDoctorNotes(ctx context.Context, caller model.Caller, id uuid.UUID, notes string) (*model.AppointmentView, error) {
	var view *model.AppointmentView
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		appt, err := loadAppointment(ctx, tx, id)
		if err != nil {
			return err
		}
		slot, err := loadSlot(ctx, tx, appt.SlotID)
		if err != nil {
			return err
		}
		if !rbac.CanAddDoctorNotes(caller, slot) {
			return s.deny("add_doctor_notes", "Only the appointment's doctor or an admin can add notes.")
		}

		appt.DoctorNotes = model.StringPtr(notes)
		if err := tx.Appointments().UpdateDoctorNotes(ctx, appt.ID, appt.DoctorNotes); err != nil {
			return storeError(err)
		}
		if err := event.Append(ctx, tx.Outbox(), model.EventAppointmentNotesAdded, appt.ID, caller, event.AppointmentPayload{
			AppointmentID: appt.ID,
			SlotID:        slot.ID,
			PatientID:     appt.PatientID,
			Status:        appt.Status,
		}); err != nil {
			return apperrors.Internal(err)
		}

		view, err = newViewLoader(tx).view(ctx, appt, slot)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *Service) deny(operation, reason string) error {
	s.metrics.Denied(operation)
	return apperrors.Unauthorized(reason)
}

func (s *Service) loadDoctor(ctx context.Context, tx repository.Store, id uuid.UUID) (*model.Staff, error) {
	doctor, err := tx.Staff().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound(fmt.Sprintf("Doctor not found with ID: %s", id))
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !doctor.IsDoctor() {
		return nil, apperrors.InvalidArgument(fmt.Sprintf("Staff with ID %s is not a doctor.", id), nil)
	}
	return doctor, nil
}

func loadSlot(ctx context.Context, tx repository.Store, id uuid.UUID) (*model.Slot, error) {
	slot, err := tx.Slots().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound(fmt.Sprintf("Appointment slot not found with ID: %s", id))
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return slot, nil
}

func loadAppointment(ctx context.Context, tx repository.Store, id uuid.UUID) (*model.Appointment, error) {
	appt, err := tx.Appointments().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound(fmt.Sprintf("Appointment not found with ID: %s", id))
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return appt, nil
}

// optionalStaff returns nil when the staff row is gone.
func optionalStaff(ctx context.Context, tx repository.Store, id uuid.UUID) (*model.Staff, error) {
	st, err := tx.Staff().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return st, nil
}

// storeError maps repository sentinels onto the service error taxonomy.
func storeError(err error) error {
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrSlotUnavailable), errors.Is(err, repository.ErrDuplicate):
		return apperrors.InvalidState(msgSlotNotAvailable, err)
	case errors.Is(err, repository.ErrDoctorRoleRequired):
		return apperrors.InvalidArgument("Slots can only belong to a doctor.", err)
	case errors.Is(err, model.ErrInvalidSlotWindow):
		return apperrors.InvalidArgument("Start time must be before end time.", err)
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("Referenced record does not exist.")
	}
	return apperrors.Internal(err)
}
