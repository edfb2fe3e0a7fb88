package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/repository"
	apperrors "github.com/jwalitptl/ehr-booking/pkg/errors"
)

// viewLoader eagerly loads the graph an AppointmentView needs, memoizing
// doctors and patient accounts across one listing.
type viewLoader struct {
	tx       repository.Store
	doctors  map[uuid.UUID]*model.Staff
	accounts map[uuid.UUID]*model.Account
}

func newViewLoader(tx repository.Store) *viewLoader {
	return &viewLoader{
		tx:       tx,
		doctors:  make(map[uuid.UUID]*model.Staff),
		accounts: make(map[uuid.UUID]*model.Account),
	}
}

func (l *viewLoader) doctor(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	if d, ok := l.doctors[id]; ok {
		return d, nil
	}
	d, err := optionalStaff(ctx, l.tx, id)
	if err != nil {
		return nil, err
	}
	l.doctors[id] = d
	return d, nil
}

// account resolves the account owning patientID, or nil if either row is gone.
func (l *viewLoader) account(ctx context.Context, patientID uuid.UUID) (*model.Account, error) {
	if a, ok := l.accounts[patientID]; ok {
		return a, nil
	}

	var account *model.Account
	patient, err := l.tx.Patients().Get(ctx, patientID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, apperrors.Internal(err)
	default:
		account, err = l.tx.Accounts().Get(ctx, patient.AccountID)
		if errors.Is(err, repository.ErrNotFound) {
			account = nil
		} else if err != nil {
			return nil, apperrors.Internal(err)
		}
	}
	l.accounts[patientID] = account
	return account, nil
}

// view maps one appointment. slot may be nil, in which case it is loaded.
func (l *viewLoader) view(ctx context.Context, appt *model.Appointment, slot *model.Slot) (*model.AppointmentView, error) {
	if slot == nil {
		var err error
		if slot, err = loadSlot(ctx, l.tx, appt.SlotID); err != nil {
			return nil, err
		}
	}
	doctor, err := l.doctor(ctx, slot.DoctorID)
	if err != nil {
		return nil, err
	}
	account, err := l.account(ctx, appt.PatientID)
	if err != nil {
		return nil, err
	}
	return model.NewAppointmentView(appt, slot, doctor, account), nil
}

func (l *viewLoader) views(ctx context.Context, appts []*model.Appointment) ([]*model.AppointmentView, error) {
	out := make([]*model.AppointmentView, 0, len(appts))
	for _, a := range appts {
		v, err := l.view(ctx, a, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (l *viewLoader) slotViews(ctx context.Context, slots []*model.Slot) ([]*model.SlotView, error) {
	out := make([]*model.SlotView, 0, len(slots))
	for _, s := range slots {
		doctor, err := l.doctor(ctx, s.DoctorID)
		if err != nil {
			return nil, err
		}
		out = append(out, model.NewSlotView(s, doctor))
	}
	return out, nil
}
