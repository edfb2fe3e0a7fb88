package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/repository"
	"github.com/jwalitptl/ehr-booking/internal/service/rbac"
	apperrors "github.com/jwalitptl/ehr-booking/pkg/errors"
)

// Service reads and edits patient profiles.
type Service struct {
	store repository.Store
}

func NewService(store repository.Store) *Service {
	return &Service{store: store}
}

func (s *Service) GetPatient(ctx context.Context, caller model.Caller, id uuid.UUID) (*model.PatientView, error) {
	if !rbac.CanViewPatient(caller, id) {
		return nil, apperrors.Unauthorized("Patients can only view their own profile.")
	}
	var view *model.PatientView
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		p, err := loadPatient(ctx, tx, id)
		if err != nil {
			return err
		}
		view, err = withAccount(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// GetMyPatient returns the profile linked to the caller's account.
func (s *Service) GetMyPatient(ctx context.Context, caller model.Caller) (*model.PatientView, error) {
	if !caller.IsPatientAccount() {
		return nil, apperrors.Unauthorized("Action requires a patient account.")
	}
	if !caller.HasPatientProfile() {
		return nil, apperrors.Unauthorized("Authenticated user does not have a patient profile.")
	}
	return s.GetPatient(ctx, caller, caller.PatientID)
}

// UpdatePatient replaces the demographic fields of a profile.
func (s *Service) UpdatePatient(ctx context.Context, caller model.Caller, id uuid.UUID, req model.UpdatePatientRequest) (*model.PatientView, error) {
	if !rbac.CanUpdatePatient(caller, id) {
		return nil, apperrors.Unauthorized("Patients can only update their own profile.")
	}
	var view *model.PatientView
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		p, err := loadPatient(ctx, tx, id)
		if err != nil {
			return err
		}
		req.Demographics().Apply(p)
		if err := tx.Patients().Update(ctx, p); err != nil {
			return apperrors.Internal(err)
		}
		view, err = withAccount(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func loadPatient(ctx context.Context, tx repository.Store, id uuid.UUID) (*model.Patient, error) {
	p, err := tx.Patients().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound(fmt.Sprintf("Patient not found with ID: %s", id))
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return p, nil
}

func withAccount(ctx context.Context, tx repository.Store, p *model.Patient) (*model.PatientView, error) {
	a, err := tx.Accounts().Get(ctx, p.AccountID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewPatientView(p, nil), nil
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return model.NewPatientView(p, a), nil
}
