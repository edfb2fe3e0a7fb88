// Package auth registers accounts, provisions staff and turns credentials
// into session tokens and session tokens into callers.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/repository"
	"github.com/jwalitptl/ehr-booking/internal/service/event"
	"github.com/jwalitptl/ehr-booking/internal/service/identity"
	"github.com/jwalitptl/ehr-booking/internal/service/rbac"
	"github.com/jwalitptl/ehr-booking/pkg/auth"
	apperrors "github.com/jwalitptl/ehr-booking/pkg/errors"
	"github.com/jwalitptl/ehr-booking/pkg/security"
)

const msgInvalidCredentials = "invalid credentials"

type Service struct {
	store     repository.Store
	hasher    security.PasswordHasher
	tokens    auth.TokenService
	directory *identity.Directory
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(store repository.Store, hasher security.PasswordHasher, tokens auth.TokenService, directory *identity.Directory, logger zerolog.Logger) *Service {
	return &Service{
		store:     store,
		hasher:    hasher,
		tokens:    tokens,
		directory: directory,
		logger:    logger.With().Str("component", "auth").Logger(),
		now:       time.Now,
	}
}

// Register creates a self-service account with an empty patient profile.
func (s *Service) Register(ctx context.Context, req model.RegisterRequest) (*model.PatientView, error) {
	email, phone := model.NormalizeEmail(req.Email), strings.TrimSpace(req.Phone)
	if email == "" && phone == "" {
		return nil, apperrors.InvalidArgument("An email or phone number is required.", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if errors.Is(err, security.ErrPasswordTooShort) {
		return nil, apperrors.InvalidArgument(fmt.Sprintf("Password must be at least %d characters.", security.MinPasswordLen), err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	var view *model.PatientView
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if email != "" {
			exists, err := tx.Accounts().ExistsByEmail(ctx, email)
			if err != nil {
				return apperrors.Internal(err)
			}
			if exists {
				return apperrors.InvalidArgument("An account with this email already exists.", nil)
			}
		}
		if phone != "" {
			exists, err := tx.Accounts().ExistsByPhone(ctx, phone)
			if err != nil {
				return apperrors.Internal(err)
			}
			if exists {
				return apperrors.InvalidArgument("An account with this phone number already exists.", nil)
			}
		}

		account := &model.Account{
			Email:        model.StringPtr(email),
			Phone:        model.StringPtr(phone),
			PasswordHash: hash,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Role:         model.AccountRoleUser,
			Active:       true,
		}
		if err := tx.Accounts().Create(ctx, account); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.InvalidArgument("An account with this email or phone number already exists.", err)
			}
			return apperrors.Internal(err)
		}
		patient := &model.Patient{AccountID: account.ID}
		if err := tx.Patients().Create(ctx, patient); err != nil {
			return apperrors.Internal(err)
		}
		if err := event.Append(ctx, tx.Outbox(), model.EventAccountRegistered, account.ID, model.AnonymousCaller(), event.AccountPayload{
			AccountID: account.ID,
			PatientID: patient.ID,
			Channel:   "self_service",
		}); err != nil {
			return apperrors.Internal(err)
		}

		view = model.NewPatientView(patient, account)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("account_id", view.AccountID.String()).Msg("account registered")
	return view, nil
}

// LoginAccount accepts an email or phone number as identifier.
func (s *Service) LoginAccount(ctx context.Context, req model.LoginRequest) (*model.TokenResponse, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if strings.Contains(identifier, "@") {
		identifier = model.NormalizeEmail(identifier)
	}

	account, err := s.store.Accounts().GetByEmailOrPhone(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthenticated(msgInvalidCredentials)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !account.Active || s.hasher.Compare(account.PasswordHash, req.Password) != nil {
		return nil, apperrors.Unauthenticated(msgInvalidCredentials)
	}

	return s.issue(model.Principal{Kind: model.PrincipalAccount, Subject: identifier})
}

func (s *Service) LoginStaff(ctx context.Context, req model.StaffLoginRequest) (*model.TokenResponse, error) {
	workID := strings.TrimSpace(req.WorkID)
	staff, err := s.store.Staff().GetByWorkID(ctx, workID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Unauthenticated(msgInvalidCredentials)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if !staff.Active || s.hasher.Compare(staff.PasswordHash, req.Password) != nil {
		return nil, apperrors.Unauthenticated(msgInvalidCredentials)
	}

	return s.issue(model.Principal{Kind: model.PrincipalStaff, Subject: staff.WorkID})
}

func (s *Service) issue(p model.Principal) (*model.TokenResponse, error) {
	token, expiresAt, err := s.tokens.Issue(p)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &model.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int64(expiresAt.Sub(s.now()).Seconds()),
	}, nil
}

// CreateStaff lets an admin add a staff member.
func (s *Service) CreateStaff(ctx context.Context, caller model.Caller, req model.CreateStaffRequest) (*model.Staff, error) {
	if !rbac.CanManageStaff(caller) {
		return nil, apperrors.Unauthorized("Only admins can create staff accounts.")
	}
	return s.ProvisionStaff(ctx, caller, req)
}

// ProvisionStaff creates a staff member without an authorization check. It
// backs the operator CLI, which has no session.
func (s *Service) ProvisionStaff(ctx context.Context, caller model.Caller, req model.CreateStaffRequest) (*model.Staff, error) {
	if !req.Role.Valid() {
		return nil, apperrors.InvalidArgument(fmt.Sprintf("Invalid staff role: %s", req.Role), nil)
	}
	hash, err := s.hasher.Hash(req.Password)
	if errors.Is(err, security.ErrPasswordTooShort) {
		return nil, apperrors.InvalidArgument(fmt.Sprintf("Password must be at least %d characters.", security.MinPasswordLen), err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	staff := &model.Staff{
		WorkID:       strings.TrimSpace(req.WorkID),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Role:         req.Role,
		Active:       true,
	}
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		exists, err := tx.Staff().ExistsByWorkID(ctx, staff.WorkID)
		if err != nil {
			return apperrors.Internal(err)
		}
		if exists {
			return apperrors.InvalidArgument("A staff member with this work ID already exists.", nil)
		}
		if err := tx.Staff().Create(ctx, staff); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.InvalidArgument("A staff member with this work ID already exists.", err)
			}
			return apperrors.Internal(err)
		}
		if err := event.Append(ctx, tx.Outbox(), model.EventStaffCreated, staff.ID, caller, event.StaffPayload{
			StaffID: staff.ID,
			WorkID:  staff.WorkID,
			Role:    staff.Role,
		}); err != nil {
			return apperrors.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("staff_id", staff.ID.String()).Str("role", string(staff.Role)).Msg("staff created")
	return staff, nil
}

// Authenticate verifies a session token and resolves its caller. An empty
// token is an anonymous caller, not an error.
func (s *Service) Authenticate(ctx context.Context, token string) (model.Caller, error) {
	if token == "" {
		return model.AnonymousCaller(), nil
	}
	p, err := s.tokens.Parse(token)
	if err != nil {
		return model.AnonymousCaller(), apperrors.Unauthenticated("invalid or expired token")
	}
	caller, err := s.directory.Resolve(ctx, p)
	if err != nil {
		return model.AnonymousCaller(), apperrors.Internal(err)
	}
	return caller, nil
}
