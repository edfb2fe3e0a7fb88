package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/repository"
)

// Directory resolves a verified principal into a Caller. Unknown or inactive
// principals resolve to Anonymous.
type Directory struct {
	store repository.Store
	cache *cache.Cache
}

func NewDirectory(store repository.Store, ttl, cleanup time.Duration) *Directory {
	return &Directory{
		store: store,
		cache: cache.New(ttl, cleanup),
	}
}

func cacheKey(p model.Principal) string {
	return string(p.Kind) + ":" + p.Subject
}

func (d *Directory) Resolve(ctx context.Context, p model.Principal) (model.Caller, error) {
	if p.Empty() {
		return model.AnonymousCaller(), nil
	}
	if cached, ok := d.cache.Get(cacheKey(p)); ok {
		return cached.(model.Caller), nil
	}

	var (
		caller model.Caller
		err    error
	)
	switch p.Kind {
	case model.PrincipalAccount:
		caller, err = d.resolveAccount(ctx, p.Subject)
	case model.PrincipalStaff:
		caller, err = d.resolveStaff(ctx, p.Subject)
	}
	if err != nil {
		return model.AnonymousCaller(), err
	}

	if !caller.IsAnonymous() {
		d.cache.SetDefault(cacheKey(p), caller)
	}
	return caller, nil
}

func (d *Directory) resolveAccount(ctx context.Context, identifier string) (model.Caller, error) {
	account, err := d.store.Accounts().GetByEmailOrPhone(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		return model.AnonymousCaller(), nil
	}
	if err != nil {
		return model.Caller{}, fmt.Errorf("failed to resolve account: %w", err)
	}
	if !account.Active {
		return model.AnonymousCaller(), nil
	}

	patient, err := d.store.Patients().GetByAccount(ctx, account.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.PatientCaller(account.ID, uuid.Nil), nil
	}
	if err != nil {
		return model.Caller{}, fmt.Errorf("failed to resolve patient profile: %w", err)
	}
	return model.PatientCaller(account.ID, patient.ID), nil
}

func (d *Directory) resolveStaff(ctx context.Context, workID string) (model.Caller, error) {
	staff, err := d.store.Staff().GetByWorkID(ctx, workID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.AnonymousCaller(), nil
	}
	if err != nil {
		return model.Caller{}, fmt.Errorf("failed to resolve staff: %w", err)
	}
	if !staff.Active {
		return model.AnonymousCaller(), nil
	}
	return model.StaffCaller(staff.ID, staff.Role), nil
}
