package auth

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/repository/memory"
	"github.com/jwalitptl/ehr-booking/internal/service/identity"
	"github.com/jwalitptl/ehr-booking/pkg/auth"
	apperrors "github.com/jwalitptl/ehr-booking/pkg/errors"
	"github.com/jwalitptl/ehr-booking/pkg/security"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	tokens := auth.NewJWTService(auth.Config{Secret: "test-secret", Issuer: "ehr-test", Expiry: time.Hour})
	dir := identity.NewDirectory(store, time.Minute, time.Minute)
	return NewService(store, security.NewBcryptHasher(4), tokens, dir, zerolog.Nop()), store
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	view, err := svc.Register(ctx, model.RegisterRequest{
		FirstName: "Ada",
		LastName:  "Obi",
		Email:     " Ada@Example.com ",
		Phone:     "+2348000000001",
		Password:  "s3cretpass",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", model.StringValue(view.Email))

	for _, identifier := range []string{"ADA@example.com", "+2348000000001"} {
		tok, err := svc.LoginAccount(ctx, model.LoginRequest{Identifier: identifier, Password: "s3cretpass"})
		require.NoError(t, err)
		assert.NotEmpty(t, tok.AccessToken)
		assert.InDelta(t, time.Hour.Seconds(), float64(tok.ExpiresIn), 5)

		caller, err := svc.Authenticate(ctx, tok.AccessToken)
		require.NoError(t, err)
		assert.True(t, caller.HasPatientProfile())
		assert.Equal(t, view.ID, caller.PatientID)
		assert.Equal(t, view.AccountID, caller.AccountID)
	}
}

func TestRegisterDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Register(ctx, model.RegisterRequest{FirstName: "A", LastName: "B", Email: "a@example.com", Phone: "+2348000000001", Password: "s3cretpass"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, model.RegisterRequest{FirstName: "C", LastName: "D", Email: "a@example.com", Password: "s3cretpass"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidArgument))
	assert.Equal(t, "An account with this email already exists.", apperrors.PublicMessage(err))

	_, err = svc.Register(ctx, model.RegisterRequest{FirstName: "C", LastName: "D", Phone: "+2348000000001", Password: "s3cretpass"})
	require.Error(t, err)
	assert.Equal(t, "An account with this phone number already exists.", apperrors.PublicMessage(err))

	_, err = svc.Register(ctx, model.RegisterRequest{FirstName: "C", LastName: "D", Email: "c@example.com", Password: "short"})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidArgument))
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, err := svc.Register(ctx, model.RegisterRequest{FirstName: "A", LastName: "B", Email: "a@example.com", Password: "s3cretpass"})
	require.NoError(t, err)

	_, err = svc.LoginAccount(ctx, model.LoginRequest{Identifier: "a@example.com", Password: "wrong-password"})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))

	_, err = svc.LoginAccount(ctx, model.LoginRequest{Identifier: "nobody@example.com", Password: "s3cretpass"})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))

	_, err = svc.LoginStaff(ctx, model.StaffLoginRequest{WorkID: "a@example.com", Password: "s3cretpass"})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))
}

func TestStaffProvisioningAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	admin, err := svc.ProvisionStaff(ctx, model.AnonymousCaller(), model.CreateStaffRequest{
		WorkID: "ADM-1", FirstName: "Root", LastName: "Admin", Password: "adminpass", Role: model.StaffRoleAdmin,
	})
	require.NoError(t, err)

	req := model.CreateStaffRequest{WorkID: "DOC-1", FirstName: "Ngozi", LastName: "Eze", Password: "doctorpass", Role: model.StaffRoleDoctor}

	_, err = svc.CreateStaff(ctx, model.StaffCaller(admin.ID, model.StaffRoleReceptionist), req)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	doctor, err := svc.CreateStaff(ctx, model.StaffCaller(admin.ID, model.StaffRoleAdmin), req)
	require.NoError(t, err)
	assert.True(t, doctor.IsDoctor())

	_, err = svc.CreateStaff(ctx, model.StaffCaller(admin.ID, model.StaffRoleAdmin), req)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidArgument))

	tok, err := svc.LoginStaff(ctx, model.StaffLoginRequest{WorkID: "DOC-1", Password: "doctorpass"})
	require.NoError(t, err)

	caller, err := svc.Authenticate(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.StaffCaller(doctor.ID, model.StaffRoleDoctor), caller)

	// work ids are not account identifiers
	_, err = svc.LoginAccount(ctx, model.LoginRequest{Identifier: "DOC-1", Password: "doctorpass"})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	caller, err := svc.Authenticate(ctx, "")
	require.NoError(t, err)
	assert.True(t, caller.IsAnonymous())

	caller, err = svc.Authenticate(ctx, "not-a-token")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))
	assert.True(t, caller.IsAnonymous())

	// a valid token for an identity that no longer exists is anonymous
	other := auth.NewJWTService(auth.Config{Secret: "test-secret", Issuer: "ehr-test", Expiry: time.Hour})
	tok, _, err := other.Issue(model.Principal{Kind: model.PrincipalStaff, Subject: "GONE-1"})
	require.NoError(t, err)
	caller, err = svc.Authenticate(ctx, tok)
	require.NoError(t, err)
	assert.True(t, caller.IsAnonymous())
}
