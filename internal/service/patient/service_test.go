package patient

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/repository/memory"
	apperrors "github.com/jwalitptl/ehr-booking/pkg/errors"
)

func seedPatient(t *testing.T, store *memory.Store, email string) model.Caller {
	t.Helper()
	ctx := context.Background()
	a := &model.Account{Email: model.StringPtr(email), FirstName: "Ada", LastName: "Obi", Active: true}
	require.NoError(t, store.Accounts().Create(ctx, a))
	p := &model.Patient{AccountID: a.ID}
	require.NoError(t, store.Patients().Create(ctx, p))
	return model.PatientCaller(a.ID, p.ID)
}

func TestGetMyPatient(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store)
	me := seedPatient(t, store, "ada@example.com")

	view, err := svc.GetMyPatient(ctx, me)
	require.NoError(t, err)
	assert.Equal(t, me.PatientID, view.ID)
	assert.Equal(t, "Ada", view.FirstName)
	assert.Equal(t, "ada@example.com", model.StringValue(view.Email))

	_, err = svc.GetMyPatient(ctx, model.PatientCaller(uuid.New(), uuid.Nil))
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	_, err = svc.GetMyPatient(ctx, model.StaffCaller(uuid.New(), model.StaffRoleAdmin))
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestPatientOwnership(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store)
	me := seedPatient(t, store, "ada@example.com")
	other := seedPatient(t, store, "bola@example.com")

	_, err := svc.GetPatient(ctx, other, me.PatientID)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	_, err = svc.GetPatient(ctx, model.StaffCaller(uuid.New(), model.StaffRoleDoctor), me.PatientID)
	assert.NoError(t, err)

	_, err = svc.GetPatient(ctx, model.StaffCaller(uuid.New(), model.StaffRoleDoctor), uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestUpdatePatient(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	svc := NewService(store)
	me := seedPatient(t, store, "ada@example.com")

	blood := model.BloodGroupOPositive
	req := model.UpdatePatientRequest{
		DateOfBirth: time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC),
		Gender:      model.GenderFemale,
		Address:     model.StringPtr("4 Allen Avenue"),
		BloodGroup:  &blood,
	}

	view, err := svc.UpdatePatient(ctx, me, me.PatientID, req)
	require.NoError(t, err)
	require.NotNil(t, view.Gender)
	assert.Equal(t, model.GenderFemale, *view.Gender)
	assert.Equal(t, "4 Allen Avenue", model.StringValue(view.Address))

	stored, err := store.Patients().Get(ctx, me.PatientID)
	require.NoError(t, err)
	require.NotNil(t, stored.BloodGroup)
	assert.Equal(t, blood, *stored.BloodGroup)

	_, err = svc.UpdatePatient(ctx, model.StaffCaller(uuid.New(), model.StaffRoleDoctor), me.PatientID, req)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	_, err = svc.UpdatePatient(ctx, model.StaffCaller(uuid.New(), model.StaffRoleReceptionist), me.PatientID, req)
	assert.NoError(t, err)
}
