package validator

import (
	"testing"

	playground "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/ehr-booking/internal/model"
)

func newValidate(t *testing.T) *playground.Validate {
	t.Helper()
	v := playground.New()
	v.SetTagName("binding")
	require.NoError(t, Register(v))
	return v
}

func TestPhone(t *testing.T) {
	v := newValidate(t)
	for _, ok := range []string{"+2348012345678", "0801 234 5678", "(080) 123-4567", "+1.555.123.4567"} {
		assert.NoError(t, v.Var(ok, "phone"), ok)
	}
	for _, bad := range []string{"12345", "phone-number", "+234801234567890123456789012"} {
		assert.Error(t, v.Var(bad, "phone"), bad)
	}
}

func TestEnumTags(t *testing.T) {
	v := newValidate(t)

	assert.NoError(t, v.Var(model.GenderFemale, "gender"))
	assert.Error(t, v.Var(model.Gender("OTHER"), "gender"))
	assert.NoError(t, v.Var(model.BloodGroupABNegative, "blood_group"))
	assert.Error(t, v.Var("AB-", "blood_group"))
	assert.NoError(t, v.Var(model.GenotypeSC, "genotype"))
	assert.NoError(t, v.Var(model.MaritalStatusWidowed, "marital_status"))
	assert.NoError(t, v.Var(model.StaffRoleReceptionist, "staff_role"))
	assert.Error(t, v.Var("NURSE", "staff_role"))
	assert.NoError(t, v.Var(model.AppointmentStatusNoShow, "appointment_status"))
	assert.Error(t, v.Var("BOOKED", "appointment_status"))
}

func TestDescribeUsesJSONNames(t *testing.T) {
	v := newValidate(t)

	err := v.Struct(model.RegisterRequest{FirstName: "Ada", LastName: "Obi", Phone: "nope", Password: "s3cretpass"})
	require.Error(t, err)
	assert.Contains(t, Describe(err), "phone must be a valid phone number")

	err = v.Struct(model.RegisterRequest{FirstName: "Ada", LastName: "Obi", Password: "s3cretpass"})
	require.Error(t, err)
	assert.Contains(t, Describe(err), "email is required")
}
