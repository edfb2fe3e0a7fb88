package rbac

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/ehr-booking/internal/model"
)

var (
	doctorID     = uuid.New()
	otherDoctor  = uuid.New()
	patientID    = uuid.New()
	otherPatient = uuid.New()

	anonymous    = model.AnonymousCaller()
	admin        = model.StaffCaller(uuid.New(), model.StaffRoleAdmin)
	receptionist = model.StaffCaller(uuid.New(), model.StaffRoleReceptionist)
	doctor       = model.StaffCaller(doctorID, model.StaffRoleDoctor)
	patient      = model.PatientCaller(uuid.New(), patientID)
	noProfile    = model.PatientCaller(uuid.New(), uuid.Nil)
)

func TestCanCreateSlot(t *testing.T) {
	tests := []struct {
		name   string
		caller model.Caller
		target uuid.UUID
		want   bool
	}{
		{"admin for any doctor", admin, otherDoctor, true},
		{"doctor for self", doctor, doctorID, true},
		{"doctor for another doctor", doctor, otherDoctor, false},
		{"receptionist", receptionist, doctorID, false},
		{"patient", patient, doctorID, false},
		{"anonymous", anonymous, doctorID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanCreateSlot(tt.caller, tt.target))
		})
	}
}

func TestCanViewDoctorData(t *testing.T) {
	tests := []struct {
		name             string
		caller           model.Caller
		target           uuid.UUID
		wantSlots        bool
		wantAppointments bool
	}{
		{"doctor own", doctor, doctorID, true, true},
		{"doctor other", doctor, otherDoctor, false, false},
		{"admin", admin, otherDoctor, true, true},
		{"receptionist", receptionist, otherDoctor, true, true},
		{"patient", patient, doctorID, true, false},
		{"anonymous", anonymous, doctorID, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantSlots, CanViewDoctorSlots(tt.caller, tt.target))
			assert.Equal(t, tt.wantAppointments, CanViewDoctorAppointments(tt.caller, tt.target))
		})
	}
}

func TestCanViewPatientAppointments(t *testing.T) {
	tests := []struct {
		name   string
		caller model.Caller
		target uuid.UUID
		want   bool
	}{
		{"own", patient, patientID, true},
		{"other patient", patient, otherPatient, false},
		{"account without profile", noProfile, uuid.Nil, false},
		{"doctor", doctor, otherPatient, true},
		{"receptionist", receptionist, otherPatient, true},
		{"admin", admin, otherPatient, true},
		{"anonymous", anonymous, patientID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanViewPatientAppointments(tt.caller, tt.target))
		})
	}
}

func TestCanUpdateAppointmentStatusAndNotes(t *testing.T) {
	own := &model.Slot{DoctorID: doctorID}
	foreign := &model.Slot{DoctorID: otherDoctor}

	tests := []struct {
		name   string
		caller model.Caller
		slot   *model.Slot
		want   bool
	}{
		{"admin", admin, foreign, true},
		{"owning doctor", doctor, own, true},
		{"other doctor", doctor, foreign, false},
		{"receptionist", receptionist, own, false},
		{"patient", patient, own, false},
		{"anonymous", anonymous, own, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanUpdateAppointmentStatus(tt.caller, tt.slot))
			assert.Equal(t, tt.want, CanAddDoctorNotes(tt.caller, tt.slot))
		})
	}
}

func TestBookingAndProfilePolicies(t *testing.T) {
	assert.True(t, CanBookOnline(patient))
	assert.False(t, CanBookOnline(noProfile))
	assert.False(t, CanBookOnline(receptionist))

	assert.True(t, CanBookWalkIn(receptionist))
	assert.True(t, CanBookWalkIn(admin))
	assert.False(t, CanBookWalkIn(doctor))
	assert.False(t, CanBookWalkIn(patient))

	assert.True(t, CanUpdatePatient(patient, patientID))
	assert.False(t, CanUpdatePatient(patient, otherPatient))
	assert.True(t, CanUpdatePatient(receptionist, otherPatient))
	assert.False(t, CanUpdatePatient(doctor, otherPatient))
	assert.True(t, CanViewPatient(doctor, otherPatient))

	assert.True(t, CanManageStaff(admin))
	assert.False(t, CanManageStaff(doctor))
}
