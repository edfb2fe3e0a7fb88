// Package rbac holds the authorization decisions. Every function is pure:
// callers load the entities first and translate false into an
// authorization failure.
package rbac

import (
	"github.com/google/uuid"

	"github.com/jwalitptl/ehr-booking/internal/model"
)

// CanCreateSlot allows admins for any doctor and doctors for themselves.
func CanCreateSlot(caller model.Caller, doctorID uuid.UUID) bool {
	if caller.HasRole(model.StaffRoleAdmin) {
		return true
	}
	return caller.HasRole(model.StaffRoleDoctor) && caller.StaffID == doctorID
}

// CanManageSlot gates rescheduling and withdrawing an existing slot.
func CanManageSlot(caller model.Caller, slot *model.Slot) bool {
	return CanCreateSlot(caller, slot.DoctorID)
}

// CanViewDoctorSlots only denies a doctor looking at another doctor's slots.
// Slot listings carry no patient data.
func CanViewDoctorSlots(caller model.Caller, doctorID uuid.UUID) bool {
	if caller.HasRole(model.StaffRoleDoctor) {
		return caller.StaffID == doctorID
	}
	return true
}

// CanViewDoctorAppointments requires staff. Doctors only see their own.
func CanViewDoctorAppointments(caller model.Caller, doctorID uuid.UUID) bool {
	switch {
	case caller.HasRole(model.StaffRoleAdmin, model.StaffRoleReceptionist):
		return true
	case caller.HasRole(model.StaffRoleDoctor):
		return caller.StaffID == doctorID
	}
	return false
}

func CanViewPatientAppointments(caller model.Caller, patientID uuid.UUID) bool {
	if caller.IsStaff() {
		return true
	}
	return caller.HasPatientProfile() && caller.PatientID == patientID
}

// CanUpdateAppointmentStatus takes the appointment's slot because ownership
// is the slot's doctor.
func CanUpdateAppointmentStatus(caller model.Caller, slot *model.Slot) bool {
	if caller.HasRole(model.StaffRoleAdmin) {
		return true
	}
	return caller.HasRole(model.StaffRoleDoctor) && caller.StaffID == slot.DoctorID
}

func CanAddDoctorNotes(caller model.Caller, slot *model.Slot) bool {
	return CanUpdateAppointmentStatus(caller, slot)
}

func CanViewAppointment(caller model.Caller, appointment *model.Appointment) bool {
	if caller.IsStaff() {
		return true
	}
	return caller.HasPatientProfile() && caller.PatientID == appointment.PatientID
}

func CanBookOnline(caller model.Caller) bool {
	return caller.HasPatientProfile()
}

func CanBookWalkIn(caller model.Caller) bool {
	return caller.HasRole(model.StaffRoleReceptionist, model.StaffRoleAdmin)
}

func CanViewPatient(caller model.Caller, patientID uuid.UUID) bool {
	return CanViewPatientAppointments(caller, patientID)
}

// CanUpdatePatient allows the owner and front-desk staff. Doctors read only.
func CanUpdatePatient(caller model.Caller, patientID uuid.UUID) bool {
	if caller.HasRole(model.StaffRoleAdmin, model.StaffRoleReceptionist) {
		return true
	}
	return caller.HasPatientProfile() && caller.PatientID == patientID
}

func CanManageStaff(caller model.Caller) bool {
	return caller.HasRole(model.StaffRoleAdmin)
}
