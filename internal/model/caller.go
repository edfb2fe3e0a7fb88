package model

import "github.com/google/uuid"

type CallerKind int

const (
	CallerAnonymous CallerKind = iota
	CallerPatientAccount
	CallerStaffMember
)

func (k CallerKind) String() string {
	switch k {
	case CallerPatientAccount:
		return "patient_account"
	case CallerStaffMember:
		return "staff_member"
	default:
		return "anonymous"
	}
}

// Caller is the resolved identity behind a request. Only the fields of its Kind are set.
type Caller struct {
	Kind      CallerKind
	AccountID uuid.UUID
	PatientID uuid.UUID
	StaffID   uuid.UUID
	Role      StaffRole
}

func AnonymousCaller() Caller {
	return Caller{Kind: CallerAnonymous}
}

// PatientCaller builds an account identity. patientID is uuid.Nil when the
// account has no patient profile.
func PatientCaller(accountID, patientID uuid.UUID) Caller {
	return Caller{Kind: CallerPatientAccount, AccountID: accountID, PatientID: patientID}
}

func StaffCaller(staffID uuid.UUID, role StaffRole) Caller {
	return Caller{Kind: CallerStaffMember, StaffID: staffID, Role: role}
}

func (c Caller) IsAnonymous() bool { return c.Kind == CallerAnonymous }

func (c Caller) IsStaff() bool { return c.Kind == CallerStaffMember }

func (c Caller) IsPatientAccount() bool { return c.Kind == CallerPatientAccount }

func (c Caller) HasPatientProfile() bool {
	return c.Kind == CallerPatientAccount && c.PatientID != uuid.Nil
}

// HasRole reports whether c is a staff member holding one of roles.
func (c Caller) HasRole(roles ...StaffRole) bool {
	if c.Kind != CallerStaffMember {
		return false
	}
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// ActorID is the id recorded against events the caller triggers.
func (c Caller) ActorID() uuid.UUID {
	switch c.Kind {
	case CallerStaffMember:
		return c.StaffID
	case CallerPatientAccount:
		return c.AccountID
	}
	return uuid.Nil
}
