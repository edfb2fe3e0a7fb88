package model

import "github.com/google/uuid"

type StaffRole string

const (
	StaffRoleDoctor       StaffRole = "DOCTOR"
	StaffRoleReceptionist StaffRole = "RECEPTIONIST"
	StaffRoleAdmin        StaffRole = "ADMIN"
)

func (r StaffRole) Valid() bool {
	switch r {
	case StaffRoleDoctor, StaffRoleReceptionist, StaffRoleAdmin:
		return true
	}
	return false
}

// Staff is a privileged login identity.
type Staff struct {
	Base
	WorkID       string    `db:"work_id" json:"work_id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         StaffRole `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
}

func (s *Staff) FullName() string {
	return s.FirstName + " " + s.LastName
}

func (s *Staff) IsDoctor() bool {
	return s.Role == StaffRoleDoctor
}

type CreateStaffRequest struct {
	WorkID    string    `json:"work_id" binding:"required,max=50"`
	FirstName string    `json:"first_name" binding:"required,max=100"`
	LastName  string    `json:"last_name" binding:"required,max=100"`
	Password  string    `json:"password" binding:"required,min=8,max=100"`
	Role      StaffRole `json:"role" binding:"required,staff_role"`
}

// StaffSummary is the slice of a staff member embedded in responses.
type StaffSummary struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
	Role     StaffRole `json:"role"`
}
