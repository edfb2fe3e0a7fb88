package model

import "errors"

var ErrInvalidCredentials = errors.New("invalid credentials")

type PrincipalKind string

const (
	PrincipalAccount PrincipalKind = "account"
	PrincipalStaff   PrincipalKind = "staff"
)

// Principal is what a verified session token asserts: an identifier in one
// identifier space (email/phone for accounts, work id for staff).
type Principal struct {
	Kind    PrincipalKind
	Subject string
}

func (p Principal) Empty() bool {
	return p.Subject == "" || (p.Kind != PrincipalAccount && p.Kind != PrincipalStaff)
}

type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required,max=100"`
	LastName  string `json:"last_name" binding:"required,max=100"`
	Email     string `json:"email" binding:"required_without=Phone,omitempty,email"`
	Phone     string `json:"phone" binding:"required_without=Email,omitempty,phone"`
	Password  string `json:"password" binding:"required,min=8,max=100"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type StaffLoginRequest struct {
	WorkID   string `json:"work_id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}
