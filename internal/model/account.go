package model

import "strings"

// AccountRoleUser is the only role a self-service account carries.
const AccountRoleUser = "USER"

// Account is a self-service login identity owning exactly one Patient profile.
type Account struct {
	Base
	Email        *string `db:"email" json:"email,omitempty"`
	Phone        *string `db:"phone" json:"phone,omitempty"`
	PasswordHash string  `db:"password_hash" json:"-"`
	FirstName    string  `db:"first_name" json:"first_name"`
	LastName     string  `db:"last_name" json:"last_name"`
	Role         string  `db:"role" json:"role"`
	Active       bool    `db:"active" json:"active"`
	Verified     bool    `db:"verified" json:"verified"`
}

func (a *Account) FullName() string {
	return a.FirstName + " " + a.LastName
}

// NormalizeEmail is the stored and looked-up form of an account email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// StringPtr returns nil for an empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
