package model

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

type BloodGroup string

const (
	BloodGroupAPositive  BloodGroup = "A_POSITIVE"
	BloodGroupANegative  BloodGroup = "A_NEGATIVE"
	BloodGroupBPositive  BloodGroup = "B_POSITIVE"
	BloodGroupBNegative  BloodGroup = "B_NEGATIVE"
	BloodGroupABPositive BloodGroup = "AB_POSITIVE"
	BloodGroupABNegative BloodGroup = "AB_NEGATIVE"
	BloodGroupOPositive  BloodGroup = "O_POSITIVE"
	BloodGroupONegative  BloodGroup = "O_NEGATIVE"
)

type Genotype string

const (
	GenotypeAA Genotype = "AA"
	GenotypeAS Genotype = "AS"
	GenotypeAC Genotype = "AC"
	GenotypeSS Genotype = "SS"
	GenotypeSC Genotype = "SC"
)

type MaritalStatus string

const (
	MaritalStatusSingle   MaritalStatus = "SINGLE"
	MaritalStatusMarried  MaritalStatus = "MARRIED"
	MaritalStatusDivorced MaritalStatus = "DIVORCED"
	MaritalStatusWidowed  MaritalStatus = "WIDOWED"
)

// Patient holds demographics. Optional enums are stored as NULL when unset.
type Patient struct {
	Base
	AccountID     uuid.UUID      `db:"account_id" json:"account_id"`
	DateOfBirth   *time.Time     `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender        *Gender        `db:"gender" json:"gender,omitempty"`
	Address       *string        `db:"address" json:"address,omitempty"`
	BloodGroup    *BloodGroup    `db:"blood_group" json:"blood_group,omitempty"`
	Genotype      *Genotype      `db:"genotype" json:"genotype,omitempty"`
	MaritalStatus *MaritalStatus `db:"marital_status" json:"marital_status,omitempty"`
	Occupation    *string        `db:"occupation" json:"occupation,omitempty"`
}

// Demographics is the patient-editable part of a profile.
type Demographics struct {
	DateOfBirth   *time.Time     `json:"date_of_birth"`
	Gender        *Gender        `json:"gender" binding:"omitempty,gender"`
	Address       *string        `json:"address" binding:"omitempty,max=500"`
	BloodGroup    *BloodGroup    `json:"blood_group" binding:"omitempty,blood_group"`
	Genotype      *Genotype      `json:"genotype" binding:"omitempty,genotype"`
	MaritalStatus *MaritalStatus `json:"marital_status" binding:"omitempty,marital_status"`
	Occupation    *string        `json:"occupation" binding:"omitempty,max=100"`
}

// Apply overwrites every demographic field of p with d.
func (d Demographics) Apply(p *Patient) {
	p.DateOfBirth = d.DateOfBirth
	p.Gender = d.Gender
	p.Address = d.Address
	p.BloodGroup = d.BloodGroup
	p.Genotype = d.Genotype
	p.MaritalStatus = d.MaritalStatus
	p.Occupation = d.Occupation
}

type UpdatePatientRequest struct {
	DateOfBirth   time.Time      `json:"date_of_birth" binding:"required"`
	Gender        Gender         `json:"gender" binding:"required,gender"`
	Address       *string        `json:"address" binding:"omitempty,max=500"`
	BloodGroup    *BloodGroup    `json:"blood_group" binding:"omitempty,blood_group"`
	Genotype      *Genotype      `json:"genotype" binding:"omitempty,genotype"`
	MaritalStatus *MaritalStatus `json:"marital_status" binding:"omitempty,marital_status"`
	Occupation    *string        `json:"occupation" binding:"omitempty,max=100"`
}

func (r UpdatePatientRequest) Demographics() Demographics {
	dob, gender := r.DateOfBirth, r.Gender
	return Demographics{
		DateOfBirth:   &dob,
		Gender:        &gender,
		Address:       r.Address,
		BloodGroup:    r.BloodGroup,
		Genotype:      r.Genotype,
		MaritalStatus: r.MaritalStatus,
		Occupation:    r.Occupation,
	}
}

// PatientView is a patient profile joined with its owning account.
type PatientView struct {
	ID            uuid.UUID      `json:"id"`
	AccountID     uuid.UUID      `json:"account_id"`
	FirstName     string         `json:"first_name"`
	LastName      string         `json:"last_name"`
	Email         *string        `json:"email,omitempty"`
	Phone         *string        `json:"phone,omitempty"`
	DateOfBirth   *time.Time     `json:"date_of_birth,omitempty"`
	Gender        *Gender        `json:"gender,omitempty"`
	Address       *string        `json:"address,omitempty"`
	BloodGroup    *BloodGroup    `json:"blood_group,omitempty"`
	Genotype      *Genotype      `json:"genotype,omitempty"`
	MaritalStatus *MaritalStatus `json:"marital_status,omitempty"`
	Occupation    *string        `json:"occupation,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func NewPatientView(p *Patient, a *Account) *PatientView {
	v := &PatientView{
		ID:            p.ID,
		AccountID:     p.AccountID,
		DateOfBirth:   p.DateOfBirth,
		Gender:        p.Gender,
		Address:       p.Address,
		BloodGroup:    p.BloodGroup,
		Genotype:      p.Genotype,
		MaritalStatus: p.MaritalStatus,
		Occupation:    p.Occupation,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if a != nil {
		v.FirstName = a.FirstName
		v.LastName = a.LastName
		v.Email = a.Email
		v.Phone = a.Phone
	}
	return v
}
