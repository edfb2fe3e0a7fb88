package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "SCHEDULED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
	AppointmentStatusNoShow    AppointmentStatus = "NO_SHOW"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusCompleted, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

type AppointmentType string

const (
	AppointmentTypeOnline AppointmentType = "ONLINE"
	AppointmentTypeWalkIn AppointmentType = "WALK_IN"
)

// Appointment books one patient into one slot. SlotID never changes after creation.
type Appointment struct {
	Base
	PatientID    uuid.UUID         `db:"patient_id" json:"patient_id"`
	SlotID       uuid.UUID         `db:"slot_id" json:"slot_id"`
	Status       AppointmentStatus `db:"status" json:"status"`
	Type         AppointmentType   `db:"type" json:"type"`
	PatientNotes *string           `db:"patient_notes" json:"notes,omitempty"`
	DoctorNotes  *string           `db:"doctor_notes" json:"doctor_notes,omitempty"`
}

type BookAppointmentRequest struct {
	SlotID uuid.UUID `json:"slot_id" binding:"required"`
	Notes  string    `json:"notes" binding:"max=1000"`
}

type WalkInRequest struct {
	FirstName     string         `json:"first_name" binding:"required,max=100"`
	LastName      string         `json:"last_name" binding:"required,max=100"`
	Email         string         `json:"email" binding:"omitempty,email"`
	Phone         string         `json:"phone" binding:"required,phone"`
	DateOfBirth   *time.Time     `json:"date_of_birth"`
	Gender        Gender         `json:"gender" binding:"required,gender"`
	Address       string         `json:"address" binding:"required,max=500"`
	BloodGroup    *BloodGroup    `json:"blood_group" binding:"omitempty,blood_group"`
	Genotype      *Genotype      `json:"genotype" binding:"omitempty,genotype"`
	MaritalStatus *MaritalStatus `json:"marital_status" binding:"omitempty,marital_status"`
	Occupation    string         `json:"occupation" binding:"max=100"`
	SlotID        uuid.UUID      `json:"slot_id" binding:"required"`
	Notes         string         `json:"notes" binding:"max=1000"`
}

func (r WalkInRequest) Demographics() Demographics {
	gender := r.Gender
	return Demographics{
		DateOfBirth:   r.DateOfBirth,
		Gender:        &gender,
		Address:       StringPtr(r.Address),
		BloodGroup:    r.BloodGroup,
		Genotype:      r.Genotype,
		MaritalStatus: r.MaritalStatus,
		Occupation:    StringPtr(r.Occupation),
	}
}

type UpdateAppointmentStatusRequest struct {
	Status AppointmentStatus `json:"status" binding:"required,appointment_status"`
}

type DoctorNotesRequest struct {
	Notes string `json:"notes" binding:"max=5000"`
}

// AppointmentView is an appointment with its slot, doctor and patient loaded.
type AppointmentView struct {
	ID              uuid.UUID         `json:"id"`
	PatientID       uuid.UUID         `json:"patient_id"`
	PatientFullName string            `json:"patient_full_name,omitempty"`
	DoctorID        uuid.UUID         `json:"doctor_id"`
	DoctorFullName  string            `json:"doctor_full_name,omitempty"`
	SlotID          uuid.UUID         `json:"slot_id"`
	StartTime       time.Time         `json:"start_time"`
	EndTime         time.Time         `json:"end_time"`
	Status          AppointmentStatus `json:"status"`
	Type            AppointmentType   `json:"type"`
	Notes           *string           `json:"notes,omitempty"`
	DoctorNotes     *string           `json:"doctor_notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// NewAppointmentView maps a fully loaded appointment graph. doctor and account may be nil.
func NewAppointmentView(a *Appointment, slot *Slot, doctor *Staff, account *Account) *AppointmentView {
	v := &AppointmentView{
		ID:          a.ID,
		PatientID:   a.PatientID,
		DoctorID:    slot.DoctorID,
		SlotID:      a.SlotID,
		StartTime:   slot.StartTime,
		EndTime:     slot.EndTime,
		Status:      a.Status,
		Type:        a.Type,
		Notes:       a.PatientNotes,
		DoctorNotes: a.DoctorNotes,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if doctor != nil {
		v.DoctorFullName = doctor.FullName()
	}
	if account != nil {
		v.PatientFullName = account.FullName()
	}
	return v
}
