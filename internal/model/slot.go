package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "AVAILABLE"
	SlotStatusBooked    SlotStatus = "BOOKED"
	SlotStatusCancelled SlotStatus = "CANCELLED"
)

var ErrInvalidSlotWindow = errors.New("start time must be before end time")

// Slot is a bookable window owned by one doctor.
type Slot struct {
	Base
	DoctorID  uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	StartTime time.Time  `db:"start_time" json:"start_time"`
	EndTime   time.Time  `db:"end_time" json:"end_time"`
	Status    SlotStatus `db:"status" json:"status"`
}

// Validate checks the window invariant. Equal times are rejected.
func (s *Slot) Validate() error {
	if !s.StartTime.Before(s.EndTime) {
		return ErrInvalidSlotWindow
	}
	return nil
}

func (s *Slot) StartsAfter(t time.Time) bool {
	return s.StartTime.After(t)
}

type CreateSlotRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" binding:"required"`
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

type UpdateSlotRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

// SlotView is a slot with its doctor's display name.
type SlotView struct {
	ID             uuid.UUID  `json:"id"`
	DoctorID       uuid.UUID  `json:"doctor_id"`
	DoctorFullName string     `json:"doctor_full_name,omitempty"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	Status         SlotStatus `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func NewSlotView(s *Slot, doctor *Staff) *SlotView {
	v := &SlotView{
		ID:        s.ID,
		DoctorID:  s.DoctorID,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		Status:    s.Status,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if doctor != nil {
		v.DoctorFullName = doctor.FullName()
	}
	return v
}
