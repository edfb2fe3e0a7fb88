package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TimeRange is a half-open window [From, To).
type TimeRange struct {
	From time.Time `json:"from" form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To   time.Time `json:"to" form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}
