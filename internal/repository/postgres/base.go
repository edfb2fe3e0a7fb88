package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/repository"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
	// raised by the appointment_slots_require_doctor trigger
	pqDoctorRoleRequired = "EH001"
)

// Store is the sqlx-backed repository.Store. Inside WithTx its queries run
// on the transaction.
type Store struct {
	db *sqlx.DB
	q  sqlx.ExtContext
	tx *sqlx.Tx
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, q: db}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx executes fn within a transaction. Nested calls reuse the outer one.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Store{db: s.db, q: tx, tx: tx}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// mapError translates driver errors into repository sentinels.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to %s: %w", op, repository.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("failed to %s: %w", op, repository.ErrDuplicate)
		case pqForeignKeyViolation:
			return fmt.Errorf("failed to %s: %w", op, repository.ErrNotFound)
		case pqDoctorRoleRequired:
			return fmt.Errorf("failed to %s: %w", op, repository.ErrDoctorRoleRequired)
		case pqCheckViolation:
			if pqErr.Constraint == "appointment_slots_window" {
				return fmt.Errorf("failed to %s: %w", op, model.ErrInvalidSlotWindow)
			}
		}
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func expectOne(op string, result sql.Result, missing error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("failed to %s: %w", op, missing)
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}
