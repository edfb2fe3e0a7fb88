package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/ehr-booking/internal/model"
)

const staffColumns = `id, work_id, first_name, last_name, password_hash, role, active, created_at, updated_at`

func (r *staffRepository) Create(ctx context.Context, staff *model.Staff) error {
	query := `
		INSERT INTO staff (` + staffColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if staff.ID == uuid.Nil {
		staff.ID = uuid.New()
	}
	staff.CreatedAt = now()
	staff.UpdatedAt = staff.CreatedAt

	_, err := r.q.ExecContext(ctx, query,
		staff.ID,
		staff.WorkID,
		staff.FirstName,
		staff.LastName,
		staff.PasswordHash,
		staff.Role,
		staff.Active,
		staff.CreatedAt,
		staff.UpdatedAt,
	)
	return mapError("create staff", err)
}

func (r *staffRepository) Get(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	var staff model.Staff
	query := `SELECT ` + staffColumns + ` FROM staff WHERE id = $1`
	if err := sqlxGet(ctx, r.q, &staff, query, id); err != nil {
		return nil, mapError("get staff", err)
	}
	return &staff, nil
}

func (r *staffRepository) GetByWorkID(ctx context.Context, workID string) (*model.Staff, error) {
	var staff model.Staff
	query := `SELECT ` + staffColumns + ` FROM staff WHERE work_id = $1`
	if err := sqlxGet(ctx, r.q, &staff, query, workID); err != nil {
		return nil, mapError("get staff by work id", err)
	}
	return &staff, nil
}

func (r *staffRepository) ExistsByWorkID(ctx context.Context, workID string) (bool, error) {
	return exists(ctx, r.q, "exists staff by work id", `SELECT EXISTS (SELECT 1 FROM staff WHERE work_id = $1)`, workID)
}

func (r *staffRepository) ListByRole(ctx context.Context, role model.StaffRole) ([]*model.Staff, error) {
	var staff []*model.Staff
	query := `SELECT ` + staffColumns + ` FROM staff WHERE role = $1 ORDER BY work_id`
	if err := sqlxSelect(ctx, r.q, &staff, query, role); err != nil {
		return nil, mapError("list staff by role", err)
	}
	return staff, nil
}
