package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/ehr-booking/internal/model"
)

const accountColumns = `id, email, phone, password_hash, first_name, last_name, role, active, verified, created_at, updated_at`

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.CreatedAt = now()
	account.UpdatedAt = account.CreatedAt

	_, err := r.q.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.Phone,
		account.PasswordHash,
		account.FirstName,
		account.LastName,
		account.Role,
		account.Active,
		account.Verified,
		account.CreatedAt,
		account.UpdatedAt,
	)
	return mapError("create account", err)
}

func (r *accountRepository) getBy(ctx context.Context, where string, arg interface{}) (*model.Account, error) {
	var account model.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + where + ` LIMIT 1`
	if err := sqlxGet(ctx, r.q, &account, query, arg); err != nil {
		return nil, mapError("get account", err)
	}
	return &account, nil
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.getBy(ctx, "email = $1", email)
}

func (r *accountRepository) GetByPhone(ctx context.Context, phone string) (*model.Account, error) {
	return r.getBy(ctx, "phone = $1", phone)
}

func (r *accountRepository) GetByEmailOrPhone(ctx context.Context, identifier string) (*model.Account, error) {
	return r.getBy(ctx, "email = $1 OR phone = $1", identifier)
}

func (r *accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return exists(ctx, r.q, "exists account by email", `SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`, email)
}

func (r *accountRepository) ExistsByPhone(ctx context.Context, phone string) (bool, error) {
	return exists(ctx, r.q, "exists account by phone", `SELECT EXISTS (SELECT 1 FROM accounts WHERE phone = $1)`, phone)
}
