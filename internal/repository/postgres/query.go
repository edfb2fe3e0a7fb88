package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

func sqlxGet(ctx context.Context, q sqlx.ExtContext, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, q, dest, query, args...)
}

func sqlxSelect(ctx context.Context, q sqlx.ExtContext, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, q, dest, query, args...)
}

func exists(ctx context.Context, q sqlx.ExtContext, op, query string, args ...interface{}) (bool, error) {
	var found bool
	if err := sqlx.GetContext(ctx, q, &found, query, args...); err != nil {
		return false, mapError(op, err)
	}
	return found, nil
}
