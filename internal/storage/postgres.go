package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresAdapter struct {
	pool *pgxpool.Pool
}

// NewPostgres returns an Adapter backed by the client_state table.
func NewPostgres(pool *pgxpool.Pool) Adapter {
	return &postgresAdapter{pool: pool}
}

func (a *postgresAdapter) Get(ctx context.Context, key string) (string, bool, error) {
	const q = `
SELECT value
FROM client_state
WHERE key = $1
`
	var value string
	if err := a.pool.QueryRow(ctx, q, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (a *postgresAdapter) Set(ctx context.Context, key, value string) error {
	const q = `
INSERT INTO client_state (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
`
	_, err := a.pool.Exec(ctx, q, key, value)
	return err
}

func (a *postgresAdapter) Remove(ctx context.Context, key string) error {
	const q = `
DELETE FROM client_state
WHERE key = $1
`
	_, err := a.pool.Exec(ctx, q, key)
	return err
}
