package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgUserRepository resolves user display attributes from PostgreSQL.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) GetDisplayName(ctx context.Context, userID string) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgUserRepository: nil pool")
	}
	var name string
	err := r.pool.QueryRow(ctx,
		"SELECT display_name FROM movement.user_account WHERE id = $1::uuid",
		userID,
	).Scan(&name)
	return name, err
}
