package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/auth"
)

const (
	findUserSQL = `SELECT id, email, name, role, created_at FROM users WHERE id = $1`

	upsertUserSQL = `INSERT INTO users (id, email, name, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			role = EXCLUDED.role`
)

var (
	_ auth.Repository = (*UserRepository)(nil)
	_ auth.Writer     = (*UserRepository)(nil)
)

// UserRepository implements auth.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*auth.User, error) {
	var (
		u    auth.User
		role string
	)
	err := r.pool.QueryRow(ctx, findUserSQL, id).Scan(&u.ID, &u.Email, &u.Name, &role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("finding user %q: %w", id, err)
	}
	u.Role = auth.Role(role)
	return &u, nil
}

func (r *UserRepository) Upsert(ctx context.Context, u *auth.User) error {
	if _, err := r.pool.Exec(ctx, upsertUserSQL, u.ID, u.Email, u.Name, string(u.Role), u.CreatedAt); err != nil {
		return fmt.Errorf("upserting user %q: %w", u.ID, err)
	}
	return nil
}
