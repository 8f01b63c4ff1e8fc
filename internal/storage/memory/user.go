package memory

import (
	"context"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/auth"
)

var (
	_ auth.Repository = (*UserRepository)(nil)
	_ auth.Writer     = (*UserRepository)(nil)
)

// UserRepository keeps users in memory.
type UserRepository struct {
	t *table[auth.User]
}

func NewUserRepository() *UserRepository {
	return &UserRepository{t: newTable[auth.User]()}
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	u, ok := r.t.get(id)
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepository) Upsert(_ context.Context, u *auth.User) error {
	r.t.set(u.ID, *u)
	return nil
}
