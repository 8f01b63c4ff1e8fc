package auth

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"
)

// ErrUserNotFound is returned when a user id is unknown.
var ErrUserNotFound = errors.New("user not found")

// Role is the staff or customer role carried by a user account.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleKitchen  Role = "kitchen"
	RoleCashier  Role = "cashier"
	RoleWaiter   Role = "waiter"
	RoleStorage  Role = "storage"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleKitchen, RoleCashier, RoleWaiter, RoleStorage, RoleAdmin:
		return true
	}
	return false
}

// User is an account known to the service. Credentials live elsewhere.
type User struct {
	ID        string
	Email     string
	Name      string
	Role      Role
	CreatedAt time.Time
}

// Repository provides lookup of users by id.
type Repository interface {
	FindByID(ctx context.Context, id string) (*User, error)
}

// Writer upserts user accounts.
type Writer interface {
	Upsert(ctx context.Context, u *User) error
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Role   Role
}

// HasRole reports whether the principal holds any of roles.
func (p Principal) HasRole(roles ...Role) bool {
	return slices.Contains(roles, p.Role)
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom extracts the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
