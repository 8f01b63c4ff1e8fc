package loyalty

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Resolver finds the membership that applies to a customer's order.
type Resolver struct {
	memberships MembershipRepository
	now         func() time.Time
}

// NewResolver creates a Resolver backed by the given repository.
func NewResolver(memberships MembershipRepository) *Resolver {
	return &Resolver{memberships: memberships, now: time.Now}
}

// ResolveActive returns the customer's current active membership or nil.
//
// Guests (empty id) never have one. When several memberships are active the
// most recently assigned wins. A membership past its end date is written
// back as expired and not returned; the caller proceeds as a non-member.
func (r *Resolver) ResolveActive(ctx context.Context, customerID string) (*Membership, error) {
	if customerID == "" {
		return nil, nil
	}

	m, err := r.memberships.FindActive(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find active membership")
	}

	if m.ExpiredAt(r.now()) {
		if err := r.memberships.SetStatus(ctx, m.ID, StatusExpired); err != nil {
			zctx.From(ctx).Warn("Expire membership",
				zap.String("membership_id", m.ID),
				zap.Error(err),
			)
		}
		return nil, nil
	}

	return m, nil
}
