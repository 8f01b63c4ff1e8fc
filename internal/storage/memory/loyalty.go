package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/loyalty"
)

var (
	_ loyalty.ProgramRepository    = (*LoyaltyRepository)(nil)
	_ loyalty.MembershipRepository = (*LoyaltyRepository)(nil)
)

// LoyaltyRepository keeps programs and memberships in memory.
type LoyaltyRepository struct {
	programs    *table[loyalty.Program]
	memberships *table[loyalty.Membership]
}

func NewLoyaltyRepository() *LoyaltyRepository {
	return &LoyaltyRepository{
		programs:    newTable[loyalty.Program](),
		memberships: newTable[loyalty.Membership](),
	}
}

func (r *LoyaltyRepository) CreateProgram(_ context.Context, p *loyalty.Program) error {
	r.programs.set(p.ID, *p)
	return nil
}

func (r *LoyaltyRepository) GetProgram(_ context.Context, id string) (*loyalty.Program, error) {
	p, ok := r.programs.get(id)
	if !ok {
		return nil, loyalty.ErrProgramNotFound
	}
	return &p, nil
}

func (r *LoyaltyRepository) ListPrograms(_ context.Context) ([]loyalty.Program, error) {
	return r.programs.list(nil), nil
}

func (r *LoyaltyRepository) UpdateProgram(_ context.Context, p *loyalty.Program) error {
	if !r.programs.update(p.ID, func(old *loyalty.Program) { *old = *p }) {
		return loyalty.ErrProgramNotFound
	}
	return nil
}

func (r *LoyaltyRepository) DeleteProgram(_ context.Context, id string) error {
	if !r.programs.delete(id) {
		return loyalty.ErrProgramNotFound
	}
	return nil
}

func (r *LoyaltyRepository) CreateMembership(_ context.Context, m *loyalty.Membership) error {
	r.memberships.set(m.ID, *m)
	return nil
}

func (r *LoyaltyRepository) GetMembership(_ context.Context, id string) (*loyalty.Membership, error) {
	m, ok := r.memberships.get(id)
	if !ok {
		return nil, loyalty.ErrMembershipNotFound
	}
	return &m, nil
}

func (r *LoyaltyRepository) FindActive(_ context.Context, customerID string) (*loyalty.Membership, error) {
	return r.firstActive(loyalty.MembershipFilter{CustomerID: customerID, Status: loyalty.StatusActive})
}

func (r *LoyaltyRepository) FindActiveInProgram(_ context.Context, customerID, programID string) (*loyalty.Membership, error) {
	return r.firstActive(loyalty.MembershipFilter{
		CustomerID: customerID,
		ProgramID:  programID,
		Status:     loyalty.StatusActive,
	})
}

func (r *LoyaltyRepository) firstActive(filter loyalty.MembershipFilter) (*loyalty.Membership, error) {
	ms := r.sorted(filter)
	if len(ms) == 0 {
		return nil, loyalty.ErrMembershipNotFound
	}
	return &ms[0], nil
}

// ListMemberships returns matching memberships, most recently started first.
func (r *LoyaltyRepository) ListMemberships(_ context.Context, filter loyalty.MembershipFilter) ([]loyalty.Membership, error) {
	return r.sorted(filter), nil
}

func (r *LoyaltyRepository) sorted(filter loyalty.MembershipFilter) []loyalty.Membership {
	ms := r.memberships.list(filter.Match)
	slices.SortStableFunc(ms, func(a, b loyalty.Membership) int {
		if c := b.StartDate.Compare(a.StartDate); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return ms
}

func (r *LoyaltyRepository) SetStatus(_ context.Context, id string, status loyalty.MembershipStatus) error {
	if !r.memberships.update(id, func(m *loyalty.Membership) { m.Status = status }) {
		return loyalty.ErrMembershipNotFound
	}
	return nil
}

func (r *LoyaltyRepository) CancelActiveInProgram(_ context.Context, programID string) (int, error) {
	n := r.memberships.updateWhere(
		activeIn(programID),
		func(m *loyalty.Membership) { m.Status = loyalty.StatusCancelled },
	)
	return n, nil
}

func (r *LoyaltyRepository) SyncActiveInProgram(_ context.Context, programID, name string, benefits []loyalty.Benefit) error {
	r.memberships.updateWhere(
		activeIn(programID),
		func(m *loyalty.Membership) {
			m.ProgramName = name
			m.Benefits = slices.Clone(benefits)
		},
	)
	return nil
}

func activeIn(programID string) func(loyalty.Membership) bool {
	f := loyalty.MembershipFilter{ProgramID: programID, Status: loyalty.StatusActive}
	return f.Match
}
