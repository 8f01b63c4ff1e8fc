package loyalty

import (
	"context"
	"slices"
	"sync"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/auth"
)

// --- Mock implementations ---

type mockMembershipRepo struct {
	mu          sync.Mutex
	byID        map[string]*Membership
	findErr     error
	setErr      error
	setCalls    []MembershipStatus
	createCalls int
}

func newMembershipRepo(ms ...Membership) *mockMembershipRepo {
	r := &mockMembershipRepo{byID: make(map[string]*Membership)}
	for i := range ms {
		m := ms[i]
		r.byID[m.ID] = &m
	}
	return r
}

func (r *mockMembershipRepo) sorted(filter MembershipFilter) []Membership {
	var out []Membership
	for _, m := range r.byID {
		if filter.Match(*m) {
			out = append(out, *m)
		}
	}
	slices.SortFunc(out, func(a, b Membership) int {
		if c := b.StartDate.Compare(a.StartDate); c != 0 {
			return c
		}
		if a.ID > b.ID {
			return -1
		}
		if a.ID < b.ID {
			return 1
		}
		return 0
	})
	return out
}

func (r *mockMembershipRepo) CreateMembership(_ context.Context, m *Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.byID[m.ID] = &cp
	r.createCalls++
	return nil
}

func (r *mockMembershipRepo) GetMembership(_ context.Context, id string) (*Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, ErrMembershipNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *mockMembershipRepo) FindActive(_ context.Context, customerID string) (*Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	ms := r.sorted(MembershipFilter{CustomerID: customerID, Status: StatusActive})
	if len(ms) == 0 {
		return nil, ErrMembershipNotFound
	}
	return &ms[0], nil
}

func (r *mockMembershipRepo) FindActiveInProgram(_ context.Context, customerID, programID string) (*Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ms := r.sorted(MembershipFilter{CustomerID: customerID, ProgramID: programID, Status: StatusActive})
	if len(ms) == 0 {
		return nil, ErrMembershipNotFound
	}
	return &ms[0], nil
}

func (r *mockMembershipRepo) ListMemberships(_ context.Context, filter MembershipFilter) ([]Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(filter), nil
}

func (r *mockMembershipRepo) SetStatus(_ context.Context, id string, status MembershipStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setCalls = append(r.setCalls, status)
	if r.setErr != nil {
		return r.setErr
	}
	m, ok := r.byID[id]
	if !ok {
		return ErrMembershipNotFound
	}
	m.Status = status
	return nil
}

func (r *mockMembershipRepo) CancelActiveInProgram(_ context.Context, programID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.byID {
		if m.ProgramID == programID && m.Status == StatusActive {
			m.Status = StatusCancelled
			n++
		}
	}
	return n, nil
}

func (r *mockMembershipRepo) SyncActiveInProgram(_ context.Context, programID, name string, benefits []Benefit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.byID {
		if m.ProgramID == programID && m.Status == StatusActive {
			m.ProgramName = name
			m.Benefits = benefits
		}
	}
	return nil
}

type mockProgramRepo struct {
	byID map[string]*Program
}

func newProgramRepo(ps ...Program) *mockProgramRepo {
	r := &mockProgramRepo{byID: make(map[string]*Program)}
	for i := range ps {
		p := ps[i]
		r.byID[p.ID] = &p
	}
	return r
}

func (r *mockProgramRepo) CreateProgram(_ context.Context, p *Program) error {
	cp := *p
	r.byID[p.ID] = &cp
	return nil
}

func (r *mockProgramRepo) GetProgram(_ context.Context, id string) (*Program, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, ErrProgramNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *mockProgramRepo) ListPrograms(_ context.Context) ([]Program, error) {
	out := make([]Program, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, *p)
	}
	slices.SortFunc(out, func(a, b Program) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (r *mockProgramRepo) UpdateProgram(_ context.Context, p *Program) error {
	if _, ok := r.byID[p.ID]; !ok {
		return ErrProgramNotFound
	}
	cp := *p
	r.byID[p.ID] = &cp
	return nil
}

func (r *mockProgramRepo) DeleteProgram(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrProgramNotFound
	}
	delete(r.byID, id)
	return nil
}

type mockUserRepo struct {
	byID map[string]auth.User
}

func newUserRepo(users ...auth.User) *mockUserRepo {
	r := &mockUserRepo{byID: make(map[string]auth.User)}
	for _, u := range users {
		r.byID[u.ID] = u
	}
	return r
}

func (r *mockUserRepo) FindByID(_ context.Context, id string) (*auth.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return &u, nil
}
