package loyalty

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/auth"
)

// Service implements loyalty program administration and membership
// assignment.
type Service struct {
	programs    ProgramRepository
	memberships MembershipRepository
	customers   auth.Repository
	strict      bool
	now         func() time.Time
}

// NewService creates a Service. When strict is set, illegal membership
// status transitions are rejected with a *TransitionError.
func NewService(
	programs ProgramRepository,
	memberships MembershipRepository,
	customers auth.Repository,
	strict bool,
) *Service {
	return &Service{
		programs:    programs,
		memberships: memberships,
		customers:   customers,
		strict:      strict,
		now:         time.Now,
	}
}

// CreateProgram validates and stores a new program.
func (s *Service) CreateProgram(ctx context.Context, p Program) (*Program, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.ID = uuid.New().String()
	p.CreatedAt = s.now().UTC()
	if p.Color == "" {
		p.Color = DefaultColor
	}
	if p.DurationType == DurationLifetime {
		p.DurationValue = 0
	}
	if err := s.programs.CreateProgram(ctx, &p); err != nil {
		return nil, errors.Wrap(err, "create program")
	}
	return &p, nil
}

// GetProgram returns a program with its active members.
func (s *Service) GetProgram(ctx context.Context, id string) (*ProgramView, error) {
	p, err := s.programs.GetProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	members, err := s.ListMemberships(ctx, MembershipFilter{ProgramID: id, Status: StatusActive})
	if err != nil {
		return nil, err
	}
	return &ProgramView{Program: *p, ActiveMembers: len(members), Members: members}, nil
}

// ListPrograms returns every program with its active member count.
func (s *Service) ListPrograms(ctx context.Context) ([]ProgramView, error) {
	programs, err := s.programs.ListPrograms(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list programs")
	}
	active, err := s.memberships.ListMemberships(ctx, MembershipFilter{Status: StatusActive})
	if err != nil {
		return nil, errors.Wrap(err, "list active memberships")
	}
	counts := make(map[string]int, len(programs))
	for _, m := range active {
		counts[m.ProgramID]++
	}

	views := make([]ProgramView, len(programs))
	for i, p := range programs {
		views[i] = ProgramView{Program: p, ActiveMembers: counts[p.ID]}
	}
	return views, nil
}

// UpdateProgram replaces a program definition and pushes its new name and
// benefits to the program's active memberships.
func (s *Service) UpdateProgram(ctx context.Context, id string, p Program) (*Program, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.programs.GetProgram(ctx, id)
	if err != nil {
		return nil, err
	}
	p.ID = id
	p.CreatedAt = existing.CreatedAt
	if p.Color == "" {
		p.Color = DefaultColor
	}
	if p.DurationType == DurationLifetime {
		p.DurationValue = 0
	}
	if err := s.programs.UpdateProgram(ctx, &p); err != nil {
		return nil, err
	}
	if err := s.memberships.SyncActiveInProgram(ctx, id, p.Name, p.Benefits); err != nil {
		return nil, errors.Wrap(err, "sync memberships")
	}
	return &p, nil
}

// DeleteProgram cancels the program's active memberships and removes it.
func (s *Service) DeleteProgram(ctx context.Context, id string) error {
	if _, err := s.programs.GetProgram(ctx, id); err != nil {
		return err
	}
	n, err := s.memberships.CancelActiveInProgram(ctx, id)
	if err != nil {
		return errors.Wrap(err, "cancel memberships")
	}
	if err := s.programs.DeleteProgram(ctx, id); err != nil {
		return err
	}
	zctx.From(ctx).Info("Program deleted",
		zap.String("program_id", id),
		zap.Int("cancelled_memberships", n),
	)
	return nil
}

// AssignMemberships enrolls customers into a program. Unknown customers and
// customers already holding an active membership in the program are
// skipped. The created memberships are returned; the slice may be empty.
func (s *Service) AssignMemberships(ctx context.Context, programID string, customerIDs []string) ([]Membership, error) {
	p, err := s.programs.GetProgram(ctx, programID)
	if err != nil {
		return nil, err
	}

	start := s.now().UTC()
	end := p.EndDate(start)
	lg := zctx.From(ctx)

	created := make([]Membership, 0, len(customerIDs))
	for _, customerID := range customerIDs {
		if _, err := s.customers.FindByID(ctx, customerID); err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				lg.Debug("Skip unknown customer", zap.String("customer_id", customerID))
				continue
			}
			return nil, errors.Wrapf(err, "find customer %s", customerID)
		}

		_, err := s.memberships.FindActiveInProgram(ctx, customerID, programID)
		switch {
		case err == nil:
			lg.Debug("Skip existing membership", zap.String("customer_id", customerID))
			continue
		case !errors.Is(err, ErrMembershipNotFound):
			return nil, errors.Wrapf(err, "find membership of %s", customerID)
		}

		m := Membership{
			ID:          uuid.New().String(),
			CustomerID:  customerID,
			ProgramID:   programID,
			ProgramName: p.Name,
			StartDate:   start,
			EndDate:     end,
			Status:      StatusActive,
			Benefits:    p.Benefits,
		}
		if err := s.memberships.CreateMembership(ctx, &m); err != nil {
			return nil, errors.Wrapf(err, "create membership for %s", customerID)
		}
		created = append(created, m)
	}

	lg.Info("Memberships assigned",
		zap.String("program_id", programID),
		zap.Int("requested", len(customerIDs)),
		zap.Int("created", len(created)),
	)
	return created, nil
}

// ListMemberships returns memberships matching filter with customer contact
// details attached where the customer is known.
func (s *Service) ListMemberships(ctx context.Context, filter MembershipFilter) ([]MemberView, error) {
	ms, err := s.memberships.ListMemberships(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "list memberships")
	}

	views := make([]MemberView, len(ms))
	for i, m := range ms {
		views[i] = MemberView{Membership: m}
		u, err := s.customers.FindByID(ctx, m.CustomerID)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				continue
			}
			return nil, errors.Wrapf(err, "find customer %s", m.CustomerID)
		}
		views[i].CustomerName = u.Name
		views[i].CustomerEmail = u.Email
	}
	return views, nil
}

// CustomerMemberships returns the customer's active memberships.
func (s *Service) CustomerMemberships(ctx context.Context, customerID string) ([]Membership, error) {
	ms, err := s.memberships.ListMemberships(ctx, MembershipFilter{
		CustomerID: customerID,
		Status:     StatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("list memberships of %q: %w", customerID, err)
	}
	return ms, nil
}

// CancelMembership moves a membership to cancelled.
func (s *Service) CancelMembership(ctx context.Context, id string) error {
	m, err := s.memberships.GetMembership(ctx, id)
	if err != nil {
		return err
	}
	if m.Status == StatusCancelled {
		return nil
	}
	if s.strict && !m.Status.CanTransition(StatusCancelled) {
		return &TransitionError{From: m.Status, To: StatusCancelled}
	}
	return s.memberships.SetStatus(ctx, id, StatusCancelled)
}
