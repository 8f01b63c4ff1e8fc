package loyalty

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrProgramNotFound is returned when a loyalty program id is unknown.
	ErrProgramNotFound = errors.New("program not found")
	// ErrMembershipNotFound is returned when no membership matches a lookup.
	ErrMembershipNotFound = errors.New("membership not found")
)

// DurationType is the unit of a program's membership duration.
type DurationType string

const (
	DurationDays     DurationType = "days"
	DurationMonths   DurationType = "months"
	DurationYears    DurationType = "years"
	DurationLifetime DurationType = "lifetime"
)

// Valid reports whether d is a known duration type.
func (d DurationType) Valid() bool {
	switch d {
	case DurationDays, DurationMonths, DurationYears, DurationLifetime:
		return true
	}
	return false
}

// DefaultColor is the badge color used when a program does not set one.
const DefaultColor = "#D9A54C"

// Program is a loyalty program customers can be enrolled into.
type Program struct {
	ID            string
	Name          string
	Description   string
	DurationType  DurationType
	DurationValue int // zero for lifetime
	Benefits      []Benefit
	IsGroup       bool
	Color         string
	CreatedAt     time.Time
}

// Validate checks the program definition before it is stored.
func (p *Program) Validate() error {
	if p.Name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if !p.DurationType.Valid() {
		return &ValidationError{Field: "duration_type", Reason: fmt.Sprintf("unknown value %q", p.DurationType)}
	}
	if p.DurationType != DurationLifetime && p.DurationValue <= 0 {
		return &ValidationError{Field: "duration_value", Reason: "must be greater than 0 unless lifetime"}
	}
	for i, b := range p.Benefits {
		if err := b.Validate(); err != nil {
			return errors.Wrapf(err, "benefit %d", i)
		}
	}
	return nil
}

// EndDate returns when a membership starting at start expires, or nil for
// lifetime programs. Months count as 30 days and years as 365 days.
func (p *Program) EndDate(start time.Time) *time.Time {
	var days int
	switch p.DurationType {
	case DurationDays:
		days = p.DurationValue
	case DurationMonths:
		days = p.DurationValue * 30
	case DurationYears:
		days = p.DurationValue * 365
	default:
		return nil
	}
	if days <= 0 {
		return nil
	}
	end := start.AddDate(0, 0, days)
	return &end
}

// ProgramView is a program enriched with membership data for admin reads.
type ProgramView struct {
	Program
	ActiveMembers int
	Members       []MemberView
}

// Membership is a customer's enrollment in a program. Name and benefits are
// copied from the program at assignment or program update time.
type Membership struct {
	ID          string
	CustomerID  string
	ProgramID   string
	ProgramName string
	StartDate   time.Time
	EndDate     *time.Time // nil for lifetime
	Status      MembershipStatus
	Benefits    []Benefit
}

// ExpiredAt reports whether the membership's end date is strictly before now.
func (m *Membership) ExpiredAt(now time.Time) bool {
	return m.EndDate != nil && m.EndDate.Before(now)
}

// MemberView is a membership with the customer's contact details attached.
type MemberView struct {
	Membership
	CustomerName  string
	CustomerEmail string
}

// MembershipFilter narrows a membership listing. Empty fields match all.
type MembershipFilter struct {
	Status     MembershipStatus
	CustomerID string
	ProgramID  string
}

// Match reports whether m passes the filter.
func (f MembershipFilter) Match(m Membership) bool {
	if f.Status != "" && m.Status != f.Status {
		return false
	}
	if f.CustomerID != "" && m.CustomerID != f.CustomerID {
		return false
	}
	if f.ProgramID != "" && m.ProgramID != f.ProgramID {
		return false
	}
	return true
}

// ProgramRepository persists loyalty programs.
type ProgramRepository interface {
	CreateProgram(ctx context.Context, p *Program) error
	GetProgram(ctx context.Context, id string) (*Program, error)
	ListPrograms(ctx context.Context) ([]Program, error)
	// UpdateProgram returns ErrProgramNotFound when no row matches.
	UpdateProgram(ctx context.Context, p *Program) error
	// DeleteProgram returns ErrProgramNotFound when no row matches.
	DeleteProgram(ctx context.Context, id string) error
}

// MembershipRepository persists customer memberships.
type MembershipRepository interface {
	CreateMembership(ctx context.Context, m *Membership) error
	GetMembership(ctx context.Context, id string) (*Membership, error)
	// FindActive returns the most recently assigned active membership of the
	// customer (start_date desc, id desc) or ErrMembershipNotFound.
	FindActive(ctx context.Context, customerID string) (*Membership, error)
	// FindActiveInProgram returns ErrMembershipNotFound when the customer has
	// no active membership in the program.
	FindActiveInProgram(ctx context.Context, customerID, programID string) (*Membership, error)
	ListMemberships(ctx context.Context, filter MembershipFilter) ([]Membership, error)
	// SetStatus returns ErrMembershipNotFound when no row matches.
	SetStatus(ctx context.Context, id string, status MembershipStatus) error
	// CancelActiveInProgram cancels every active membership of a program and
	// returns how many changed.
	CancelActiveInProgram(ctx context.Context, programID string) (int, error)
	// SyncActiveInProgram copies name and benefits to the program's active
	// memberships.
	SyncActiveInProgram(ctx context.Context, programID, name string, benefits []Benefit) error
}

// ValidationError reports a malformed field in loyalty input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
