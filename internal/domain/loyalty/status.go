package loyalty

import (
	"fmt"
	"slices"
)

// MembershipStatus is the lifecycle state of a membership.
type MembershipStatus string

const (
	StatusActive    MembershipStatus = "active"
	StatusExpired   MembershipStatus = "expired"
	StatusCancelled MembershipStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s MembershipStatus) Valid() bool {
	switch s {
	case StatusActive, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Expired and cancelled are terminal.
var membershipTransitions = map[MembershipStatus][]MembershipStatus{
	StatusActive: {StatusExpired, StatusCancelled},
}

// CanTransition reports whether a membership in s may move to next.
// Staying in the same state is always allowed.
func (s MembershipStatus) CanTransition(next MembershipStatus) bool {
	if s == next {
		return true
	}
	return slices.Contains(membershipTransitions[s], next)
}

// TransitionError is returned when a membership status change is illegal.
type TransitionError struct {
	From MembershipStatus
	To   MembershipStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("membership cannot move from %s to %s", e.From, e.To)
}
