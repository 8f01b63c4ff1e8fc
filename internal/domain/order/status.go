package order

import (
	"fmt"
	"slices"

	"github.com/go-faster/errors"
)

// ErrAlreadyPaid is returned when paying an order that is already settled.
var ErrAlreadyPaid = errors.New("order already paid")

// Status is the kitchen workflow state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Completed and cancelled are terminal. Orders may be paid, and so
// completed, before the kitchen marks them ready.
var transitions = map[Status][]Status{
	StatusPending:   {StatusPreparing, StatusReady, StatusCompleted, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCompleted, StatusCancelled},
	StatusReady:     {StatusCompleted, StatusCancelled},
}

// CanTransition reports whether an order in s may move to next. Staying in
// the same state is always allowed.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	return slices.Contains(transitions[s], next)
}

// TransitionError is returned when an order status change is illegal.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order cannot move from %s to %s", e.From, e.To)
}
