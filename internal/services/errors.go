package services

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrTicketNotFound    = errors.New("ticket not found")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrAlreadyValidated  = errors.New("ticket already validated")
	ErrNotEventAuthority = errors.New("not authorized for this event")

	// ErrDuplicateToken is returned by stores when a minted ticket token hits
	// the unique index. The booking service retries with fresh tokens; it is
	// never surfaced to callers.
	ErrDuplicateToken = errors.New("ticket token already exists")
)

const (
	LimitScopeEvent = "event"
	LimitScopeUser  = "user"
)

// CapacityError rejects a booking that would overrun either the event
// capacity or the per-user limit. Remaining tells the client how many tickets
// it could still request.
type CapacityError struct {
	Scope     string
	Remaining int
}

func (e *CapacityError) Error() string {
	if e.Scope == LimitScopeUser {
		return fmt.Sprintf("per-user ticket limit reached, %d remaining", e.Remaining)
	}
	return fmt.Sprintf("event capacity reached, %d remaining", e.Remaining)
}
