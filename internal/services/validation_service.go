package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/zevohq/zevo/internal/models"
)

// ValidationStore is the persistence surface for ticket validation.
// MarkValidated must be a conditional update (validated = false -> true) that
// reports whether this call won the flip, so two concurrent scans of the same
// token resolve to exactly one success.
type ValidationStore interface {
	GetTicketByToken(ctx context.Context, token string) (*models.Ticket, error)
	MarkValidated(ctx context.Context, ticketID uuid.UUID) (bool, error)
}

type ValidationService struct {
	store ValidationStore
}

func NewValidationService(store ValidationStore) *ValidationService {
	return &ValidationService{store: store}
}

// Validate authorizes entry for the ticket identified by token. Only the
// event owner or an admin may validate. A rescan of an already-validated
// ticket returns ErrAlreadyValidated with the ticket so the caller can show
// it as informational rather than a failure.
func (s *ValidationService) Validate(ctx context.Context, token string, validatorID uuid.UUID, role string) (*models.Ticket, error) {
	ticket, err := s.store.GetTicketByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if ticket.Event.UserID != validatorID && role != models.RoleAdmin {
		return nil, ErrNotEventAuthority
	}

	won, err := s.store.MarkValidated(ctx, ticket.ID)
	if err != nil {
		return nil, fmt.Errorf("marking ticket validated: %w", err)
	}
	ticket.Validated = true
	if !won {
		return ticket, ErrAlreadyValidated
	}
	return ticket, nil
}
