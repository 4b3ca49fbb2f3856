package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/zevohq/zevo/internal/helpers"
	"github.com/zevohq/zevo/internal/models"
)

// BookingStore is the transactional persistence surface the booking service
// needs. WithTx must run fn inside a single transaction; LockEvent must hold
// an exclusive lock on the event row until that transaction ends, so the
// count-then-insert sequence below cannot interleave with another booking for
// the same event.
type BookingStore interface {
	WithTx(ctx context.Context, fn func(tx BookingStore) error) error
	LockEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error)
	CountEventTickets(ctx context.Context, eventID uuid.UUID) (int64, error)
	CountUserTickets(ctx context.Context, eventID, userID uuid.UUID) (int64, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	CreateTickets(ctx context.Context, tickets []models.Ticket) error
	ListUserBookings(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
}

// BookingResult is what a successful booking returns: the minted tickets plus
// how much headroom is left after this reservation.
type BookingResult struct {
	Booking           *models.Booking
	Tickets           []models.Ticket
	Event             *models.Event
	RemainingForEvent int
	RemainingForUser  int
}

type BookingService struct {
	store        BookingStore
	perUserLimit int
}

// maxMintAttempts bounds token-collision retries. A collision needs two equal
// 256-bit random values, so a second attempt is already overkill.
const maxMintAttempts = 3

func NewBookingService(store BookingStore, perUserLimit int) *BookingService {
	return &BookingService{store: store, perUserLimit: perUserLimit}
}

// Book reserves quantity tickets for userID on eventID, all or nothing.
// The capacity check and the ticket inserts run inside one transaction with
// the event row locked, so concurrent bookings for the same event serialize
// and neither the event capacity nor the per-user limit can be overrun.
// Bookings for different events take different row locks and do not contend.
func (s *BookingService) Book(ctx context.Context, userID, eventID uuid.UUID, quantity int) (*BookingResult, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	// A duplicate token aborts the surrounding transaction, so the retry has
	// to restart the whole reservation, not just the insert.
	var lastErr error
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		result, err := s.bookOnce(ctx, userID, eventID, quantity)
		if errors.Is(err, ErrDuplicateToken) {
			lastErr = err
			continue
		}
		return result, err
	}
	return nil, fmt.Errorf("minting tickets: %w", lastErr)
}

func (s *BookingService) bookOnce(ctx context.Context, userID, eventID uuid.UUID, quantity int) (*BookingResult, error) {
	var result *BookingResult

	err := s.store.WithTx(ctx, func(tx BookingStore) error {
		event, err := tx.LockEvent(ctx, eventID)
		if err != nil {
			return err
		}

		issued, err := tx.CountEventTickets(ctx, eventID)
		if err != nil {
			return fmt.Errorf("counting event tickets: %w", err)
		}
		held, err := tx.CountUserTickets(ctx, eventID, userID)
		if err != nil {
			return fmt.Errorf("counting user tickets: %w", err)
		}

		remainingForEvent := event.MaxTickets - int(issued)
		remainingForUser := s.perUserLimit - int(held)

		if quantity > remainingForEvent {
			return &CapacityError{Scope: LimitScopeEvent, Remaining: max(remainingForEvent, 0)}
		}
		if quantity > remainingForUser {
			return &CapacityError{Scope: LimitScopeUser, Remaining: max(remainingForUser, 0)}
		}

		booking := &models.Booking{
			ID:       uuid.New(),
			Quantity: quantity,
			EventID:  eventID,
			UserID:   userID,
		}
		if err := tx.CreateBooking(ctx, booking); err != nil {
			return fmt.Errorf("creating booking: %w", err)
		}

		tickets := make([]models.Ticket, 0, quantity)
		for i := 0; i < quantity; i++ {
			token, err := helpers.NewTicketToken()
			if err != nil {
				return fmt.Errorf("generating token: %w", err)
			}
			tickets = append(tickets, models.Ticket{
				ID:        uuid.New(),
				Token:     token,
				EventID:   eventID,
				UserID:    userID,
				BookingID: booking.ID,
			})
		}
		if err := tx.CreateTickets(ctx, tickets); err != nil {
			return err
		}

		result = &BookingResult{
			Booking:           booking,
			Tickets:           tickets,
			Event:             event,
			RemainingForEvent: remainingForEvent - quantity,
			RemainingForUser:  remainingForUser - quantity,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListBookings returns the user's booking history, newest first.
func (s *BookingService) ListBookings(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	return s.store.ListUserBookings(ctx, userID)
}
