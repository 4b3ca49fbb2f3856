package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zevohq/zevo/internal/models"
	"github.com/zevohq/zevo/internal/services"
)

// TicketRepository backs both the booking and validation services with gorm.
// Inside WithTx every method runs against the transaction handle, so
// LockEvent's SELECT ... FOR UPDATE serializes concurrent bookings per event.
type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) WithTx(ctx context.Context, fn func(tx services.BookingStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TicketRepository{db: tx})
	})
}

func (r *TicketRepository) LockEvent(ctx context.Context, eventID uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", eventID).
		First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *TicketRepository) CountEventTickets(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count, err
}

func (r *TicketRepository) CountUserTickets(ctx context.Context, eventID, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error
	return count, err
}

func (r *TicketRepository) CreateBooking(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *TicketRepository) CreateTickets(ctx context.Context, tickets []models.Ticket) error {
	err := r.db.WithContext(ctx).Create(&tickets).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return services.ErrDuplicateToken
	}
	return err
}

func (r *TicketRepository) ListUserBookings(ctx context.Context, userID uuid.UUID) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Event").
		Preload("Tickets").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (r *TicketRepository) GetTicketByToken(ctx context.Context, token string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Preload("Event").
		Where("token = ?", token).
		First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, services.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// MarkValidated flips validated to true only if it is still false. The
// conditional update is the atomicity boundary: of two concurrent scans,
// exactly one sees RowsAffected == 1.
func (r *TicketRepository) MarkValidated(ctx context.Context, ticketID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ? AND validated = ?", ticketID, false).
		Update("validated", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
