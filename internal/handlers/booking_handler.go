package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zevohq/zevo/internal/helpers"
	"github.com/zevohq/zevo/internal/models"
	"github.com/zevohq/zevo/internal/queue"
	"github.com/zevohq/zevo/internal/services"
)

type BookingService interface {
	Book(ctx context.Context, userID, eventID uuid.UUID, quantity int) (*services.BookingResult, error)
	ListBookings(ctx context.Context, userID uuid.UUID) ([]models.Booking, error)
}

// BookingHandler exposes the booking service over HTTP. Notify publishes the
// post-commit confirmation; it may be nil and its failures never reach the
// client.
type BookingHandler struct {
	Service BookingService
	Notify  func(ctx context.Context, event queue.BookingConfirmedEvent) error
}

type BookRequest struct {
	EventID  uuid.UUID `json:"event_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required"`
}

func (h *BookingHandler) Book(c *gin.Context) {
	var req BookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	result, err := h.Service.Book(c.Request.Context(), userID.(uuid.UUID), req.EventID, req.Quantity)
	if err != nil {
		var capErr *services.CapacityError
		switch {
		case errors.Is(err, services.ErrInvalidQuantity):
			helpers.RespondWithError(c, http.StatusBadRequest, "Quantity must be at least 1.")
		case errors.Is(err, services.ErrEventNotFound):
			helpers.RespondWithError(c, http.StatusNotFound, "Event not found.")
		case errors.As(err, &capErr):
			c.JSON(http.StatusConflict, gin.H{
				"error":     http.StatusText(http.StatusConflict),
				"message":   capErr.Error(),
				"scope":     capErr.Scope,
				"remaining": capErr.Remaining,
			})
		default:
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to book tickets.")
		}
		return
	}

	h.publishConfirmation(result)

	tickets := make([]gin.H, 0, len(result.Tickets))
	for _, ticket := range result.Tickets {
		tickets = append(tickets, gin.H{
			"id":        ticket.ID,
			"token":     ticket.Token,
			"validated": ticket.Validated,
		})
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Tickets booked successfully.",
		"booking": gin.H{
			"id":       result.Booking.ID,
			"event_id": result.Booking.EventID,
			"quantity": result.Booking.Quantity,
		},
		"tickets":             tickets,
		"remaining_for_event": result.RemainingForEvent,
		"remaining_for_user":  result.RemainingForUser,
	})
}

// publishConfirmation runs the notification collaborator fire-and-forget.
// The booking is committed already; a broker outage only costs the email.
func (h *BookingHandler) publishConfirmation(result *services.BookingResult) {
	if h.Notify == nil {
		return
	}
	event := queue.BookingConfirmedEvent{
		BookingID:  result.Booking.ID.String(),
		UserID:     result.Booking.UserID.String(),
		EventID:    result.Event.ID.String(),
		EventTitle: result.Event.Title,
		Quantity:   result.Booking.Quantity,
		BookedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.Notify(ctx, event)
	}()
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User ID not found in token.")
		return
	}

	bookings, err := h.Service.ListBookings(c.Request.Context(), userID.(uuid.UUID))
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving bookings.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}
