package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/zevohq/zevo/internal/helpers"
	"github.com/zevohq/zevo/internal/models"
	"github.com/zevohq/zevo/internal/services"
)

type ValidationService interface {
	Validate(ctx context.Context, token string, validatorID uuid.UUID, role string) (*models.Ticket, error)
}

// TicketHandler exposes ticket validation over HTTP.
type TicketHandler struct {
	Service ValidationService
}

type ValidateRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *TicketHandler) ValidateTicket(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}
	role, _ := c.Get("role")
	roleName, _ := role.(string)

	ticket, err := h.Service.Validate(c.Request.Context(), req.Token, userID.(uuid.UUID), roleName)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTicketNotFound):
			helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
		case errors.Is(err, services.ErrNotEventAuthority):
			helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to validate this ticket.")
		case errors.Is(err, services.ErrAlreadyValidated):
			// A rescan is informational, not a failure: the holder is inside.
			c.JSON(http.StatusOK, gin.H{
				"message": "Ticket was already validated.",
				"ticket": gin.H{
					"id":          ticket.ID,
					"event_title": ticket.Event.Title,
					"validated":   ticket.Validated,
				},
			})
		default:
			helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to validate ticket.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ticket validated successfully.",
		"ticket": gin.H{
			"id":          ticket.ID,
			"event_title": ticket.Event.Title,
			"validated":   ticket.Validated,
		},
	})
}

// GenerateTicketQR renders the ticket's entry token as a PNG QR code. Only
// the ticket holder may fetch it.
func GenerateTicketQR(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		helpers.RespondWithError(c, http.StatusUnauthorized, "User not authenticated.")
		return
	}

	ticketIDStr := c.Param("id")
	ticketID, err := uuid.Parse(ticketIDStr)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid ticket ID.")
		return
	}

	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return
	}
	gormDB := db.(*gorm.DB)

	var ticket models.Ticket
	if err := gormDB.Where("id = ?", ticketID).First(&ticket).Error; err != nil {
		helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
		return
	}

	if ticket.UserID != userID.(uuid.UUID) {
		helpers.RespondWithError(c, http.StatusForbidden, "You don't have permission to generate QR code for this ticket.")
		return
	}

	if ticket.Validated {
		helpers.RespondWithError(c, http.StatusForbidden, "Ticket already used.")
		return
	}

	qrImage, err := qrcode.Encode(ticket.Token, qrcode.Medium, 256)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate QR code.")
		return
	}

	c.Data(http.StatusOK, "image/png", qrImage)
}
