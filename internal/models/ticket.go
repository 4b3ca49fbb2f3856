package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ticket is a single admission. Token is an unguessable bearer credential and
// the only thing a scanner needs to present; the unique index backs the
// token-collision retry in the booking service. Validated flips false->true
// exactly once.
type Ticket struct {
	gorm.Model
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Token     string    `gorm:"uniqueIndex;not null"`
	Validated bool      `gorm:"not null;default:false"`
	EventID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Event     Event
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	User      User
	BookingID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return
}
