package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Booking is the audit row for one booking request. Capacity accounting reads
// the Ticket rows, never this.
type Booking struct {
	gorm.Model
	ID       uuid.UUID `gorm:"type:uuid;primary_key"`
	Quantity int       `gorm:"not null"`
	EventID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Event    Event
	UserID   uuid.UUID `gorm:"type:uuid;not null;index"`
	User     User
	Tickets  []Ticket `gorm:"foreignKey:BookingID"`
}

func (booking *Booking) BeforeCreate(tx *gorm.DB) (err error) {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	return
}
