package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event is owned by its organizer (UserID). MaxTickets is the hard capacity
// ceiling enforced by the booking service; the Tickets rows are the source of
// truth for how much of it is used.
type Event struct {
	gorm.Model
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Title       string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	StartTime   time.Time `gorm:"not null"`
	EndTime     time.Time `gorm:"not null"`
	Location    string    `gorm:"not null"`
	MaxTickets  int       `gorm:"not null"`
	User        User
	UserID      uuid.UUID
	Tickets     []Ticket `gorm:"foreignKey:EventID"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}
