// Package queue defines message payloads published to the message broker.
package queue

// BookingConfirmedEvent is published after a booking commits. It identifies
// the booking, holder, and event; a notification worker resolves contact
// details from the user id.
type BookingConfirmedEvent struct {
	BookingID  string `json:"booking_id"`
	UserID     string `json:"user_id"`
	EventID    string `json:"event_id"`
	EventTitle string `json:"event_title"`
	Quantity   int    `json:"quantity"`
	BookedAt   string `json:"booked_at"`
}
