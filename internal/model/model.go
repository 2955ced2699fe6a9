// Package model defines the core domain types for the event booking system.
package model

import (
	"encoding/json"
	"time"
)

// Roles attached to a user account. Only admins may create events.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is a registered account. The password is stored only as a bcrypt hash.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Event represents a bookable event created by an admin.
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location"`
	Lat         *float64  `json:"lat,omitempty"`
	Lng         *float64  `json:"lng,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Capacity    int       `json:"capacity"`
	BookedCount int       `json:"booked_count"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Remaining returns the number of available seats.
func (e *Event) Remaining() int {
	if r := e.Capacity - e.BookedCount; r > 0 {
		return r
	}
	return 0
}

// IsFull returns true when no seats remain.
func (e *Event) IsFull() bool {
	return e.BookedCount >= e.Capacity
}

// MarshalJSON adds the derived availability fields clients render.
func (e Event) MarshalJSON() ([]byte, error) {
	type alias Event
	return json.Marshal(struct {
		alias
		Remaining int  `json:"remaining"`
		SoldOut   bool `json:"sold_out"`
	}{alias(e), e.Remaining(), e.IsFull()})
}

// Booking is a confirmed reservation of one seat. Bookings are never
// mutated after creation; the ticket code identifies them at check-in.
type Booking struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	EventID    string    `json:"event_id"`
	TicketCode string    `json:"ticket_code"`
	CreatedAt  time.Time `json:"created_at"`

	// Event is attached on listing endpoints for client convenience.
	Event *Event `json:"event,omitempty"`
}

// Audit actions recorded in the document log store.
const (
	ActionUserRegistered = "user_registered"
	ActionUserLogin      = "user_login"
	ActionUserLogout     = "user_logout"
	ActionEventCreated   = "event_created"
	ActionBookingCreated = "booking_created"
	ActionCheckinValid   = "checkin_valid"
	ActionCheckinInvalid = "checkin_invalid"
	ActionCheckinDenied  = "checkin_denied"
)

// AuditRecord is an append-only log entry describing a domain action.
type AuditRecord struct {
	Action    string         `bson:"action" json:"action"`
	UserID    string         `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Meta      map[string]any `bson:"meta" json:"meta"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
	Source    string         `bson:"source,omitempty" json:"source,omitempty"`
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the payload for starting a session.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateEventRequest is the payload for creating a new event.
type CreateEventRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
	StartTime   string   `json:"start_time"` // RFC 3339
	EndTime     string   `json:"end_time"`   // RFC 3339
	Capacity    int      `json:"capacity"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
