// Package service implements business logic, validation, and
// orchestration between HTTP handlers and the repository layer.
package service

import (
	"context"

	"campusevents/internal/model"
)

// UserStore is the persistence surface the services need for users.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash, role string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// EventStore is the persistence surface for events.
type EventStore interface {
	Create(ctx context.Context, e *model.Event) (*model.Event, error)
	List(ctx context.Context) ([]model.Event, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
}

// BookingStore is the persistence surface for bookings. Book must
// enforce the capacity invariant atomically.
type BookingStore interface {
	Book(ctx context.Context, eventID, userID string) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]model.Booking, error)
}
