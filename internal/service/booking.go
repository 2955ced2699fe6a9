package service

import (
	"context"
	"errors"
	"fmt"

	"campusevents/internal/apperr"
	"campusevents/internal/audit"
	"campusevents/internal/auth"
	"campusevents/internal/model"
	"campusevents/internal/notify"

	"go.uber.org/zap"
)

// BookingService converts booking requests into persisted reservations.
type BookingService struct {
	bookings BookingStore
	events   EventStore
	users    UserStore
	audit    audit.Recorder
	notifier notify.Notifier
	log      *zap.Logger
}

// NewBookingService constructs a BookingService with its dependencies.
func NewBookingService(bookings BookingStore, events EventStore, users UserStore, rec audit.Recorder, notifier notify.Notifier, log *zap.Logger) *BookingService {
	return &BookingService{
		bookings: bookings,
		events:   events,
		users:    users,
		audit:    rec,
		notifier: notifier,
		log:      log,
	}
}

// BookEvent reserves one seat of the event for the caller. Capacity
// enforcement happens inside the store's transaction; the audit record
// and the ticket email are emitted only after the commit succeeds and
// never affect the outcome.
func (s *BookingService) BookEvent(ctx context.Context, identity auth.Identity, eventID string) (*model.Booking, error) {
	if eventID == "" {
		return nil, apperr.Validation("event_id", "is required")
	}

	booking, err := s.bookings.Book(ctx, eventID, identity.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) ||
			errors.Is(err, apperr.ErrCapacityExceeded) ||
			errors.Is(err, apperr.ErrAlreadyBooked) {
			return nil, err
		}
		return nil, fmt.Errorf("book event: %w", err)
	}

	s.audit.Record(ctx, model.ActionBookingCreated, identity.UserID, map[string]any{
		"event_id":    booking.EventID,
		"booking_id":  booking.ID,
		"ticket_code": booking.TicketCode,
	})

	// Fire-and-forget: the caller's context may end with the response,
	// but the notification belongs to the already-committed booking.
	go s.sendTicket(context.WithoutCancel(ctx), booking)
	return booking, nil
}

// sendTicket fires the post-commit QR/email notification. Lookup
// failures are logged and dropped, same as delivery failures.
func (s *BookingService) sendTicket(ctx context.Context, booking *model.Booking) {
	user, err := s.users.GetByID(ctx, booking.UserID)
	if err != nil {
		s.log.Warn("ticket notification skipped: user lookup failed",
			zap.String("booking_id", booking.ID), zap.Error(err))
		return
	}
	event, err := s.events.GetByID(ctx, booking.EventID)
	if err != nil {
		s.log.Warn("ticket notification skipped: event lookup failed",
			zap.String("booking_id", booking.ID), zap.Error(err))
		return
	}
	s.notifier.BookingConfirmed(ctx, user.Email, event, booking)
}

// MyBookings returns the caller's bookings with event details attached.
func (s *BookingService) MyBookings(ctx context.Context, identity auth.Identity) ([]model.Booking, error) {
	bookings, err := s.bookings.ListByUser(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	for i := range bookings {
		event, err := s.events.GetByID(ctx, bookings[i].EventID)
		if err != nil {
			// The event row should always exist; degrade to the bare
			// booking if it does not.
			s.log.Warn("booking references missing event",
				zap.String("booking_id", bookings[i].ID),
				zap.String("event_id", bookings[i].EventID),
			)
			continue
		}
		bookings[i].Event = event
	}
	return bookings, nil
}

// GetTicket returns the booking and its event for ticket rendering.
// Callers may only fetch their own bookings.
func (s *BookingService) GetTicket(ctx context.Context, identity auth.Identity, bookingID string) (*model.Booking, *model.Event, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("get booking: %w", err)
	}
	if booking.UserID != identity.UserID {
		return nil, nil, apperr.ErrForbidden
	}
	event, err := s.events.GetByID(ctx, booking.EventID)
	if err != nil {
		return nil, nil, fmt.Errorf("get event for booking: %w", err)
	}
	return booking, event, nil
}
