package service

import (
	"context"
	"testing"
	"time"

	"campusevents/internal/apperr"
	"campusevents/internal/auth"
	"campusevents/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBookingFixture() (*MockBookingStore, *MockEventStore, *MockUserStore, *captureRecorder, *captureNotifier, *BookingService) {
	bookings := new(MockBookingStore)
	events := new(MockEventStore)
	users := new(MockUserStore)
	rec := &captureRecorder{}
	notifier := newCaptureNotifier()
	svc := NewBookingService(bookings, events, users, rec, notifier, zap.NewNop())
	return bookings, events, users, rec, notifier, svc
}

func TestBookEvent(t *testing.T) {
	ctx := context.Background()
	caller := auth.Identity{UserID: "user-1", Role: model.RoleUser}

	event := &model.Event{
		ID:       "event-1",
		Title:    "Go Meetup",
		Location: "Main Hall",
		Capacity: 50,
	}
	user := &model.User{ID: "user-1", Email: "user@test.com", Role: model.RoleUser}
	booking := &model.Booking{
		ID:         "booking-1",
		UserID:     "user-1",
		EventID:    "event-1",
		TicketCode: "a4c9c2e8-ticket",
		CreatedAt:  time.Now().UTC(),
	}

	t.Run("success emits one audit record and one notification", func(t *testing.T) {
		bookings, events, users, rec, notifier, svc := newBookingFixture()
		bookings.On("Book", ctx, "event-1", "user-1").Return(booking, nil).Once()
		// The notification runs on its own goroutine with a detached
		// context, so the lookups cannot match on ctx.
		users.On("GetByID", mock.Anything, "user-1").Return(user, nil).Once()
		events.On("GetByID", mock.Anything, "event-1").Return(event, nil).Once()

		got, err := svc.BookEvent(ctx, caller, "event-1")

		require.NoError(t, err)
		assert.Equal(t, "booking-1", got.ID)
		assert.NotEmpty(t, got.TicketCode)

		require.Len(t, rec.records, 1)
		assert.Equal(t, model.ActionBookingCreated, rec.records[0].Action)
		assert.Equal(t, "user-1", rec.records[0].UserID)
		assert.Equal(t, "event-1", rec.records[0].Meta["event_id"])
		assert.Equal(t, "booking-1", rec.records[0].Meta["booking_id"])
		assert.Equal(t, booking.TicketCode, rec.records[0].Meta["ticket_code"])

		require.True(t, notifier.wait(2*time.Second), "notification never arrived")
		calls, email := notifier.snapshot()
		assert.Equal(t, 1, calls)
		assert.Equal(t, "user@test.com", email)
		bookings.AssertExpectations(t)
	})

	t.Run("capacity exceeded surfaces unchanged, no audit", func(t *testing.T) {
		bookings, _, _, rec, notifier, svc := newBookingFixture()
		bookings.On("Book", ctx, "event-1", "user-1").Return(nil, apperr.ErrCapacityExceeded).Once()

		_, err := svc.BookEvent(ctx, caller, "event-1")

		assert.ErrorIs(t, err, apperr.ErrCapacityExceeded)
		assert.Empty(t, rec.records)
		calls, _ := notifier.snapshot()
		assert.Zero(t, calls)
	})

	t.Run("missing event surfaces NotFound", func(t *testing.T) {
		bookings, _, _, _, _, svc := newBookingFixture()
		bookings.On("Book", ctx, "missing", "user-1").Return(nil, apperr.ErrNotFound).Once()

		_, err := svc.BookEvent(ctx, caller, "missing")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("duplicate booking surfaces AlreadyBooked", func(t *testing.T) {
		bookings, _, _, _, _, svc := newBookingFixture()
		bookings.On("Book", ctx, "event-1", "user-1").Return(nil, apperr.ErrAlreadyBooked).Once()

		_, err := svc.BookEvent(ctx, caller, "event-1")
		assert.ErrorIs(t, err, apperr.ErrAlreadyBooked)
	})

	t.Run("empty event id is a validation error", func(t *testing.T) {
		_, _, _, _, _, svc := newBookingFixture()
		_, err := svc.BookEvent(ctx, caller, "")
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("user lookup failure does not fail the booking", func(t *testing.T) {
		bookings, _, users, rec, notifier, svc := newBookingFixture()
		bookings.On("Book", ctx, "event-1", "user-1").Return(booking, nil).Once()
		done := make(chan struct{})
		users.On("GetByID", mock.Anything, "user-1").Return(nil, apperr.ErrNotFound).Once().
			Run(func(mock.Arguments) { close(done) })

		got, err := svc.BookEvent(ctx, caller, "event-1")

		require.NoError(t, err)
		assert.Equal(t, "booking-1", got.ID)
		assert.Len(t, rec.records, 1)

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("user lookup never happened")
		}
		calls, _ := notifier.snapshot()
		assert.Zero(t, calls)
	})
}

// failingRecorder imitates an unreachable audit sink: every write is
// dropped. The booking outcome must not change.
type failingRecorder struct{ attempts int }

func (r *failingRecorder) Record(context.Context, string, string, map[string]any) {
	r.attempts++
}

func TestBookEventAuditSinkUnreachable(t *testing.T) {
	ctx := context.Background()
	caller := auth.Identity{UserID: "user-1", Role: model.RoleUser}

	bookings := new(MockBookingStore)
	events := new(MockEventStore)
	users := new(MockUserStore)
	rec := &failingRecorder{}
	notifier := newCaptureNotifier()
	svc := NewBookingService(bookings, events, users, rec, notifier, zap.NewNop())

	booking := &model.Booking{ID: "b1", UserID: "user-1", EventID: "e1", TicketCode: "tc"}
	bookings.On("Book", ctx, "e1", "user-1").Return(booking, nil).Once()
	users.On("GetByID", mock.Anything, "user-1").Return(&model.User{ID: "user-1", Email: "u@t.com"}, nil).Once()
	events.On("GetByID", mock.Anything, "e1").Return(&model.Event{ID: "e1"}, nil).Once()

	got, err := svc.BookEvent(ctx, caller, "e1")

	require.NoError(t, err)
	assert.Equal(t, "b1", got.ID)
	assert.Equal(t, 1, rec.attempts)
	require.True(t, notifier.wait(2*time.Second), "notification never arrived")
}

func TestMyBookings(t *testing.T) {
	ctx := context.Background()
	caller := auth.Identity{UserID: "user-1", Role: model.RoleUser}

	bookings, events, _, _, _, svc := newBookingFixture()
	bookings.On("ListByUser", ctx, "user-1").Return([]model.Booking{
		{ID: "b1", UserID: "user-1", EventID: "e1", TicketCode: "t1"},
	}, nil).Once()
	events.On("GetByID", ctx, "e1").Return(&model.Event{ID: "e1", Title: "Go Meetup"}, nil).Once()

	got, err := svc.MyBookings(ctx, caller)

	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Event)
	assert.Equal(t, "Go Meetup", got[0].Event.Title)
}

func TestGetTicket(t *testing.T) {
	ctx := context.Background()
	owner := auth.Identity{UserID: "user-1", Role: model.RoleUser}
	stranger := auth.Identity{UserID: "user-2", Role: model.RoleUser}

	booking := &model.Booking{ID: "b1", UserID: "user-1", EventID: "e1", TicketCode: "t1"}

	t.Run("owner gets booking and event", func(t *testing.T) {
		bookings, events, _, _, _, svc := newBookingFixture()
		bookings.On("GetByID", ctx, "b1").Return(booking, nil).Once()
		events.On("GetByID", ctx, "e1").Return(&model.Event{ID: "e1"}, nil).Once()

		b, e, err := svc.GetTicket(ctx, owner, "b1")
		require.NoError(t, err)
		assert.Equal(t, "b1", b.ID)
		assert.Equal(t, "e1", e.ID)
	})

	t.Run("another user is forbidden", func(t *testing.T) {
		bookings, _, _, _, _, svc := newBookingFixture()
		bookings.On("GetByID", ctx, "b1").Return(booking, nil).Once()

		_, _, err := svc.GetTicket(ctx, stranger, "b1")
		assert.ErrorIs(t, err, apperr.ErrForbidden)
	})
}
