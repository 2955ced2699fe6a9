package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusevents/internal/apperr"
	"campusevents/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// bookTimeout bounds how long a booking transaction may wait on the
// event row lock before surfacing a retryable failure.
const bookTimeout = 5 * time.Second

// BookingRepository handles persistence for bookings.
type BookingRepository struct {
	db *pgxpool.Pool
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{db: db}
}

// Book reserves one seat of an event for a user inside a single
// transaction.
//
// A naive read-then-write is racy: two transactions can both observe
// free capacity before either inserts, overbooking the event. The
// SELECT ... FOR UPDATE acquires a row-level exclusive lock on the
// event, so concurrent bookings for the same event serialize on the
// lock and exactly capacity of them can succeed. The lock works across
// process instances, which an application mutex would not.
func (r *BookingRepository) Book(ctx context.Context, eventID, userID string) (*model.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, bookTimeout)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback releases the connection and the row lock on every
	// early return; after Commit it is a no-op (pgx.ErrTxClosed).
	defer tx.Rollback(ctx)

	// Lock the event row for the duration of the check-and-insert.
	var capacity, bookedCount int
	err = tx.QueryRow(ctx,
		`SELECT capacity, booked_count
		 FROM events
		 WHERE id = $1
		 FOR UPDATE`,
		eventID,
	).Scan(&capacity, &bookedCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	// One booking per user per event.
	var dupCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE event_id = $1 AND user_id = $2`,
		eventID, userID,
	).Scan(&dupCount)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if dupCount > 0 {
		return nil, apperr.ErrAlreadyBooked
	}

	// Guard against overbooking. Covers capacity 0, which never books.
	if bookedCount >= capacity {
		return nil, apperr.ErrCapacityExceeded
	}

	_, err = tx.Exec(ctx,
		`UPDATE events SET booked_count = booked_count + 1 WHERE id = $1`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("increment booked_count: %w", err)
	}

	booking := &model.Booking{
		ID:         uuid.New().String(),
		UserID:     userID,
		EventID:    eventID,
		TicketCode: uuid.New().String(),
		CreatedAt:  time.Now().UTC(),
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO bookings (id, user_id, event_id, ticket_code, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		booking.ID, booking.UserID, booking.EventID, booking.TicketCode, booking.CreatedAt,
	)
	if err != nil {
		// The unique constraint is a backstop for the duplicate check.
		if isUniqueViolation(err, "uq_user_event_booking") {
			return nil, apperr.ErrAlreadyBooked
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return booking, nil
}

// GetByID returns a single booking or apperr.ErrNotFound.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, event_id, ticket_code, created_at
		 FROM bookings WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.UserID, &b.EventID, &b.TicketCode, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return &b, nil
}

// GetByTicketCode looks up a booking by its ticket code within an
// event. Used by check-in validation.
func (r *BookingRepository) GetByTicketCode(ctx context.Context, eventID, ticketCode string) (*model.Booking, error) {
	var b model.Booking
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, event_id, ticket_code, created_at
		 FROM bookings
		 WHERE ticket_code = $1 AND event_id = $2`,
		ticketCode, eventID,
	).Scan(&b.ID, &b.UserID, &b.EventID, &b.TicketCode, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get booking by ticket code: %w", err)
	}
	return &b, nil
}

// ListByUser returns a user's bookings, newest first.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]model.Booking, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, event_id, ticket_code, created_at
		 FROM bookings
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.EventID, &b.TicketCode, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// CountByEvent returns the number of bookings referencing an event.
func (r *BookingRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE event_id = $1`,
		eventID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return n, nil
}
