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

// EventRepository handles persistence for events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event and returns it with a generated UUID.
func (r *EventRepository) Create(ctx context.Context, e *model.Event) (*model.Event, error) {
	e.ID = uuid.New().String()
	e.BookedCount = 0
	e.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(ctx,
		`INSERT INTO events (id, title, description, location, lat, lng,
		                     start_time, end_time, capacity, booked_count,
		                     created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.Title, e.Description, e.Location, e.Lat, e.Lng,
		e.StartTime, e.EndTime, e.Capacity, e.BookedCount,
		e.CreatedBy, e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return e, nil
}

// List returns all events ordered by start time ascending.
func (r *EventRepository) List(ctx context.Context) ([]model.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, description, location, lat, lng,
		        start_time, end_time, capacity, booked_count,
		        created_by, created_at
		 FROM events
		 ORDER BY start_time ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// GetByID returns a single event or apperr.ErrNotFound.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*model.Event, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, title, description, location, lat, lng,
		        start_time, end_time, capacity, booked_count,
		        created_by, created_at
		 FROM events WHERE id = $1`,
		id,
	)

	var e model.Event
	if err := scanEvent(row, &e); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &e, nil
}

func scanEvent(row pgx.Row, e *model.Event) error {
	return row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Location, &e.Lat, &e.Lng,
		&e.StartTime, &e.EndTime, &e.Capacity, &e.BookedCount,
		&e.CreatedBy, &e.CreatedAt,
	)
}
