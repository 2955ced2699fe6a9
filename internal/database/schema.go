package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is the relational layout for the service. The unique constraint
// on (user_id, event_id) backs the one-booking-per-user rule, and the
// partial check on capacity keeps the invariant count(bookings) <= capacity
// honest even outside the locked transaction.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'user',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS events (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	location     TEXT NOT NULL,
	lat          DOUBLE PRECISION,
	lng          DOUBLE PRECISION,
	start_time   TIMESTAMPTZ NOT NULL,
	end_time     TIMESTAMPTZ NOT NULL,
	capacity     INTEGER NOT NULL CHECK (capacity >= 0),
	booked_count INTEGER NOT NULL DEFAULT 0 CHECK (booked_count >= 0),
	created_by   TEXT NOT NULL REFERENCES users(id),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (booked_count <= capacity)
);

CREATE TABLE IF NOT EXISTS bookings (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL REFERENCES users(id),
	event_id    TEXT NOT NULL REFERENCES events(id),
	ticket_code TEXT NOT NULL UNIQUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT uq_user_event_booking UNIQUE (user_id, event_id)
);

CREATE INDEX IF NOT EXISTS idx_bookings_user_id  ON bookings(user_id);
CREATE INDEX IF NOT EXISTS idx_bookings_event_id ON bookings(event_id);
`

// InitSchema creates the tables if they do not exist yet.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}
