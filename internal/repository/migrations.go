package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT UNIQUE NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	role TEXT NOT NULL DEFAULT 'player',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS venues (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	name TEXT NOT NULL,
	address TEXT NOT NULL,
	lat DOUBLE PRECISION NOT NULL DEFAULT 0,
	lng DOUBLE PRECISION NOT NULL DEFAULT 0,
	sports TEXT[] NOT NULL DEFAULT '{}',
	images TEXT[] NOT NULL DEFAULT '{}',
	price_per_hour DOUBLE PRECISION NOT NULL,
	amenities TEXT[] NOT NULL DEFAULT '{}',
	rating DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_seeded BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS venue_slots (
	id TEXT PRIMARY KEY,
	venue_id TEXT NOT NULL REFERENCES venues(id),
	date TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'available',
	held_until TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS bookings (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	venue_id TEXT NOT NULL REFERENCES venues(id),
	slot_ids TEXT[] NOT NULL,
	total_amount DOUBLE PRECISION NOT NULL,
	commission DOUBLE PRECISION NOT NULL,
	payment_status TEXT NOT NULL DEFAULT 'pending',
	status TEXT NOT NULL DEFAULT 'pending',
	booking_code TEXT NOT NULL DEFAULT '',
	expires_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS payments (
	id TEXT PRIMARY KEY,
	booking_id TEXT NOT NULL REFERENCES bookings(id),
	amount DOUBLE PRECISION NOT NULL,
	gateway TEXT NOT NULL DEFAULT 'razorpay',
	order_id TEXT NOT NULL,
	order_kind TEXT NOT NULL DEFAULT 'gateway',
	transaction_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'created',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS reviews (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	venue_id TEXT NOT NULL REFERENCES venues(id),
	rating INT NOT NULL,
	comment TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_venue_slots_venue_date ON venue_slots(venue_id, date);
CREATE INDEX IF NOT EXISTS idx_venue_slots_status ON venue_slots(status);
CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id);
CREATE INDEX IF NOT EXISTS idx_bookings_venue ON bookings(venue_id);
CREATE INDEX IF NOT EXISTS idx_payments_booking ON payments(booking_id);
CREATE INDEX IF NOT EXISTS idx_reviews_venue ON reviews(venue_id);
`

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}
