package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS drivers (
		id           TEXT PRIMARY KEY,
		name         TEXT,
		phone        TEXT,
		status       TEXT NOT NULL DEFAULT 'OFFLINE',
		rating       DOUBLE PRECISION NOT NULL DEFAULT 0,
		rating_count INTEGER NOT NULL DEFAULT 0,
		trip_count   INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS driver_province_visits (
		driver_id TEXT NOT NULL REFERENCES drivers(id),
		province  TEXT NOT NULL,
		visits    INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (driver_id, province)
	)`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id          TEXT PRIMARY KEY,
		plate       TEXT,
		model       TEXT,
		category    TEXT NOT NULL,
		rate_per_km DOUBLE PRECISION NOT NULL DEFAULT 0,
		seats       INTEGER NOT NULL DEFAULT 4
	)`,
	`CREATE TABLE IF NOT EXISTS vehicle_maintenance (
		vehicle_id TEXT NOT NULL REFERENCES vehicles(id),
		start_at   TIMESTAMPTZ NOT NULL,
		end_at     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS trips (
		id               TEXT PRIMARY KEY,
		customer_id      TEXT NOT NULL,
		driver_id        TEXT,
		vehicle_id       TEXT,
		pickup_lat       DOUBLE PRECISION NOT NULL,
		pickup_lng       DOUBLE PRECISION NOT NULL,
		pickup_address   TEXT,
		pickup_province  TEXT,
		dropoff_lat      DOUBLE PRECISION NOT NULL,
		dropoff_lng      DOUBLE PRECISION NOT NULL,
		dropoff_address  TEXT,
		dropoff_province TEXT,
		kind             TEXT NOT NULL,
		start_date       TIMESTAMPTZ NOT NULL,
		end_date         TIMESTAMPTZ,
		distance_km      DOUBLE PRECISION NOT NULL DEFAULT 0,
		base_price       DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (base_price >= 0),
		price            DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (price >= 0),
		promo_code       TEXT,
		discount_amount  DOUBLE PRECISION NOT NULL DEFAULT 0,
		status           TEXT NOT NULL,
		notes            TEXT,
		reject_reason    TEXT,
		version          INTEGER NOT NULL DEFAULT 1,
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS trips_driver_active_idx ON trips (driver_id, start_date)
		WHERE status IN ('PENDING', 'ACCEPTED', 'PROCESSING')`,
	`CREATE INDEX IF NOT EXISTS trips_customer_idx ON trips (customer_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS trip_assignments (
		trip_id     TEXT NOT NULL REFERENCES trips(id),
		seq         INTEGER NOT NULL,
		driver_id   TEXT NOT NULL,
		vehicle_id  TEXT,
		status      TEXT NOT NULL,
		reason      TEXT,
		assigned_at TIMESTAMPTZ NOT NULL,
		closed_at   TIMESTAMPTZ,
		PRIMARY KEY (trip_id, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS trip_events (
		id          BIGSERIAL PRIMARY KEY,
		trip_id     TEXT NOT NULL REFERENCES trips(id),
		from_status TEXT,
		to_status   TEXT NOT NULL,
		actor_id    TEXT NOT NULL,
		actor_role  TEXT NOT NULL,
		reason      TEXT,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS promotions (
		id            TEXT PRIMARY KEY,
		code          TEXT NOT NULL UNIQUE,
		discount_type TEXT NOT NULL,
		value         DOUBLE PRECISION NOT NULL,
		max_discount  DOUBLE PRECISION NOT NULL DEFAULT 0,
		min_amount    DOUBLE PRECISION NOT NULL DEFAULT 0,
		expires_at    TIMESTAMPTZ,
		usage_limit   INTEGER NOT NULL,
		used_count    INTEGER NOT NULL DEFAULT 0,
		active        BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS ratings (
		id          TEXT PRIMARY KEY,
		trip_id     TEXT NOT NULL REFERENCES trips(id),
		driver_id   TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		stars       INTEGER NOT NULL CHECK (stars BETWEEN 1 AND 5),
		comment     TEXT,
		created_at  TIMESTAMPTZ NOT NULL,
		UNIQUE (trip_id, customer_id)
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id              TEXT PRIMARY KEY,
		trip_id         TEXT NOT NULL REFERENCES trips(id),
		amount          DOUBLE PRECISION NOT NULL,
		method          TEXT NOT NULL,
		status          TEXT NOT NULL,
		idempotency_key TEXT NOT NULL UNIQUE,
		created_at      TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate creates any missing tables and indexes.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i, err)
		}
	}
	return nil
}
