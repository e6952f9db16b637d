package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Tables lists every table owned by the booking engine, in creation order.
var Tables = []string{
	"users",
	"vehicles",
	"change_requests",
	"trips",
	"trip_stops",
	"bookings",
	"negotiation_events",
	"blocked_users",
}

var ddl = map[string]string{
	"users": `CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		name VARCHAR(120) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'ACTIVE',
		gender VARCHAR(10) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	"vehicles": `CREATE TABLE IF NOT EXISTS vehicles (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		owner_id BIGINT NOT NULL,
		plate_number VARCHAR(30) NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
		KEY idx_vehicles_owner (owner_id)
	)`,
	"change_requests": `CREATE TABLE IF NOT EXISTS change_requests (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		user_id BIGINT NOT NULL,
		entity_type VARCHAR(30) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
		requested_changes JSON NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_change_requests_user (user_id, status)
	)`,
	"trips": `CREATE TABLE IF NOT EXISTS trips (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		driver_id BIGINT NOT NULL,
		vehicle_id BIGINT NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'SCHEDULED',
		total_seats INT NOT NULL,
		available_seats INT NOT NULL,
		base_fare BIGINT NOT NULL DEFAULT 0,
		is_negotiable TINYINT(1) NOT NULL DEFAULT 1,
		minimum_acceptable_fare BIGINT NULL,
		gender_preference VARCHAR(10) NOT NULL DEFAULT 'ANY',
		route_from VARCHAR(120) NOT NULL DEFAULT '',
		route_to VARCHAR(120) NOT NULL DEFAULT '',
		departure_time DATETIME NOT NULL,
		notes TEXT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_trips_driver (driver_id),
		CONSTRAINT chk_trips_seats CHECK (available_seats >= 0 AND available_seats <= total_seats)
	)`,
	"trip_stops": `CREATE TABLE IF NOT EXISTS trip_stops (
		trip_id BIGINT NOT NULL,
		stop_order INT NOT NULL,
		stop_name VARCHAR(120) NOT NULL,
		PRIMARY KEY (trip_id, stop_order)
	)`,
	"bookings": `CREATE TABLE IF NOT EXISTS bookings (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		reference CHAR(36) NOT NULL,
		trip_id BIGINT NOT NULL,
		passenger_id BIGINT NOT NULL,
		from_stop_order INT NOT NULL,
		to_stop_order INT NOT NULL,
		male_seats INT NOT NULL DEFAULT 0,
		female_seats INT NOT NULL DEFAULT 0,
		number_of_seats INT NOT NULL,
		seats_locked TINYINT(1) NOT NULL DEFAULT 0,
		booking_status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
		bargaining_status VARCHAR(20) NOT NULL DEFAULT 'NO_NEGOTIATION',
		original_fare BIGINT NOT NULL DEFAULT 0,
		negotiated_fare BIGINT NULL,
		passenger_offer BIGINT NULL,
		total_fare BIGINT NOT NULL DEFAULT 0,
		blocked TINYINT(1) NOT NULL DEFAULT 0,
		notes TEXT NULL,
		booked_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_bookings_reference (reference),
		KEY idx_bookings_trip (trip_id, booking_status),
		KEY idx_bookings_passenger (trip_id, passenger_id)
	)`,
	"negotiation_events": `CREATE TABLE IF NOT EXISTS negotiation_events (
		trip_id BIGINT NOT NULL,
		booking_id BIGINT NOT NULL,
		seq INT NOT NULL,
		event_id CHAR(36) NOT NULL,
		action VARCHAR(30) NOT NULL,
		actor_id BIGINT NOT NULL,
		actor_role VARCHAR(20) NOT NULL,
		fare BIGINT NULL,
		accepted_fare_per_seat BIGINT NULL,
		accepted_fare_total BIGINT NULL,
		note TEXT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (trip_id, booking_id, seq)
	)`,
	"blocked_users": `CREATE TABLE IF NOT EXISTS blocked_users (
		blocker_id BIGINT NOT NULL,
		blocked_id BIGINT NOT NULL,
		reason VARCHAR(255) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (blocker_id, blocked_id)
	)`,
}

// EnsureSchema creates missing tables. Existing tables are left untouched.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, table := range Tables {
		if _, err := db.ExecContext(ctx, ddl[table]); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}
	return nil
}

// MissingTables returns the engine tables absent from the connected schema.
func MissingTables(ctx context.Context, db *sql.DB) []string {
	var missing []string
	for _, table := range Tables {
		if !HasTable(ctx, db, table) {
			missing = append(missing, table)
		}
	}
	return missing
}
