package repositories

import (
	"context"
	"database/sql"
	"strings"

	intdb "rideshare/internal/db"
	"rideshare/internal/domain/models"
)

const tripColumns = `id, driver_id, vehicle_id, status, total_seats, available_seats, base_fare,
	is_negotiable, minimum_acceptable_fare, gender_preference, route_from, route_to,
	departure_time, COALESCE(notes,''), created_at, updated_at`

func scanTrip(row rowScanner) (models.Trip, error) {
	var (
		t       models.Trip
		status  string
		gender  string
		minFare sql.NullInt64
	)
	err := row.Scan(
		&t.ID, &t.DriverID, &t.VehicleID, &status, &t.TotalSeats, &t.AvailableSeats, &t.BaseFare,
		&t.IsNegotiable, &minFare, &gender, &t.RouteFrom, &t.RouteTo,
		&t.DepartureTime, &t.Notes, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return models.Trip{}, err
	}
	t.Status = models.TripStatus(strings.ToUpper(status))
	t.GenderPreference = models.GenderPreference(strings.ToUpper(gender))
	t.MinimumAcceptableFare = intdb.Int64Ptr(minFare)
	return t, nil
}

func (s MySQLStore) GetTrip(ctx context.Context, tripID int64) (models.Trip, error) {
	row := s.db().QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = ?`, tripID)
	t, err := scanTrip(row)
	if err != nil {
		return models.Trip{}, notFoundOr("get trip", "trip", err)
	}
	return t, nil
}

func (s MySQLStore) ListTripStops(ctx context.Context, tripID int64) ([]models.RouteStop, error) {
	rows, err := s.db().QueryContext(ctx, `
		SELECT trip_id, stop_order, stop_name
		FROM trip_stops
		WHERE trip_id = ?
		ORDER BY stop_order ASC
	`, tripID)
	if err != nil {
		return nil, storeErr("list stops", err)
	}
	defer rows.Close()

	var out []models.RouteStop
	for rows.Next() {
		var st models.RouteStop
		if err := rows.Scan(&st.TripID, &st.Order, &st.Name); err != nil {
			return nil, storeErr("list stops", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list stops", err)
	}
	return out, nil
}

func (t *mysqlTx) LockTrip(ctx context.Context, tripID int64) (models.Trip, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = ? FOR UPDATE`, tripID)
	trip, err := scanTrip(row)
	if err != nil {
		return models.Trip{}, notFoundOr("lock trip", "trip", err)
	}
	return trip, nil
}

// ReserveSeats is a compare-and-decrement; zero affected rows means the
// trip could not cover the seats.
func (t *mysqlTx) ReserveSeats(ctx context.Context, tripID int64, seats int) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE trips
		SET available_seats = available_seats - ?
		WHERE id = ? AND available_seats >= ?
	`, seats, tripID, seats)
	if err != nil {
		return false, storeErr("reserve seats", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeErr("reserve seats", err)
	}
	return n == 1, nil
}

func (t *mysqlTx) ReleaseSeats(ctx context.Context, tripID int64, seats int) (models.SeatRelease, error) {
	var rel models.SeatRelease
	err := t.tx.QueryRowContext(ctx, `SELECT available_seats, total_seats FROM trips WHERE id = ? FOR UPDATE`, tripID).
		Scan(&rel.Before, &rel.Total)
	if err != nil {
		return rel, notFoundOr("release seats", "trip", err)
	}
	rel.After = rel.Before + seats
	if rel.After > rel.Total {
		rel.After = rel.Total
		rel.Clamped = true
	}
	if _, err := t.tx.ExecContext(ctx, `UPDATE trips SET available_seats = ? WHERE id = ?`, rel.After, tripID); err != nil {
		return rel, storeErr("release seats", err)
	}
	return rel, nil
}

func (t *mysqlTx) InsertTrip(ctx context.Context, trip models.Trip, stops []models.RouteStop) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO trips (driver_id, vehicle_id, status, total_seats, available_seats, base_fare,
			is_negotiable, minimum_acceptable_fare, gender_preference, route_from, route_to,
			departure_time, notes, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, trip.DriverID, trip.VehicleID, string(trip.Status), trip.TotalSeats, trip.AvailableSeats, trip.BaseFare,
		trip.IsNegotiable, intdb.NullInt64(trip.MinimumAcceptableFare), string(trip.GenderPreference),
		trip.RouteFrom, trip.RouteTo, trip.DepartureTime, intdb.NullIfEmpty(trip.Notes), trip.CreatedAt, trip.UpdatedAt)
	if err != nil {
		return 0, storeErr("insert trip", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("insert trip", err)
	}

	if len(stops) > 0 {
		placeholders := make([]string, 0, len(stops))
		args := make([]any, 0, len(stops)*3)
		for _, st := range stops {
			placeholders = append(placeholders, "(?,?,?)")
			args = append(args, id, st.Order, st.Name)
		}
		if _, err := t.tx.ExecContext(ctx,
			`INSERT INTO trip_stops (trip_id, stop_order, stop_name) VALUES `+strings.Join(placeholders, ","),
			args...); err != nil {
			return 0, storeErr("insert stops", err)
		}
	}
	return id, nil
}

func (t *mysqlTx) UpdateTripStatus(ctx context.Context, tripID int64, status models.TripStatus) error {
	if _, err := t.tx.ExecContext(ctx, `UPDATE trips SET status = ? WHERE id = ?`, string(status), tripID); err != nil {
		return storeErr("update trip status", err)
	}
	return nil
}
