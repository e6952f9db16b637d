package repositories

import (
	"context"
	"database/sql"
	"strings"

	intdb "rideshare/internal/db"
	"rideshare/internal/domain/models"
)

const bookingColumns = `id, reference, trip_id, passenger_id, from_stop_order, to_stop_order,
	male_seats, female_seats, number_of_seats, seats_locked, booking_status, bargaining_status,
	original_fare, negotiated_fare, passenger_offer, total_fare, blocked, COALESCE(notes,''),
	booked_at, updated_at`

func scanBooking(row rowScanner) (models.Booking, error) {
	var (
		b          models.Booking
		status     string
		bargaining string
		negotiated sql.NullInt64
		offer      sql.NullInt64
	)
	err := row.Scan(
		&b.ID, &b.Reference, &b.TripID, &b.PassengerID, &b.FromStopOrder, &b.ToStopOrder,
		&b.MaleSeats, &b.FemaleSeats, &b.NumberOfSeats, &b.SeatsLocked, &status, &bargaining,
		&b.OriginalFare, &negotiated, &offer, &b.TotalFare, &b.Blocked, &b.Notes,
		&b.BookedAt, &b.UpdatedAt,
	)
	if err != nil {
		return models.Booking{}, err
	}
	b.Status = models.BookingStatus(strings.ToUpper(status))
	b.BargainingStatus = models.BargainingStatus(strings.ToUpper(bargaining))
	b.NegotiatedFare = intdb.Int64Ptr(negotiated)
	b.PassengerOffer = intdb.Int64Ptr(offer)
	return b, nil
}

func queryBookings(ctx context.Context, q querier, op, query string, args ...any) ([]models.Booking, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, storeErr(op, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return out, nil
}

func (s MySQLStore) GetBooking(ctx context.Context, bookingID int64) (models.Booking, error) {
	row := s.db().QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, bookingID)
	b, err := scanBooking(row)
	if err != nil {
		return models.Booking{}, notFoundOr("get booking", "booking", err)
	}
	return b, nil
}

func (s MySQLStore) ListPendingBookings(ctx context.Context, tripID int64, limit int) ([]models.Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	return queryBookings(ctx, s.db(), "list pending bookings", `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE trip_id = ? AND booking_status = 'PENDING'
		ORDER BY booked_at DESC, id DESC
		LIMIT ?
	`, tripID, limit)
}

func (t *mysqlTx) InsertBooking(ctx context.Context, b models.Booking) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		INSERT INTO bookings (reference, trip_id, passenger_id, from_stop_order, to_stop_order,
			male_seats, female_seats, number_of_seats, seats_locked, booking_status, bargaining_status,
			original_fare, negotiated_fare, passenger_offer, total_fare, blocked, notes, booked_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, b.Reference, b.TripID, b.PassengerID, b.FromStopOrder, b.ToStopOrder,
		b.MaleSeats, b.FemaleSeats, b.NumberOfSeats, b.SeatsLocked, string(b.Status), string(b.BargainingStatus),
		b.OriginalFare, intdb.NullInt64(b.NegotiatedFare), intdb.NullInt64(b.PassengerOffer), b.TotalFare, b.Blocked,
		intdb.NullIfEmpty(b.Notes), b.BookedAt, b.UpdatedAt)
	if err != nil {
		return 0, storeErr("insert booking", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("insert booking", err)
	}
	return id, nil
}

func (t *mysqlTx) LockBooking(ctx context.Context, tripID, bookingID int64) (models.Booking, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ? AND trip_id = ? FOR UPDATE`, bookingID, tripID)
	b, err := scanBooking(row)
	if err != nil {
		return models.Booking{}, notFoundOr("lock booking", "booking", err)
	}
	return b, nil
}

func (t *mysqlTx) UpdateBooking(ctx context.Context, bookingID int64, u models.BookingUpdate) error {
	if u.Empty() {
		return nil
	}
	sets := make([]string, 0, 7)
	args := make([]any, 0, 8)
	if u.Status != nil {
		sets = append(sets, "booking_status = ?")
		args = append(args, string(*u.Status))
	}
	if u.BargainingStatus != nil {
		sets = append(sets, "bargaining_status = ?")
		args = append(args, string(*u.BargainingStatus))
	}
	if u.SeatsLocked != nil {
		sets = append(sets, "seats_locked = ?")
		args = append(args, *u.SeatsLocked)
	}
	if u.Blocked != nil {
		sets = append(sets, "blocked = ?")
		args = append(args, *u.Blocked)
	}
	if u.TotalFare != nil {
		sets = append(sets, "total_fare = ?")
		args = append(args, *u.TotalFare)
	}
	if u.SetNegotiatedFare {
		sets = append(sets, "negotiated_fare = ?")
		args = append(args, intdb.NullInt64(u.NegotiatedFare))
	}
	if u.SetPassengerOffer {
		sets = append(sets, "passenger_offer = ?")
		args = append(args, intdb.NullInt64(u.PassengerOffer))
	}
	args = append(args, bookingID)

	res, err := t.tx.ExecContext(ctx, `UPDATE bookings SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return storeErr("update booking", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 for unchanged rows too, so confirm existence.
		var one int
		if err := t.tx.QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE id = ?`, bookingID).Scan(&one); err != nil {
			return notFoundOr("update booking", "booking", err)
		}
	}
	return nil
}

// ListOpenBookings returns bookings a trip cancellation still has to close.
func (t *mysqlTx) ListOpenBookings(ctx context.Context, tripID int64) ([]models.Booking, error) {
	return queryBookings(ctx, t.tx, "list open bookings", `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE trip_id = ? AND booking_status NOT IN ('CANCELLED','COMPLETED')
		ORDER BY id ASC
		FOR UPDATE
	`, tripID)
}

func (t *mysqlTx) HasActiveBooking(ctx context.Context, tripID, passengerID int64) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, `
		SELECT 1 FROM bookings
		WHERE trip_id = ? AND passenger_id = ? AND seats_locked = 1
		  AND booking_status IN ('PENDING','CONFIRMED')
		LIMIT 1
	`, tripID, passengerID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, storeErr("check active booking", err)
	}
	return true, nil
}

func (t *mysqlTx) IsBlockedForTrip(ctx context.Context, tripID, passengerID int64) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(ctx, `
		SELECT 1 FROM bookings WHERE trip_id = ? AND passenger_id = ? AND blocked = 1 LIMIT 1
	`, tripID, passengerID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, storeErr("check trip block", err)
	}
	return true, nil
}

func (t *mysqlTx) ClearTripBlocks(ctx context.Context, tripID, passengerID int64) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE bookings SET blocked = 0 WHERE trip_id = ? AND passenger_id = ? AND blocked = 1
	`, tripID, passengerID)
	if err != nil {
		return 0, storeErr("clear trip blocks", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("clear trip blocks", err)
	}
	return n, nil
}

