package repositories

import (
	"context"
	"database/sql"

	intdb "rideshare/internal/db"
	"rideshare/internal/domain/models"
)

func (s MySQLStore) ListEvents(ctx context.Context, tripID, bookingID int64) ([]models.NegotiationEvent, error) {
	rows, err := s.db().QueryContext(ctx, `
		SELECT trip_id, booking_id, seq, event_id, action, actor_id, actor_role,
			fare, accepted_fare_per_seat, accepted_fare_total, COALESCE(note,''), created_at
		FROM negotiation_events
		WHERE trip_id = ? AND booking_id = ?
		ORDER BY seq ASC
	`, tripID, bookingID)
	if err != nil {
		return nil, storeErr("list events", err)
	}
	defer rows.Close()

	out := []models.NegotiationEvent{}
	for rows.Next() {
		var (
			ev                    models.NegotiationEvent
			action                string
			fare, perSeat, totalF sql.NullInt64
		)
		if err := rows.Scan(&ev.TripID, &ev.BookingID, &ev.Seq, &ev.EventID, &action, &ev.ActorID, &ev.ActorRole,
			&fare, &perSeat, &totalF, &ev.Note, &ev.CreatedAt); err != nil {
			return nil, storeErr("list events", err)
		}
		ev.Action = models.EventAction(action)
		ev.Fare = intdb.Int64Ptr(fare)
		ev.AcceptedFarePerSeat = intdb.Int64Ptr(perSeat)
		ev.AcceptedFareTotal = intdb.Int64Ptr(totalF)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list events", err)
	}
	return out, nil
}

// AppendEvent assigns the next sequence number for the booking. The caller
// holds the trip lock, so MAX(seq)+1 cannot race.
func (t *mysqlTx) AppendEvent(ctx context.Context, ev models.NegotiationEvent) (models.NegotiationEvent, error) {
	var next int
	if err := t.tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq),0)+1 FROM negotiation_events WHERE trip_id = ? AND booking_id = ?
	`, ev.TripID, ev.BookingID).Scan(&next); err != nil {
		return ev, storeErr("append event", err)
	}
	ev.Seq = next

	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO negotiation_events (trip_id, booking_id, seq, event_id, action, actor_id, actor_role,
			fare, accepted_fare_per_seat, accepted_fare_total, note, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
	`, ev.TripID, ev.BookingID, ev.Seq, ev.EventID, string(ev.Action), ev.ActorID, ev.ActorRole,
		intdb.NullInt64(ev.Fare), intdb.NullInt64(ev.AcceptedFarePerSeat), intdb.NullInt64(ev.AcceptedFareTotal),
		intdb.NullIfEmpty(ev.Note), ev.CreatedAt); err != nil {
		return ev, storeErr("append event", err)
	}
	return ev, nil
}
