package services

import (
	"context"
	"fmt"

	"rideshare/internal/domain"
	"rideshare/internal/repositories"
	"rideshare/internal/utils"
)

// SeatLedger is the only writer of Trip.available_seats. Both operations
// must run inside a Tx that already holds the trip lock, and callers gate
// them on Booking.seats_locked within the same Tx.
type SeatLedger struct {
	RequestID string
}

// TryReserve decrements available seats when the trip can cover them.
// It returns false without mutating anything otherwise.
func (l SeatLedger) TryReserve(ctx context.Context, tx repositories.Tx, tripID int64, seats int) (bool, error) {
	if seats <= 0 {
		return false, domain.ValidationError{Field: "number_of_seats", Msg: "must be positive"}
	}
	ok, err := tx.ReserveSeats(ctx, tripID, seats)
	if err != nil {
		return false, err
	}
	utils.LogEvent(l.RequestID, "seat_ledger", "reserve", fmt.Sprintf("trip_id=%d seats=%d ok=%t", tripID, seats, ok))
	return ok, nil
}

// Release returns seats to the trip, clamped at total_seats. A clamp means
// some booking released seats it never held.
func (l SeatLedger) Release(ctx context.Context, tx repositories.Tx, tripID int64, seats int) error {
	if seats <= 0 {
		return nil
	}
	rel, err := tx.ReleaseSeats(ctx, tripID, seats)
	if err != nil {
		return err
	}
	if rel.Clamped {
		utils.LogInvariant(l.RequestID, "seat_ledger", "release_clamped",
			fmt.Sprintf("trip_id=%d seats=%d before=%d total=%d", tripID, seats, rel.Before, rel.Total))
		return nil
	}
	utils.LogEvent(l.RequestID, "seat_ledger", "release", fmt.Sprintf("trip_id=%d seats=%d available=%d", tripID, seats, rel.After))
	return nil
}
