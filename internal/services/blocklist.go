package services

import (
	"context"
	"fmt"

	"rideshare/internal/domain"
	"rideshare/internal/domain/models"
	"rideshare/internal/repositories"
	"rideshare/internal/utils"
)

// BlockList owns the per-trip Booking.blocked flag and the driver-wide
// BlockRecord.
type BlockList struct {
	Store     repositories.Store
	RequestID string
}

// CheckAdmission refuses a passenger blocked on this trip or blocked by
// its driver. It runs before any seat reservation.
func (b BlockList) CheckAdmission(ctx context.Context, tx repositories.Tx, trip models.Trip, passengerID int64) error {
	blocked, err := tx.IsBlockedForTrip(ctx, trip.ID, passengerID)
	if err != nil {
		return err
	}
	if blocked {
		utils.LogEvent(b.RequestID, "blocklist", "refuse", fmt.Sprintf("trip_id=%d passenger_id=%d scope=trip", trip.ID, passengerID))
		return domain.ForbiddenError{Reason: domain.ReasonBlockedForTrip, Msg: "driver blocked you for this ride"}
	}

	persistent, err := tx.HasBlockRecord(ctx, trip.DriverID, passengerID)
	if err != nil {
		return err
	}
	if persistent {
		utils.LogEvent(b.RequestID, "blocklist", "refuse", fmt.Sprintf("trip_id=%d passenger_id=%d scope=driver", trip.ID, passengerID))
		return domain.ForbiddenError{Reason: domain.ReasonBlockedByDriver, Msg: "driver has blocked you"}
	}
	return nil
}

// UnblockForTrip clears the per-trip flag on every booking the passenger
// holds on the trip. It returns how many bookings changed.
func (b BlockList) UnblockForTrip(ctx context.Context, tripID, driverID, passengerID int64) (int64, error) {
	if tripID <= 0 || driverID <= 0 || passengerID <= 0 {
		return 0, domain.ValidationError{Msg: "trip_id, driver_id and passenger_id are required"}
	}
	var cleared int64
	err := inTx(ctx, b.Store, func(tx repositories.Tx) error {
		trip, err := tx.LockTrip(ctx, tripID)
		if err != nil {
			return err
		}
		if trip.DriverID != driverID {
			return domain.ForbiddenError{Reason: domain.ReasonWrongActor, Msg: "only the trip driver can unblock"}
		}
		cleared, err = tx.ClearTripBlocks(ctx, tripID, passengerID)
		return err
	})
	if err != nil {
		return 0, err
	}
	utils.LogEvent(b.RequestID, "blocklist", "unblock_trip", fmt.Sprintf("trip_id=%d passenger_id=%d cleared=%d", tripID, passengerID, cleared))
	return cleared, nil
}

// UnblockPersistent removes the driver's BlockRecord for the passenger.
func (b BlockList) UnblockPersistent(ctx context.Context, driverID, passengerID int64) error {
	if driverID <= 0 || passengerID <= 0 {
		return domain.ValidationError{Msg: "driver_id and passenger_id are required"}
	}
	err := inTx(ctx, b.Store, func(tx repositories.Tx) error {
		removed, err := tx.DeleteBlockRecord(ctx, driverID, passengerID)
		if err != nil {
			return err
		}
		if !removed {
			return domain.NotFoundError{Resource: "block record"}
		}
		return nil
	})
	if err != nil {
		return err
	}
	utils.LogEvent(b.RequestID, "blocklist", "unblock_persistent", fmt.Sprintf("driver_id=%d passenger_id=%d", driverID, passengerID))
	return nil
}

// ListBlocked returns the driver's persistent blocks, newest first.
func (b BlockList) ListBlocked(ctx context.Context, driverID int64) ([]models.BlockRecord, error) {
	if driverID <= 0 {
		return nil, domain.ValidationError{Field: "driver_id", Msg: "must be positive"}
	}
	return b.Store.ListBlockRecords(ctx, driverID)
}
