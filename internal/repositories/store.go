package repositories

import (
	"context"

	"rideshare/internal/domain/models"
)

// Store is the persistence boundary of the booking engine. Reads outside a
// transaction are snapshot reads and must not be used for seat decisions.
type Store interface {
	Begin(ctx context.Context) (Tx, error)

	GetTrip(ctx context.Context, tripID int64) (models.Trip, error)
	GetBooking(ctx context.Context, bookingID int64) (models.Booking, error)
	ListTripStops(ctx context.Context, tripID int64) ([]models.RouteStop, error)
	ListPendingBookings(ctx context.Context, tripID int64, limit int) ([]models.Booking, error)
	ListEvents(ctx context.Context, tripID, bookingID int64) ([]models.NegotiationEvent, error)
	ListBlockRecords(ctx context.Context, blockerID int64) ([]models.BlockRecord, error)
	LoadVerification(ctx context.Context, userID, vehicleID int64) (models.Verification, error)
	Ping(ctx context.Context) error
}

// SchemaChecker is implemented by stores backed by a schema that can drift
// from the one the engine expects.
type SchemaChecker interface {
	MissingTables(ctx context.Context) []string
}

// Tx is one atomic unit of work. Trip-scoped writes are only valid after
// LockTrip has returned for that trip inside the same Tx.
type Tx interface {
	LockTrip(ctx context.Context, tripID int64) (models.Trip, error)
	ReserveSeats(ctx context.Context, tripID int64, seats int) (bool, error)
	ReleaseSeats(ctx context.Context, tripID int64, seats int) (models.SeatRelease, error)
	InsertTrip(ctx context.Context, trip models.Trip, stops []models.RouteStop) (int64, error)
	UpdateTripStatus(ctx context.Context, tripID int64, status models.TripStatus) error

	InsertBooking(ctx context.Context, b models.Booking) (int64, error)
	LockBooking(ctx context.Context, tripID, bookingID int64) (models.Booking, error)
	UpdateBooking(ctx context.Context, bookingID int64, u models.BookingUpdate) error
	ListOpenBookings(ctx context.Context, tripID int64) ([]models.Booking, error)
	HasActiveBooking(ctx context.Context, tripID, passengerID int64) (bool, error)
	AppendEvent(ctx context.Context, ev models.NegotiationEvent) (models.NegotiationEvent, error)

	IsBlockedForTrip(ctx context.Context, tripID, passengerID int64) (bool, error)
	ClearTripBlocks(ctx context.Context, tripID, passengerID int64) (int64, error)
	HasBlockRecord(ctx context.Context, blockerID, blockedID int64) (bool, error)
	UpsertBlockRecord(ctx context.Context, rec models.BlockRecord) error
	DeleteBlockRecord(ctx context.Context, blockerID, blockedID int64) (bool, error)

	Commit() error
	Rollback() error
}
