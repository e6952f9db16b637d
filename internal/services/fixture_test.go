package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"rideshare/internal/domain/models"
	"rideshare/internal/notify"
	"rideshare/internal/repositories"

	"github.com/stretchr/testify/require"
)

const (
	driverID  int64 = 1
	vehicleID int64 = 10
	riderA    int64 = 2
	riderB    int64 = 3
	riderF    int64 = 4
)

type recorder struct {
	mu   sync.Mutex
	msgs []notify.Message
	err  error
}

func (r *recorder) Notify(ctx context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

func (r *recorder) sent() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Message(nil), r.msgs...)
}

type fixture struct {
	store *repositories.MemoryStore
	rec   *recorder
	disp  *Dispatcher
	neg   NegotiationService
	trips TripService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repositories.NewMemoryStore(2 * time.Second)
	store.SeedUser(driverID, models.UserActive, "male")
	store.SeedVehicle(vehicleID, driverID, models.VehicleVerified)
	store.SeedUser(riderA, models.UserActive, "male")
	store.SeedUser(riderB, models.UserActive, "male")
	store.SeedUser(riderF, models.UserActive, "female")

	rec := &recorder{}
	disp := NewDispatcher(rec, time.Second)
	gate := TripGate{Loader: store}
	return &fixture{
		store: store,
		rec:   rec,
		disp:  disp,
		neg:   NegotiationService{Store: store, Gate: gate, Notify: disp},
		trips: TripService{Store: store, Gate: gate, Notify: disp},
	}
}

type tripOpt func(*PostTripInput)

func notNegotiable(in *PostTripInput) { in.IsNegotiable = ptr(false) }

func genderOnly(pref string) tripOpt {
	return func(in *PostTripInput) { in.GenderPreference = pref }
}

func (f *fixture) postTrip(t *testing.T, seats int, fare int64, opts ...tripOpt) models.Trip {
	t.Helper()
	in := PostTripInput{
		DriverID:      driverID,
		VehicleID:     vehicleID,
		TotalSeats:    seats,
		BaseFare:      fare,
		DepartureTime: time.Date(2026, 11, 1, 8, 0, 0, 0, time.UTC),
		Stops: []StopInput{
			{Order: 0, Name: "Lahore"},
			{Order: 1, Name: "Gujranwala"},
			{Order: 2, Name: "Islamabad"},
		},
	}
	for _, o := range opts {
		o(&in)
	}
	detail, err := f.trips.PostTrip(context.Background(), in)
	require.NoError(t, err)
	return detail.Trip
}

func (f *fixture) request(t *testing.T, tripID, passengerID int64, seats int, offer *int64) CreateBookingResult {
	t.Helper()
	res, err := f.neg.CreateBookingRequest(context.Background(), requestInput(tripID, passengerID, seats, offer))
	require.NoError(t, err)
	return res
}

func requestInput(tripID, passengerID int64, seats int, offer *int64) CreateBookingInput {
	return CreateBookingInput{
		TripID:        tripID,
		PassengerID:   passengerID,
		FromStop:      0,
		ToStop:        2,
		NumberOfSeats: seats,
		ProposedFare:  offer,
		IsNegotiated:  offer != nil,
	}
}

func (f *fixture) driver(t *testing.T, tripID, bookingID int64, action string, counter *int64) (models.Booking, error) {
	t.Helper()
	return f.neg.RespondToRequest(context.Background(), RespondInput{
		TripID: tripID, BookingID: bookingID, DriverID: driverID, Action: action, CounterFare: counter,
	})
}

func (f *fixture) passenger(t *testing.T, tripID, bookingID, passengerID int64, action string, counter *int64) (models.Booking, error) {
	t.Helper()
	return f.neg.PassengerRespond(context.Background(), PassengerRespondInput{
		TripID: tripID, BookingID: bookingID, PassengerID: passengerID, Action: action, CounterFare: counter,
	})
}

func (f *fixture) available(t *testing.T, tripID int64) int {
	t.Helper()
	trip, err := f.store.GetTrip(context.Background(), tripID)
	require.NoError(t, err)
	return trip.AvailableSeats
}

// requireLedgerConsistent checks available = total - seats held by locked bookings.
func (f *fixture) requireLedgerConsistent(t *testing.T, tripID int64) {
	t.Helper()
	trip, err := f.store.GetTrip(context.Background(), tripID)
	require.NoError(t, err)
	held := 0
	for _, b := range f.store.TripBookings(tripID) {
		if b.HoldsSeats() {
			held += b.NumberOfSeats
		}
	}
	require.GreaterOrEqual(t, trip.AvailableSeats, 0)
	require.LessOrEqual(t, trip.AvailableSeats, trip.TotalSeats)
	require.Equal(t, trip.TotalSeats-held, trip.AvailableSeats, "available seats out of sync with held bookings")
}

func fare(v int64) *int64 { return &v }
