package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/domain/models"
	"rideshare/internal/notify"
	"rideshare/internal/repositories"
	"rideshare/internal/utils"
)

// TripService posts and cancels trips. Cancelling a trip closes every
// open booking and returns their seats through the ledger.
type TripService struct {
	Store     repositories.Store
	Gate      Guard
	Notify    *Dispatcher
	RequestID string
	Now       func() time.Time
}

type StopInput struct {
	Order int    `json:"stop_order"`
	Name  string `json:"stop_name"`
}

type PostTripInput struct {
	DriverID              int64
	VehicleID             int64
	TotalSeats            int
	BaseFare              int64
	IsNegotiable          *bool
	MinimumAcceptableFare *int64
	GenderPreference      string
	DepartureTime         time.Time
	Stops                 []StopInput
	Notes                 string
}

// TripDetail is a trip together with its ordered route.
type TripDetail struct {
	models.Trip
	Stops []models.RouteStop `json:"stops"`
}

func (s TripService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return utils.NowUTC()
}

func (s TripService) gate() Guard {
	if s.Gate != nil {
		return s.Gate
	}
	return TripGate{Loader: s.Store, RequestID: s.RequestID}
}

func (s TripService) PostTrip(ctx context.Context, in PostTripInput) (TripDetail, error) {
	if in.DriverID <= 0 {
		return TripDetail{}, domain.ValidationError{Field: "driver_id", Msg: "must be positive"}
	}
	if in.VehicleID <= 0 {
		return TripDetail{}, domain.ValidationError{Field: "vehicle_id", Msg: "required"}
	}
	if in.TotalSeats <= 0 {
		return TripDetail{}, domain.ValidationError{Field: "total_seats", Msg: "must be positive"}
	}
	if in.BaseFare < 0 {
		return TripDetail{}, domain.ValidationError{Field: "base_fare", Msg: "cannot be negative"}
	}
	if err := checkFareCeiling("base_fare", in.BaseFare); err != nil {
		return TripDetail{}, err
	}
	if in.MinimumAcceptableFare != nil && *in.MinimumAcceptableFare < 0 {
		return TripDetail{}, domain.ValidationError{Field: "minimum_acceptable_fare", Msg: "cannot be negative"}
	}
	if in.DepartureTime.IsZero() {
		return TripDetail{}, domain.ValidationError{Field: "departure_time", Msg: "required"}
	}
	pref, ok := models.ParseGenderPreference(in.GenderPreference)
	if !ok {
		return TripDetail{}, domain.ValidationError{Field: "gender_preference", Msg: "must be MALE, FEMALE or ANY"}
	}
	stops, err := normalizeStops(in.Stops)
	if err != nil {
		return TripDetail{}, err
	}

	if _, err := s.gate().Admit(ctx, in.DriverID, domain.GateCreateTrip, in.VehicleID); err != nil {
		return TripDetail{}, err
	}

	negotiable := true
	if in.IsNegotiable != nil {
		negotiable = *in.IsNegotiable
	}
	now := s.now()
	trip := models.Trip{
		DriverID:              in.DriverID,
		VehicleID:             in.VehicleID,
		Status:                models.TripScheduled,
		TotalSeats:            in.TotalSeats,
		AvailableSeats:        in.TotalSeats,
		BaseFare:              in.BaseFare,
		IsNegotiable:          negotiable,
		MinimumAcceptableFare: in.MinimumAcceptableFare,
		GenderPreference:      pref,
		RouteFrom:             stops[0].Name,
		RouteTo:               stops[len(stops)-1].Name,
		DepartureTime:         in.DepartureTime.UTC(),
		Notes:                 utils.NormalizeSpace(in.Notes),
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	err = inTx(ctx, s.Store, func(tx repositories.Tx) error {
		id, err := tx.InsertTrip(ctx, trip, stops)
		if err != nil {
			return err
		}
		trip.ID = id
		return nil
	})
	if err != nil {
		return TripDetail{}, err
	}
	for i := range stops {
		stops[i].TripID = trip.ID
	}

	utils.LogEvent(s.RequestID, "trips", "post", fmt.Sprintf("trip_id=%d driver_id=%d seats=%d fare=%d", trip.ID, trip.DriverID, trip.TotalSeats, trip.BaseFare))
	return TripDetail{Trip: trip, Stops: stops}, nil
}

func normalizeStops(in []StopInput) ([]models.RouteStop, error) {
	if len(in) < 2 {
		return nil, domain.ValidationError{Field: "stops", Msg: "at least two stops are required"}
	}
	out := make([]models.RouteStop, 0, len(in))
	seen := map[int]bool{}
	for _, st := range in {
		name := utils.NormalizeSpace(st.Name)
		if name == "" {
			return nil, domain.ValidationError{Field: "stops", Msg: "stop name is required"}
		}
		if st.Order < 0 || seen[st.Order] {
			return nil, domain.ValidationError{Field: "stops", Msg: fmt.Sprintf("duplicate or invalid stop order %d", st.Order)}
		}
		seen[st.Order] = true
		out = append(out, models.RouteStop{Order: st.Order, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s TripService) GetTrip(ctx context.Context, tripID int64) (TripDetail, error) {
	if tripID <= 0 {
		return TripDetail{}, domain.ValidationError{Field: "trip_id", Msg: "must be positive"}
	}
	trip, err := s.Store.GetTrip(ctx, tripID)
	if err != nil {
		return TripDetail{}, err
	}
	stops, err := s.Store.ListTripStops(ctx, tripID)
	if err != nil {
		return TripDetail{}, err
	}
	return TripDetail{Trip: trip, Stops: stops}, nil
}

// CancelTrip cancels the trip and every booking that is still open.
// Bookings still bargaining end as REJECTED; confirmed ones keep their
// bargaining outcome.
func (s TripService) CancelTrip(ctx context.Context, tripID, driverID int64, reason string) (models.Trip, error) {
	if tripID <= 0 || driverID <= 0 {
		return models.Trip{}, domain.ValidationError{Msg: "trip_id and driver_id are required"}
	}

	var (
		trip     models.Trip
		affected []models.Booking
	)
	ledger := SeatLedger{RequestID: s.RequestID}
	err := inTx(ctx, s.Store, func(tx repositories.Tx) error {
		var err error
		trip, err = tx.LockTrip(ctx, tripID)
		if err != nil {
			return err
		}
		if trip.DriverID != driverID {
			return domain.ForbiddenError{Reason: domain.ReasonWrongActor, Msg: "only the trip driver can cancel"}
		}
		if trip.Status.Terminal() {
			return domain.InvalidTransitionError{From: string(trip.Status), Action: "cancel", Msg: "trip is already closed"}
		}

		open, err := tx.ListOpenBookings(ctx, tripID)
		if err != nil {
			return err
		}
		for _, b := range open {
			var u models.BookingUpdate
			if b.HoldsSeats() {
				if err := ledger.Release(ctx, tx, tripID, b.NumberOfSeats); err != nil {
					return err
				}
				u.SeatsLocked = ptr(false)
			}
			u.Status = ptr(models.BookingCancelled)
			if !b.BargainingStatus.Final() {
				u.BargainingStatus = ptr(models.BargainRejected)
			}
			if err := tx.UpdateBooking(ctx, b.ID, u); err != nil {
				return err
			}
			affected = append(affected, u.Apply(b))
		}
		if err := tx.UpdateTripStatus(ctx, tripID, models.TripCancelled); err != nil {
			return err
		}
		trip, err = tx.LockTrip(ctx, tripID)
		return err
	})
	if err != nil {
		return models.Trip{}, err
	}

	utils.LogEvent(s.RequestID, "trips", "cancel", fmt.Sprintf("trip_id=%d bookings=%d reason=%q", tripID, len(affected), utils.TrimOrEmpty(reason)))
	body := "Your ride was cancelled by the driver."
	if r := utils.TrimOrEmpty(reason); r != "" {
		body = "Your ride was cancelled by the driver: " + r
	}
	for _, b := range affected {
		s.Notify.Send(s.RequestID, notify.Message{
			RecipientID: b.PassengerID,
			SenderID:    driverID,
			Title:       "Ride cancelled by driver",
			Body:        body,
			Data:        bookingData("trip_cancelled", b, nil),
		})
	}
	return trip, nil
}
