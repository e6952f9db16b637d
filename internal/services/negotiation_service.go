package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rideshare/internal/domain"
	"rideshare/internal/domain/models"
	"rideshare/internal/notify"
	"rideshare/internal/repositories"
	"rideshare/internal/utils"

	"github.com/google/uuid"
)

const pendingListLimit = 50

// Driver actions accepted by RespondToRequest.
const (
	DriverAccept    = "accept"
	DriverReject    = "reject"
	DriverCounter   = "counter"
	DriverBlock     = "block"
	DriverBlacklist = "blacklist"
)

// Passenger actions accepted by PassengerRespond.
const (
	PassengerAccept   = "accept"
	PassengerCounter  = "counter"
	PassengerWithdraw = "withdraw"
)

// NegotiationService runs the booking request and bargaining state
// machine. Every transition locks the trip row, changes booking and seat
// state in one transaction, and notifies the counterpart after commit.
type NegotiationService struct {
	Store     repositories.Store
	Gate      Guard
	Notify    *Dispatcher
	RequestID string
	Now       func() time.Time
}

type CreateBookingInput struct {
	TripID        int64
	PassengerID   int64
	FromStop      int
	ToStop        int
	MaleSeats     int
	FemaleSeats   int
	NumberOfSeats int
	OriginalFare  *int64
	ProposedFare  *int64
	FinalFare     *int64
	IsNegotiated  bool
	Notes         string
}

type CreateBookingResult struct {
	BookingID        int64                   `json:"booking_id"`
	Reference        string                  `json:"reference"`
	BookingStatus    models.BookingStatus    `json:"booking_status"`
	BargainingStatus models.BargainingStatus `json:"bargaining_status"`
	TotalFare        int64                   `json:"total_fare"`
	AvailableSeats   int                     `json:"available_seats"`
}

type RespondInput struct {
	TripID      int64
	BookingID   int64
	DriverID    int64
	Action      string
	CounterFare *int64
	Reason      string
}

type PassengerRespondInput struct {
	TripID      int64
	BookingID   int64
	PassengerID int64
	Action      string
	CounterFare *int64
	Note        string
}

// History is a booking with its full bargaining log.
type History struct {
	Booking          models.Booking            `json:"booking"`
	Events           []models.NegotiationEvent `json:"events"`
	FinalFarePerSeat *int64                    `json:"final_fare_per_seat"`
	CanRespond       bool                      `json:"can_respond"`
}

func (s NegotiationService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return utils.NowUTC()
}

func (s NegotiationService) ledger() SeatLedger {
	return SeatLedger{RequestID: s.RequestID}
}

func (s NegotiationService) blocks() BlockList {
	return BlockList{Store: s.Store, RequestID: s.RequestID}
}

func (s NegotiationService) gate() Guard {
	if s.Gate != nil {
		return s.Gate
	}
	return TripGate{Loader: s.Store, RequestID: s.RequestID}
}

func (s NegotiationService) newEvent(b models.Booking, action models.EventAction, actorID int64, role, note string) models.NegotiationEvent {
	return models.NegotiationEvent{
		EventID:   uuid.NewString(),
		TripID:    b.TripID,
		BookingID: b.ID,
		Action:    action,
		ActorID:   actorID,
		ActorRole: role,
		Note:      utils.TrimOrEmpty(note),
		CreatedAt: s.now(),
	}
}

// CreateBookingRequest admits a passenger request and reserves its seats
// up front. The seat check is repeated under the trip lock.
func (s NegotiationService) CreateBookingRequest(ctx context.Context, in CreateBookingInput) (CreateBookingResult, error) {
	var res CreateBookingResult
	if err := validateCreateInput(in); err != nil {
		return res, err
	}

	trip, err := s.Store.GetTrip(ctx, in.TripID)
	if err != nil {
		return res, err
	}
	if trip.Status != models.TripScheduled {
		return res, domain.InvalidTransitionError{From: string(trip.Status), Action: "request", Msg: "trip is not open for booking"}
	}
	if trip.DriverID == in.PassengerID {
		return res, domain.ForbiddenError{Reason: domain.ReasonWrongActor, Msg: "drivers cannot book their own trip"}
	}

	v, err := s.gate().Admit(ctx, in.PassengerID, domain.GateBook, 0)
	if err != nil {
		return res, err
	}

	stops, err := s.Store.ListTripStops(ctx, trip.ID)
	if err != nil {
		return res, err
	}
	if err := checkStops(stops, in.FromStop, in.ToStop); err != nil {
		return res, err
	}

	male, female, err := resolveSeats(in, v.Gender)
	if err != nil {
		return res, err
	}
	if err := checkGenderPreference(trip.GenderPreference, male, female); err != nil {
		return res, err
	}
	seats := male + female

	if in.IsNegotiated && !trip.IsNegotiable {
		return res, domain.ValidationError{Field: "is_negotiated", Msg: "trip does not accept fare negotiation"}
	}
	original := trip.BaseFare
	if in.OriginalFare != nil {
		original = *in.OriginalFare
	}
	perSeat := original
	if in.IsNegotiated {
		perSeat = *in.ProposedFare
	}
	if in.FinalFare != nil {
		perSeat = *in.FinalFare
	}
	total, err := bookingTotal(perSeat, seats)
	if err != nil {
		return res, err
	}

	now := s.now()
	booking := models.Booking{
		Reference:        uuid.NewString(),
		TripID:           trip.ID,
		PassengerID:      in.PassengerID,
		FromStopOrder:    in.FromStop,
		ToStopOrder:      in.ToStop,
		MaleSeats:        male,
		FemaleSeats:      female,
		NumberOfSeats:    seats,
		SeatsLocked:      true,
		Status:           models.BookingPending,
		BargainingStatus: models.BargainNone,
		OriginalFare:     original,
		TotalFare:        total,
		Notes:            utils.NormalizeSpace(in.Notes),
		BookedAt:         now,
		UpdatedAt:        now,
	}
	if in.IsNegotiated {
		booking.BargainingStatus = models.BargainPending
		booking.PassengerOffer = models.Fare(*in.ProposedFare)
	} else {
		booking.NegotiatedFare = models.Fare(perSeat)
	}

	err = inTx(ctx, s.Store, func(tx repositories.Tx) error {
		locked, err := tx.LockTrip(ctx, trip.ID)
		if err != nil {
			return err
		}
		if locked.Status != models.TripScheduled {
			return domain.InvalidTransitionError{From: string(locked.Status), Action: "request", Msg: "trip is not open for booking"}
		}
		if err := s.blocks().CheckAdmission(ctx, tx, locked, in.PassengerID); err != nil {
			return err
		}
		active, err := tx.HasActiveBooking(ctx, locked.ID, in.PassengerID)
		if err != nil {
			return err
		}
		if active {
			return domain.InvalidTransitionError{Action: "request", Msg: "you already have an active request on this trip"}
		}

		if locked.AvailableSeats < seats {
			return domain.SeatsUnavailableError{Requested: seats, Available: locked.AvailableSeats}
		}
		ok, err := s.ledger().TryReserve(ctx, tx, locked.ID, seats)
		if err != nil {
			return err
		}
		if !ok {
			return domain.SeatsUnavailableError{Requested: seats, Available: locked.AvailableSeats}
		}

		id, err := tx.InsertBooking(ctx, booking)
		if err != nil {
			return err
		}
		booking.ID = id
		res.AvailableSeats = locked.AvailableSeats - seats
		return nil
	})
	if err != nil {
		return CreateBookingResult{}, err
	}

	res.BookingID = booking.ID
	res.Reference = booking.Reference
	res.BookingStatus = booking.Status
	res.BargainingStatus = booking.BargainingStatus
	res.TotalFare = booking.TotalFare

	utils.LogEvent(s.RequestID, "negotiation", "request",
		fmt.Sprintf("trip_id=%d booking_id=%d passenger_id=%d seats=%d negotiated=%t", trip.ID, booking.ID, in.PassengerID, seats, in.IsNegotiated))

	s.Notify.Send(s.RequestID, notify.Message{
		RecipientID: trip.DriverID,
		SenderID:    in.PassengerID,
		Title:       "New ride request",
		Body:        fmt.Sprintf("Passenger requested %d seat(s).", seats),
		Data:        bookingData("ride_request", booking, map[string]string{"seats": strconv.Itoa(seats)}),
	})
	return res, nil
}

func validateCreateInput(in CreateBookingInput) error {
	if in.TripID <= 0 {
		return domain.ValidationError{Field: "trip_id", Msg: "must be positive"}
	}
	if in.PassengerID <= 0 {
		return domain.ValidationError{Field: "passenger_id", Msg: "must be positive"}
	}
	if in.FromStop >= in.ToStop {
		return domain.ValidationError{Field: "to_stop_order", Msg: "must come after from_stop_order"}
	}
	if in.MaleSeats < 0 || in.FemaleSeats < 0 || in.NumberOfSeats < 0 {
		return domain.ValidationError{Field: "seats", Msg: "seat counts cannot be negative"}
	}
	for field, fare := range map[string]*int64{"original_fare": in.OriginalFare, "proposed_fare": in.ProposedFare, "final_fare": in.FinalFare} {
		if fare == nil {
			continue
		}
		if *fare < 0 {
			return domain.ValidationError{Field: field, Msg: "cannot be negative"}
		}
		if err := checkFareCeiling(field, *fare); err != nil {
			return err
		}
	}
	if in.IsNegotiated && in.ProposedFare == nil {
		return domain.ValidationError{Field: "proposed_fare", Msg: "required for a negotiated request"}
	}
	return nil
}

func checkStops(stops []models.RouteStop, from, to int) error {
	var hasFrom, hasTo bool
	for _, st := range stops {
		if st.Order == from {
			hasFrom = true
		}
		if st.Order == to {
			hasTo = true
		}
	}
	if !hasFrom {
		return domain.ValidationError{Field: "from_stop_order", Msg: "stop not on this route"}
	}
	if !hasTo {
		return domain.ValidationError{Field: "to_stop_order", Msg: "stop not on this route"}
	}
	return nil
}

// resolveSeats fills an empty gender split from number_of_seats using the
// passenger's own gender.
func resolveSeats(in CreateBookingInput, gender string) (male, female int, err error) {
	male, female = in.MaleSeats, in.FemaleSeats
	if male+female == 0 {
		n := in.NumberOfSeats
		if n == 0 {
			n = 1
		}
		if strings.EqualFold(gender, "female") {
			return 0, n, nil
		}
		return n, 0, nil
	}
	if in.NumberOfSeats > 0 && in.NumberOfSeats != male+female {
		return 0, 0, domain.ValidationError{Field: "number_of_seats", Msg: "must equal male_seats + female_seats"}
	}
	return male, female, nil
}

func checkGenderPreference(pref models.GenderPreference, male, female int) error {
	switch pref {
	case models.GenderMale:
		if female > 0 {
			return domain.ValidationError{Field: "female_seats", Msg: "this ride accepts male passengers only"}
		}
	case models.GenderFemale:
		if male > 0 {
			return domain.ValidationError{Field: "male_seats", Msg: "this ride accepts female passengers only"}
		}
	}
	return nil
}

func parseDriverAction(raw string) (string, error) {
	switch a := utils.NormalizeAction(raw); a {
	case DriverAccept, DriverReject, DriverCounter, DriverBlock, DriverBlacklist:
		return a, nil
	case "":
		return "", domain.ValidationError{Field: "action", Msg: "required"}
	default:
		return "", domain.ValidationError{Field: "action", Msg: fmt.Sprintf("unsupported action %q", raw)}
	}
}

func parsePassengerAction(raw string) (string, error) {
	switch a := utils.NormalizeAction(raw); a {
	case PassengerAccept, PassengerCounter, PassengerWithdraw:
		return a, nil
	case "":
		return "", domain.ValidationError{Field: "action", Msg: "required"}
	default:
		return "", domain.ValidationError{Field: "action", Msg: fmt.Sprintf("unsupported action %q", raw)}
	}
}

func validateCounter(fare *int64) error {
	if fare == nil {
		return domain.ValidationError{Field: "counter_fare", Msg: "required for a counter offer"}
	}
	if *fare <= 0 {
		return domain.ValidationError{Field: "counter_fare", Msg: "must be positive"}
	}
	return checkFareCeiling("counter_fare", *fare)
}

func invalidTransition(b models.Booking, action string) error {
	return domain.InvalidTransitionError{
		From:   fmt.Sprintf("%s/%s", b.Status, b.BargainingStatus),
		Action: action,
	}
}

// releaseHold gives the booking's seats back exactly once and records the
// flag flip on u.
func (s NegotiationService) releaseHold(ctx context.Context, tx repositories.Tx, b models.Booking, u *models.BookingUpdate) error {
	if !b.HoldsSeats() {
		return nil
	}
	if err := s.ledger().Release(ctx, tx, b.TripID, b.NumberOfSeats); err != nil {
		return err
	}
	u.SeatsLocked = ptr(false)
	return nil
}

// RespondToRequest applies the trip driver's decision on a booking.
func (s NegotiationService) RespondToRequest(ctx context.Context, in RespondInput) (models.Booking, error) {
	action, err := parseDriverAction(in.Action)
	if err != nil {
		return models.Booking{}, err
	}
	if in.TripID <= 0 || in.BookingID <= 0 || in.DriverID <= 0 {
		return models.Booking{}, domain.ValidationError{Msg: "trip_id, booking_id and driver_id are required"}
	}
	if action == DriverCounter {
		if err := validateCounter(in.CounterFare); err != nil {
			return models.Booking{}, err
		}
	}
	if _, err := s.gate().Admit(ctx, in.DriverID, domain.GateRespond, 0); err != nil {
		return models.Booking{}, err
	}

	var (
		out models.Booking
		msg notify.Message
	)
	err = inTx(ctx, s.Store, func(tx repositories.Tx) error {
		trip, err := tx.LockTrip(ctx, in.TripID)
		if err != nil {
			return err
		}
		if trip.DriverID != in.DriverID {
			return domain.ForbiddenError{Reason: domain.ReasonWrongActor, Msg: "only the trip driver can respond"}
		}
		b, err := tx.LockBooking(ctx, trip.ID, in.BookingID)
		if err != nil {
			return err
		}

		var (
			u  models.BookingUpdate
			ev models.NegotiationEvent
		)
		switch action {
		case DriverAccept:
			if b.Status.Terminal() || b.BargainingStatus.Final() {
				return invalidTransition(b, action)
			}
			final := driverAcceptFare(b)
			total, err := bookingTotal(final, b.NumberOfSeats)
			if err != nil {
				return err
			}
			if !b.HoldsSeats() {
				if err := s.lockLateSeats(ctx, tx, trip, b); err != nil {
					return err
				}
				u.SeatsLocked = ptr(true)
			}
			u.Status = ptr(models.BookingConfirmed)
			u.BargainingStatus = ptr(models.BargainAccepted)
			u.SetNegotiatedFare, u.NegotiatedFare = true, models.Fare(final)
			u.TotalFare = ptr(total)

			ev = s.newEvent(b, models.ActionDriverAccept, in.DriverID, domain.RoleDriver, in.Reason)
			ev.AcceptedFarePerSeat = models.Fare(final)
			ev.AcceptedFareTotal = models.Fare(total)
			msg = notify.Message{Title: "Your request was accepted", Body: "Driver confirmed your booking."}

		case DriverReject:
			if b.Status.Terminal() {
				return invalidTransition(b, action)
			}
			if err := s.releaseHold(ctx, tx, b, &u); err != nil {
				return err
			}
			u.Status = ptr(models.BookingCancelled)
			u.BargainingStatus = ptr(models.BargainRejected)
			ev = s.newEvent(b, models.ActionReject, in.DriverID, domain.RoleDriver, in.Reason)
			msg = notify.Message{Title: "Your request was rejected", Body: "Driver rejected your booking request."}

		case DriverCounter:
			if b.Status.Terminal() || b.BargainingStatus.Final() {
				return invalidTransition(b, action)
			}
			if !trip.IsNegotiable {
				return domain.InvalidTransitionError{Action: action, Msg: "trip does not accept fare negotiation"}
			}
			u.SetNegotiatedFare, u.NegotiatedFare = true, models.Fare(*in.CounterFare)
			u.BargainingStatus = ptr(models.BargainCounterOffer)
			ev = s.newEvent(b, models.ActionDriverCounter, in.DriverID, domain.RoleDriver, in.Reason)
			ev.Fare = models.Fare(*in.CounterFare)
			msg = notify.Message{
				Title: "You have a counter offer",
				Body:  fmt.Sprintf("Driver offered %s per seat.", utils.FormatPKR(*in.CounterFare)),
			}

		case DriverBlock, DriverBlacklist:
			if b.Status == models.BookingCompleted {
				return invalidTransition(b, action)
			}
			if action == DriverBlock && b.Blocked && b.Status == models.BookingCancelled {
				return invalidTransition(b, action)
			}
			if err := s.releaseHold(ctx, tx, b, &u); err != nil {
				return err
			}
			u.Status = ptr(models.BookingCancelled)
			u.BargainingStatus = ptr(models.BargainBlocked)
			u.Blocked = ptr(true)
			evAction := models.ActionBlock
			if action == DriverBlacklist {
				evAction = models.ActionBlacklist
				if err := tx.UpsertBlockRecord(ctx, models.BlockRecord{
					BlockerID: in.DriverID,
					BlockedID: b.PassengerID,
					Reason:    utils.TrimOrEmpty(in.Reason),
					CreatedAt: s.now(),
				}); err != nil {
					return err
				}
			}
			ev = s.newEvent(b, evAction, in.DriverID, domain.RoleDriver, in.Reason)
			msg = notify.Message{Title: "Your request was declined", Body: "Driver declined your booking request."}
		}

		if err := tx.UpdateBooking(ctx, b.ID, u); err != nil {
			return err
		}
		if _, err := tx.AppendEvent(ctx, ev); err != nil {
			return err
		}
		out = u.Apply(b)
		out.UpdatedAt = s.now()

		msg.RecipientID = b.PassengerID
		msg.SenderID = in.DriverID
		msg.Data = bookingData(string(ev.Action), out, nil)
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}

	utils.LogEvent(s.RequestID, "negotiation", "driver_"+action,
		fmt.Sprintf("trip_id=%d booking_id=%d status=%s bargaining=%s", out.TripID, out.ID, out.Status, out.BargainingStatus))
	s.Notify.Send(s.RequestID, msg)
	return out, nil
}

// lockLateSeats reserves seats for a booking that was admitted without a
// hold. Only rows written before request-time locking take this path.
func (s NegotiationService) lockLateSeats(ctx context.Context, tx repositories.Tx, trip models.Trip, b models.Booking) error {
	if trip.AvailableSeats < b.NumberOfSeats {
		return domain.SeatsUnavailableError{Requested: b.NumberOfSeats, Available: trip.AvailableSeats}
	}
	ok, err := s.ledger().TryReserve(ctx, tx, trip.ID, b.NumberOfSeats)
	if err != nil {
		return err
	}
	if !ok {
		return domain.SeatsUnavailableError{Requested: b.NumberOfSeats, Available: trip.AvailableSeats}
	}
	utils.LogEvent(s.RequestID, "negotiation", "late_seat_lock", fmt.Sprintf("trip_id=%d booking_id=%d seats=%d", trip.ID, b.ID, b.NumberOfSeats))
	return nil
}

// PassengerRespond applies the booking owner's answer to the driver.
func (s NegotiationService) PassengerRespond(ctx context.Context, in PassengerRespondInput) (models.Booking, error) {
	action, err := parsePassengerAction(in.Action)
	if err != nil {
		return models.Booking{}, err
	}
	if in.TripID <= 0 || in.BookingID <= 0 || in.PassengerID <= 0 {
		return models.Booking{}, domain.ValidationError{Msg: "trip_id, booking_id and passenger_id are required"}
	}
	if action == PassengerCounter {
		if err := validateCounter(in.CounterFare); err != nil {
			return models.Booking{}, err
		}
	}
	if _, err := s.gate().Admit(ctx, in.PassengerID, domain.GateRespond, 0); err != nil {
		return models.Booking{}, err
	}

	var (
		out      models.Booking
		msg      notify.Message
		driverID int64
	)
	err = inTx(ctx, s.Store, func(tx repositories.Tx) error {
		trip, err := tx.LockTrip(ctx, in.TripID)
		if err != nil {
			return err
		}
		driverID = trip.DriverID
		b, err := tx.LockBooking(ctx, trip.ID, in.BookingID)
		if err != nil {
			return err
		}
		if b.PassengerID != in.PassengerID {
			return domain.ForbiddenError{Reason: domain.ReasonWrongActor, Msg: "booking belongs to another passenger"}
		}

		var (
			u  models.BookingUpdate
			ev models.NegotiationEvent
		)
		switch action {
		case PassengerAccept:
			if b.Status != models.BookingPending || b.BargainingStatus != models.BargainCounterOffer {
				return domain.InvalidTransitionError{
					From:   fmt.Sprintf("%s/%s", b.Status, b.BargainingStatus),
					Action: action,
					Msg:    "there is no counter offer to accept",
				}
			}
			final := passengerAcceptFare(b)
			total, err := bookingTotal(final, b.NumberOfSeats)
			if err != nil {
				return err
			}
			if b.HoldsSeats() {
				// The hold must still be counted against the pool.
				if held := trip.TotalSeats - trip.AvailableSeats; held < b.NumberOfSeats {
					utils.LogInvariant(s.RequestID, "negotiation", "hold_missing",
						fmt.Sprintf("trip_id=%d booking_id=%d seats=%d held=%d", trip.ID, b.ID, b.NumberOfSeats, held))
					return domain.SeatsUnavailableError{Requested: b.NumberOfSeats, Available: trip.AvailableSeats}
				}
			} else {
				if err := s.lockLateSeats(ctx, tx, trip, b); err != nil {
					return err
				}
				u.SeatsLocked = ptr(true)
			}
			u.Status = ptr(models.BookingConfirmed)
			u.BargainingStatus = ptr(models.BargainAccepted)
			u.SetNegotiatedFare, u.NegotiatedFare = true, models.Fare(final)
			u.TotalFare = ptr(total)

			ev = s.newEvent(b, models.ActionPassengerAccept, in.PassengerID, domain.RolePassenger, in.Note)
			ev.AcceptedFarePerSeat = models.Fare(final)
			ev.AcceptedFareTotal = models.Fare(total)
			msg = notify.Message{
				Title: "Passenger confirmed booking",
				Body:  fmt.Sprintf("Passenger confirmed booking for %d seat(s).", b.NumberOfSeats),
			}

		case PassengerCounter:
			if b.Status != models.BookingPending || b.BargainingStatus.Final() {
				return invalidTransition(b, action)
			}
			if !trip.IsNegotiable {
				return domain.InvalidTransitionError{Action: action, Msg: "trip does not accept fare negotiation"}
			}
			u.SetPassengerOffer, u.PassengerOffer = true, models.Fare(*in.CounterFare)
			u.BargainingStatus = ptr(models.BargainPassengerCounter)
			ev = s.newEvent(b, models.ActionPassengerCounter, in.PassengerID, domain.RolePassenger, in.Note)
			ev.Fare = models.Fare(*in.CounterFare)
			msg = notify.Message{
				Title: "Passenger sent a counter offer",
				Body:  fmt.Sprintf("Passenger offered %s per seat.", utils.FormatPKR(*in.CounterFare)),
			}

		case PassengerWithdraw:
			if b.Status != models.BookingPending {
				return invalidTransition(b, action)
			}
			if err := s.releaseHold(ctx, tx, b, &u); err != nil {
				return err
			}
			u.Status = ptr(models.BookingCancelled)
			u.BargainingStatus = ptr(models.BargainWithdrawn)
			ev = s.newEvent(b, models.ActionPassengerWithdraw, in.PassengerID, domain.RolePassenger, in.Note)
			msg = notify.Message{Title: "Passenger withdrew request", Body: "Passenger withdrew their booking request."}
		}

		if err := tx.UpdateBooking(ctx, b.ID, u); err != nil {
			return err
		}
		if _, err := tx.AppendEvent(ctx, ev); err != nil {
			return err
		}
		out = u.Apply(b)
		out.UpdatedAt = s.now()

		msg.RecipientID = trip.DriverID
		msg.SenderID = in.PassengerID
		msg.Data = bookingData(string(ev.Action), out, nil)
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}

	utils.LogEvent(s.RequestID, "negotiation", "passenger_"+action,
		fmt.Sprintf("trip_id=%d booking_id=%d driver_id=%d status=%s bargaining=%s", out.TripID, out.ID, driverID, out.Status, out.BargainingStatus))
	s.Notify.Send(s.RequestID, msg)
	return out, nil
}

// CancelBooking lets a passenger drop a booking. A pending request is
// withdrawn; a confirmed one gives its seats back without touching the
// bargaining outcome.
func (s NegotiationService) CancelBooking(ctx context.Context, bookingID, passengerID int64, reason string) (models.Booking, error) {
	if bookingID <= 0 || passengerID <= 0 {
		return models.Booking{}, domain.ValidationError{Msg: "booking_id and passenger_id are required"}
	}
	snap, err := s.Store.GetBooking(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if snap.PassengerID != passengerID {
		return models.Booking{}, domain.ForbiddenError{Reason: domain.ReasonWrongActor, Msg: "booking belongs to another passenger"}
	}
	if snap.Status == models.BookingPending {
		return s.PassengerRespond(ctx, PassengerRespondInput{
			TripID:      snap.TripID,
			BookingID:   bookingID,
			PassengerID: passengerID,
			Action:      PassengerWithdraw,
			Note:        reason,
		})
	}

	var (
		out      models.Booking
		driverID int64
	)
	err = inTx(ctx, s.Store, func(tx repositories.Tx) error {
		trip, err := tx.LockTrip(ctx, snap.TripID)
		if err != nil {
			return err
		}
		driverID = trip.DriverID
		b, err := tx.LockBooking(ctx, trip.ID, bookingID)
		if err != nil {
			return err
		}
		if b.Status != models.BookingConfirmed {
			return invalidTransition(b, "cancel")
		}
		var u models.BookingUpdate
		if err := s.releaseHold(ctx, tx, b, &u); err != nil {
			return err
		}
		u.Status = ptr(models.BookingCancelled)
		if err := tx.UpdateBooking(ctx, b.ID, u); err != nil {
			return err
		}
		out = u.Apply(b)
		return nil
	})
	if err != nil {
		return models.Booking{}, err
	}

	utils.LogEvent(s.RequestID, "negotiation", "passenger_cancel", fmt.Sprintf("trip_id=%d booking_id=%d", out.TripID, out.ID))
	s.Notify.Send(s.RequestID, notify.Message{
		RecipientID: driverID,
		SenderID:    passengerID,
		Title:       "Booking cancelled",
		Body:        fmt.Sprintf("Passenger cancelled a confirmed booking for %d seat(s).", out.NumberOfSeats),
		Data:        bookingData("booking_cancelled", out, nil),
	})
	return out, nil
}

// ListPendingRequests returns the latest pending bookings of a trip with
// their stop names, newest first.
func (s NegotiationService) ListPendingRequests(ctx context.Context, tripID int64) ([]models.BookingSummary, error) {
	if tripID <= 0 {
		return nil, domain.ValidationError{Field: "trip_id", Msg: "must be positive"}
	}
	if _, err := s.Store.GetTrip(ctx, tripID); err != nil {
		return nil, err
	}
	bookings, err := s.Store.ListPendingBookings(ctx, tripID, pendingListLimit)
	if err != nil {
		return nil, err
	}
	stops, err := s.Store.ListTripStops(ctx, tripID)
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(stops))
	for _, st := range stops {
		names[st.Order] = st.Name
	}

	out := make([]models.BookingSummary, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, models.BookingSummary{
			Booking:      b,
			FromStopName: names[b.FromStopOrder],
			ToStopName:   names[b.ToStopOrder],
		})
	}
	return out, nil
}

// GetNegotiationHistory returns the booking, its events in order and the
// derived final fare.
func (s NegotiationService) GetNegotiationHistory(ctx context.Context, tripID, bookingID int64) (History, error) {
	if tripID <= 0 || bookingID <= 0 {
		return History{}, domain.ValidationError{Msg: "trip_id and booking_id are required"}
	}
	b, err := s.Store.GetBooking(ctx, bookingID)
	if err != nil {
		return History{}, err
	}
	if b.TripID != tripID {
		return History{}, domain.NotFoundError{Resource: "booking"}
	}
	events, err := s.Store.ListEvents(ctx, tripID, bookingID)
	if err != nil {
		return History{}, err
	}

	h := History{Booking: b, Events: events, CanRespond: b.CanRespond()}
	if fare, ok := FinalFarePerSeat(b, events); ok {
		h.FinalFarePerSeat = models.Fare(fare)
	}
	return h, nil
}

// GetBooking returns the booking to its passenger or to the trip driver.
func (s NegotiationService) GetBooking(ctx context.Context, bookingID, requesterID int64) (models.Booking, error) {
	b, err := s.Store.GetBooking(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if b.PassengerID == requesterID {
		return b, nil
	}
	trip, err := s.Store.GetTrip(ctx, b.TripID)
	if err != nil {
		return models.Booking{}, err
	}
	if trip.DriverID != requesterID {
		return models.Booking{}, domain.ForbiddenError{Reason: domain.ReasonWrongActor, Msg: "not a party to this booking"}
	}
	return b, nil
}

func bookingData(kind string, b models.Booking, extra map[string]string) map[string]string {
	data := map[string]string{
		"type":              kind,
		"trip_id":           strconv.FormatInt(b.TripID, 10),
		"booking_id":        strconv.FormatInt(b.ID, 10),
		"booking_status":    string(b.Status),
		"bargaining_status": string(b.BargainingStatus),
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

func ptr[T any](v T) *T {
	return &v
}
