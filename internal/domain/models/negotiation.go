package models

import "time"

type EventAction string

const (
	ActionDriverAccept      EventAction = "driver_accept"
	ActionDriverCounter     EventAction = "driver_counter"
	ActionReject            EventAction = "reject"
	ActionBlock             EventAction = "block"
	ActionBlacklist         EventAction = "blacklist"
	ActionPassengerAccept   EventAction = "passenger_accept"
	ActionPassengerCounter  EventAction = "passenger_counter"
	ActionPassengerWithdraw EventAction = "passenger_withdraw"
)

// IsAccept reports whether the action closes the negotiation with a deal.
func (a EventAction) IsAccept() bool {
	return a == ActionDriverAccept || a == ActionPassengerAccept
}

// IsCounter reports whether the action carries a new offer.
func (a EventAction) IsCounter() bool {
	return a == ActionDriverCounter || a == ActionPassengerCounter
}

// NegotiationEvent is one append-only entry of a booking's bargaining history.
// Seq is assigned by the store, starting at 1 per (trip, booking).
type NegotiationEvent struct {
	EventID             string      `json:"event_id"`
	TripID              int64       `json:"trip_id"`
	BookingID           int64       `json:"booking_id"`
	Seq                 int         `json:"seq"`
	Action              EventAction `json:"action"`
	ActorID             int64       `json:"actor_id"`
	ActorRole           string      `json:"actor_role"`
	Fare                *int64      `json:"fare,omitempty"`
	AcceptedFarePerSeat *int64      `json:"accepted_fare_per_seat,omitempty"`
	AcceptedFareTotal   *int64      `json:"accepted_fare_total,omitempty"`
	Note                string      `json:"note,omitempty"`
	CreatedAt           time.Time   `json:"created_at"`
}
