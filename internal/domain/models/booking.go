package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
	BookingCompleted BookingStatus = "COMPLETED"
)

// Terminal reports whether the booking has left the negotiation phase.
func (s BookingStatus) Terminal() bool {
	return s == BookingConfirmed || s == BookingCancelled || s == BookingCompleted
}

type BargainingStatus string

const (
	BargainNone             BargainingStatus = "NO_NEGOTIATION"
	BargainPending          BargainingStatus = "PENDING"
	BargainAccepted         BargainingStatus = "ACCEPTED"
	BargainRejected         BargainingStatus = "REJECTED"
	BargainCounterOffer     BargainingStatus = "COUNTER_OFFER"
	BargainPassengerCounter BargainingStatus = "PASSENGER_COUNTER"
	BargainWithdrawn        BargainingStatus = "WITHDRAWN"
	BargainBlocked          BargainingStatus = "BLOCKED"
	// BargainBlacklisted only appears on legacy rows; new transitions write BLOCKED.
	BargainBlacklisted BargainingStatus = "BLACKLISTED"
)

// Final reports whether no further offers can be exchanged.
func (s BargainingStatus) Final() bool {
	switch s {
	case BargainAccepted, BargainRejected, BargainWithdrawn, BargainBlocked, BargainBlacklisted:
		return true
	default:
		return false
	}
}

// Booking is one passenger's reservation request on a trip.
type Booking struct {
	ID               int64            `json:"id"`
	Reference        string           `json:"reference"`
	TripID           int64            `json:"trip_id"`
	PassengerID      int64            `json:"passenger_id"`
	FromStopOrder    int              `json:"from_stop_order"`
	ToStopOrder      int              `json:"to_stop_order"`
	MaleSeats        int              `json:"male_seats"`
	FemaleSeats      int              `json:"female_seats"`
	NumberOfSeats    int              `json:"number_of_seats"`
	SeatsLocked      bool             `json:"seats_locked"`
	Status           BookingStatus    `json:"booking_status"`
	BargainingStatus BargainingStatus `json:"bargaining_status"`
	OriginalFare     int64            `json:"original_fare"`
	NegotiatedFare   *int64           `json:"negotiated_fare"`
	PassengerOffer   *int64           `json:"passenger_offer"`
	TotalFare        int64            `json:"total_fare"`
	Blocked          bool             `json:"blocked"`
	Notes            string           `json:"notes,omitempty"`
	BookedAt         time.Time        `json:"booked_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// HoldsSeats reports whether the booking currently counts against the trip pool.
func (b Booking) HoldsSeats() bool {
	return b.SeatsLocked
}

// CanRespond reports whether either party may still act on the negotiation.
func (b Booking) CanRespond() bool {
	return !b.Status.Terminal() && !b.BargainingStatus.Final()
}

// BookingUpdate lists the fields a transition may change. Nil fields stay
// untouched; NegotiatedFare/PassengerOffer use the Set flags so nil can be written.
type BookingUpdate struct {
	Status           *BookingStatus
	BargainingStatus *BargainingStatus
	SeatsLocked      *bool
	Blocked          *bool
	TotalFare        *int64

	SetNegotiatedFare bool
	NegotiatedFare    *int64
	SetPassengerOffer bool
	PassengerOffer    *int64
}

// Empty reports whether the update carries no change.
func (u BookingUpdate) Empty() bool {
	return u.Status == nil && u.BargainingStatus == nil && u.SeatsLocked == nil &&
		u.Blocked == nil && u.TotalFare == nil && !u.SetNegotiatedFare && !u.SetPassengerOffer
}

// Apply returns b with every present field of u written.
func (u BookingUpdate) Apply(b Booking) Booking {
	if u.Status != nil {
		b.Status = *u.Status
	}
	if u.BargainingStatus != nil {
		b.BargainingStatus = *u.BargainingStatus
	}
	if u.SeatsLocked != nil {
		b.SeatsLocked = *u.SeatsLocked
	}
	if u.Blocked != nil {
		b.Blocked = *u.Blocked
	}
	if u.TotalFare != nil {
		b.TotalFare = *u.TotalFare
	}
	if u.SetNegotiatedFare {
		b.NegotiatedFare = copyFare(u.NegotiatedFare)
	}
	if u.SetPassengerOffer {
		b.PassengerOffer = copyFare(u.PassengerOffer)
	}
	return b
}

// BookingSummary is the row shape used by pending-request listings.
type BookingSummary struct {
	Booking
	FromStopName string `json:"from_stop_name"`
	ToStopName   string `json:"to_stop_name"`
}

// Fare returns a pointer to a copy of v.
func Fare(v int64) *int64 {
	return &v
}

func copyFare(v *int64) *int64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
