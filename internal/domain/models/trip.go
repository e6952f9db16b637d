package models

import (
	"strings"
	"time"
)

type TripStatus string

const (
	TripScheduled  TripStatus = "SCHEDULED"
	TripInProgress TripStatus = "IN_PROGRESS"
	TripCompleted  TripStatus = "COMPLETED"
	TripCancelled  TripStatus = "CANCELLED"
)

// Terminal reports whether the trip no longer accepts any booking activity.
func (s TripStatus) Terminal() bool {
	return s == TripCompleted || s == TripCancelled
}

type GenderPreference string

const (
	GenderMale   GenderPreference = "MALE"
	GenderFemale GenderPreference = "FEMALE"
	GenderAny    GenderPreference = "ANY"
)

// ParseGenderPreference accepts "male", "Female", "any" and empty (ANY).
func ParseGenderPreference(v string) (GenderPreference, bool) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "", "ANY":
		return GenderAny, true
	case "MALE":
		return GenderMale, true
	case "FEMALE":
		return GenderFemale, true
	default:
		return "", false
	}
}

// Trip is a scheduled ride posted by a driver. AvailableSeats is only
// changed through the seat ledger.
type Trip struct {
	ID                    int64            `json:"id"`
	DriverID              int64            `json:"driver_id"`
	VehicleID             int64            `json:"vehicle_id,omitempty"`
	Status                TripStatus       `json:"status"`
	TotalSeats            int              `json:"total_seats"`
	AvailableSeats        int              `json:"available_seats"`
	BaseFare              int64            `json:"base_fare"`
	IsNegotiable          bool             `json:"is_negotiable"`
	MinimumAcceptableFare *int64           `json:"minimum_acceptable_fare,omitempty"`
	GenderPreference      GenderPreference `json:"gender_preference"`
	RouteFrom             string           `json:"route_from"`
	RouteTo               string           `json:"route_to"`
	DepartureTime         time.Time        `json:"departure_time"`
	Notes                 string           `json:"notes,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// RouteStop is one stop on a trip's route, addressed by its order.
type RouteStop struct {
	TripID int64  `json:"trip_id"`
	Order  int    `json:"stop_order"`
	Name   string `json:"stop_name"`
}

// SeatRelease reports the outcome of a ledger release.
type SeatRelease struct {
	Before  int
	After   int
	Total   int
	Clamped bool
}
