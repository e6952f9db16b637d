package models

import "time"

// BlockRecord is a driver-wide block against one passenger.
type BlockRecord struct {
	BlockerID int64     `json:"blocker_id"`
	BlockedID int64     `json:"blocked_id"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UserStatus values stored on accounts.
const (
	UserActive = "ACTIVE"
	UserBanned = "BANNED"
)

// VehicleVerified is the only vehicle status that allows posting trips.
const VehicleVerified = "VERIFIED"

// Verification is the read-only snapshot the trip gate decides on.
type Verification struct {
	UserID        int64
	Status        string
	Gender        string
	PendingKeys   []string
	VehicleOwner  int64
	VehicleStatus string
	HasVehicle    bool
}
