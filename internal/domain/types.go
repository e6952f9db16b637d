package domain

// Role names carried in access tokens.
const (
	RoleDriver    = "driver"
	RolePassenger = "passenger"
	RoleAdmin     = "admin"
)

// RequestContext carries authenticated user info when available.
type RequestContext struct {
	UserID    int64  `json:"userId"`
	Role      string `json:"role"`
	RequestID string `json:"requestId,omitempty"`
}

// GateAction names the activity checked by the verification gate.
type GateAction string

const (
	GateBook       GateAction = "book"
	GateCreateTrip GateAction = "create_trip"
	GateRespond    GateAction = "respond"
)
