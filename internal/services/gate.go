package services

import (
	"context"
	"fmt"
	"strings"

	"rideshare/internal/domain"
	"rideshare/internal/domain/models"
	"rideshare/internal/utils"
)

// Guard admits or refuses a user for an activity before any state changes.
type Guard interface {
	Admit(ctx context.Context, userID int64, action domain.GateAction, vehicleID int64) (models.Verification, error)
}

// VerificationLoader reads the account snapshot the gate decides on.
type VerificationLoader interface {
	LoadVerification(ctx context.Context, userID, vehicleID int64) (models.Verification, error)
}

// Profile keys whose pending change blocks riding and driving.
var profileKeys = map[string]bool{
	"name": true, "address": true, "email": true, "phone_no": true, "phone_number": true,
	"cnic": true, "cnic_no": true, "cnic_front_image": true, "cnic_back_image": true,
	"gender": true,
}

// Keys of a pending driving license change; they only block trip creation.
var licenseKeys = map[string]bool{
	"driving_license_no": true, "driving_license_front": true, "driving_license_back": true,
	"driving_license_front_image": true, "driving_license_back_image": true,
}

// TripGate applies the account, profile and vehicle verification rules.
// Every refusal is a ForbiddenError; none of them is retryable.
type TripGate struct {
	Loader    VerificationLoader
	RequestID string
}

func (g TripGate) Admit(ctx context.Context, userID int64, action domain.GateAction, vehicleID int64) (models.Verification, error) {
	if userID <= 0 {
		return models.Verification{}, domain.ValidationError{Field: "user_id", Msg: "must be positive"}
	}
	if g.Loader == nil {
		return models.Verification{}, domain.InternalError{Msg: "verification loader not configured"}
	}
	if action != domain.GateCreateTrip {
		vehicleID = 0
	}
	v, err := g.Loader.LoadVerification(ctx, userID, vehicleID)
	if err != nil {
		return v, err
	}

	if strings.EqualFold(v.Status, models.UserBanned) {
		return v, g.refuse(userID, action, domain.ReasonAccountBanned, "account is banned")
	}
	if action == domain.GateRespond {
		return v, nil
	}

	for _, k := range v.PendingKeys {
		key := strings.ToLower(k)
		if profileKeys[key] {
			return v, g.refuse(userID, action, domain.ReasonVerificationPending,
				"profile change pending verification; ride activity is paused")
		}
		if action == domain.GateCreateTrip && licenseKeys[key] {
			return v, g.refuse(userID, action, domain.ReasonDrivingLicensePending,
				"driving license change pending verification")
		}
	}

	if action == domain.GateCreateTrip {
		if !v.HasVehicle || v.VehicleOwner != userID {
			return v, g.refuse(userID, action, domain.ReasonWrongActor, "vehicle does not belong to driver")
		}
		if !strings.EqualFold(v.VehicleStatus, models.VehicleVerified) {
			return v, g.refuse(userID, action, domain.ReasonVehicleUnverified, "vehicle is not verified")
		}
	}
	return v, nil
}

func (g TripGate) refuse(userID int64, action domain.GateAction, reason domain.ForbiddenReason, msg string) error {
	utils.LogEvent(g.RequestID, "trip_gate", "refuse", fmt.Sprintf("user_id=%d gate=%s reason=%s", userID, action, reason))
	return domain.ForbiddenError{Reason: reason, Msg: msg}
}
