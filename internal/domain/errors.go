package domain

import (
	"errors"
	"fmt"
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// ForbiddenReason tells callers which rule refused the actor.
type ForbiddenReason string

const (
	ReasonBlockedForTrip        ForbiddenReason = "blocked_for_trip"
	ReasonBlockedByDriver       ForbiddenReason = "blocked_by_driver"
	ReasonWrongActor            ForbiddenReason = "wrong_actor"
	ReasonAccountBanned         ForbiddenReason = "account_banned"
	ReasonVerificationPending   ForbiddenReason = "verification_pending"
	ReasonDrivingLicensePending ForbiddenReason = "driving_license_pending"
	ReasonVehicleUnverified     ForbiddenReason = "vehicle_unverified"
)

type ForbiddenError struct {
	Reason ForbiddenReason
	Msg    string
}

func (e ForbiddenError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Reason != "" {
		return fmt.Sprintf("forbidden: %s", e.Reason)
	}
	return "forbidden"
}

// SeatsUnavailableError means the trip could not cover the requested seats at lock time.
type SeatsUnavailableError struct {
	Requested int
	Available int
}

func (e SeatsUnavailableError) Error() string {
	return fmt.Sprintf("only %d seats available, %d requested", e.Available, e.Requested)
}

type InvalidTransitionError struct {
	From   string
	Action string
	Msg    string
}

func (e InvalidTransitionError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("action %s not allowed from %s", e.Action, e.From)
}

// TransientStoreError is safe to retry; no mutation was committed.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e TransientStoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: store temporarily unavailable", e.Op)
	}
	return fmt.Sprintf("%s: store temporarily unavailable: %v", e.Op, e.Err)
}

func (e TransientStoreError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

// ForbiddenReasonOf returns the reason of a ForbiddenError anywhere in the chain.
func ForbiddenReasonOf(err error) (ForbiddenReason, bool) {
	var target ForbiddenError
	if errors.As(err, &target) {
		return target.Reason, true
	}
	return "", false
}

func IsSeatsUnavailable(err error) bool {
	var target SeatsUnavailableError
	return errors.As(err, &target)
}

func IsInvalidTransition(err error) bool {
	var target InvalidTransitionError
	return errors.As(err, &target)
}

func IsTransient(err error) bool {
	var target TransientStoreError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}
