package handlers

import (
	"net/http"

	"rideshare/internal/domain"
	"rideshare/internal/services"
	"rideshare/internal/utils"

	"github.com/gin-gonic/gin"
)

type postTripRequest struct {
	VehicleID             int64                `json:"vehicle_id"`
	TotalSeats            int                  `json:"total_seats"`
	BaseFare              int64                `json:"base_fare"`
	IsNegotiable          *bool                `json:"is_negotiable"`
	MinimumAcceptableFare *int64               `json:"minimum_acceptable_fare"`
	GenderPreference      string               `json:"gender_preference"`
	DepartureTime         string               `json:"departure_time"`
	Stops                 []services.StopInput `json:"stops"`
	Notes                 string               `json:"notes"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

// POST /api/trips
func (h *Handler) PostTrip(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req postTripRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	departure, err := utils.ParseDateTime(req.DepartureTime)
	if err != nil {
		RespondDomainError(c, domain.ValidationError{Field: "departure_time", Msg: "use RFC3339 or YYYY-MM-DD HH:MM:SS", Err: err})
		return
	}

	detail, err := h.trips(c).PostTrip(c.Request.Context(), services.PostTripInput{
		DriverID:              a.UserID,
		VehicleID:             req.VehicleID,
		TotalSeats:            req.TotalSeats,
		BaseFare:              req.BaseFare,
		IsNegotiable:          req.IsNegotiable,
		MinimumAcceptableFare: req.MinimumAcceptableFare,
		GenderPreference:      req.GenderPreference,
		DepartureTime:         departure,
		Stops:                 req.Stops,
		Notes:                 req.Notes,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

// GET /api/trips/:id
func (h *Handler) GetTrip(c *gin.Context) {
	tripID, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.trips(c).GetTrip(c.Request.Context(), tripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// POST /api/trips/:id/cancel
func (h *Handler) CancelTrip(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	tripID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	trip, err := h.trips(c).CancelTrip(c.Request.Context(), tripID, a.UserID, req.Reason)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, trip)
}
