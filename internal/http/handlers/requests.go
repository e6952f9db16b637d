package handlers

import (
	"net/http"

	"rideshare/internal/domain"
	"rideshare/internal/services"

	"github.com/gin-gonic/gin"
)

type bookingRequest struct {
	FromStop      int    `json:"from_stop_order"`
	ToStop        int    `json:"to_stop_order"`
	MaleSeats     int    `json:"male_seats"`
	FemaleSeats   int    `json:"female_seats"`
	NumberOfSeats int    `json:"number_of_seats"`
	OriginalFare  *int64 `json:"original_fare"`
	ProposedFare  *int64 `json:"proposed_fare"`
	FinalFare     *int64 `json:"final_fare"`
	IsNegotiated  bool   `json:"is_negotiated"`
	Notes         string `json:"notes"`
}

type respondRequest struct {
	Action      string `json:"action"`
	CounterFare *int64 `json:"counter_fare"`
	Reason      string `json:"reason"`
}

type passengerRespondRequest struct {
	Action      string `json:"action"`
	CounterFare *int64 `json:"counter_fare"`
	Note        string `json:"note"`
}

// POST /api/trips/:id/requests
func (h *Handler) CreateBookingRequest(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	tripID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req bookingRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	res, err := h.negotiation(c).CreateBookingRequest(c.Request.Context(), services.CreateBookingInput{
		TripID:        tripID,
		PassengerID:   a.UserID,
		FromStop:      req.FromStop,
		ToStop:        req.ToStop,
		MaleSeats:     req.MaleSeats,
		FemaleSeats:   req.FemaleSeats,
		NumberOfSeats: req.NumberOfSeats,
		OriginalFare:  req.OriginalFare,
		ProposedFare:  req.ProposedFare,
		FinalFare:     req.FinalFare,
		IsNegotiated:  req.IsNegotiated,
		Notes:         req.Notes,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GET /api/trips/:id/requests
func (h *Handler) ListPendingRequests(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	tripID, ok := pathID(c, "id")
	if !ok {
		return
	}
	trip, err := h.Store.GetTrip(c.Request.Context(), tripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if trip.DriverID != a.UserID && a.Role != domain.RoleAdmin {
		RespondDomainError(c, domain.ForbiddenError{Reason: domain.ReasonWrongActor, Msg: "only the trip driver can list requests"})
		return
	}

	list, err := h.negotiation(c).ListPendingRequests(c.Request.Context(), tripID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip_id": tripID, "requests": list})
}

// POST /api/trips/:id/requests/:bookingId/respond
func (h *Handler) RespondToRequest(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	tripID, ok := pathID(c, "id")
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "bookingId")
	if !ok {
		return
	}
	var req respondRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	b, err := h.negotiation(c).RespondToRequest(c.Request.Context(), services.RespondInput{
		TripID:      tripID,
		BookingID:   bookingID,
		DriverID:    a.UserID,
		Action:      req.Action,
		CounterFare: req.CounterFare,
		Reason:      req.Reason,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// POST /api/trips/:id/requests/:bookingId/passenger-respond
func (h *Handler) PassengerRespond(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	tripID, ok := pathID(c, "id")
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "bookingId")
	if !ok {
		return
	}
	var req passengerRespondRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	b, err := h.negotiation(c).PassengerRespond(c.Request.Context(), services.PassengerRespondInput{
		TripID:      tripID,
		BookingID:   bookingID,
		PassengerID: a.UserID,
		Action:      req.Action,
		CounterFare: req.CounterFare,
		Note:        req.Note,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GET /api/trips/:id/requests/:bookingId/history
func (h *Handler) GetNegotiationHistory(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	tripID, ok := pathID(c, "id")
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "bookingId")
	if !ok {
		return
	}

	hist, err := h.negotiation(c).GetNegotiationHistory(c.Request.Context(), tripID, bookingID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if hist.Booking.PassengerID != a.UserID && a.Role != domain.RoleAdmin {
		trip, err := h.Store.GetTrip(c.Request.Context(), tripID)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		if trip.DriverID != a.UserID {
			RespondDomainError(c, domain.ForbiddenError{Reason: domain.ReasonWrongActor, Msg: "not a party to this booking"})
			return
		}
	}
	c.JSON(http.StatusOK, hist)
}
