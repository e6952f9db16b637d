package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GET /api/bookings/:id
func (h *Handler) GetBooking(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, err := h.negotiation(c).GetBooking(c.Request.Context(), bookingID, a.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// POST /api/bookings/:id/cancel
func (h *Handler) CancelBooking(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	b, err := h.negotiation(c).CancelBooking(c.Request.Context(), bookingID, a.UserID, req.Reason)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GET /api/bookings/:id/ticket
func (h *Handler) BookingTicket(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return
	}
	pdf, filename, err := h.tickets(c).BookingTicket(c.Request.Context(), bookingID, a.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
