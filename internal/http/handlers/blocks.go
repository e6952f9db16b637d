package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type unblockRequest struct {
	PassengerID int64 `json:"passenger_id"`
}

// POST /api/trips/:id/unblock
func (h *Handler) UnblockForTrip(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	tripID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req unblockRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	cleared, err := h.blocks(c).UnblockForTrip(c.Request.Context(), tripID, a.UserID, req.PassengerID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trip_id": tripID, "passenger_id": req.PassengerID, "cleared": cleared})
}

// GET /api/blocks
func (h *Handler) ListBlocked(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	list, err := h.blocks(c).ListBlocked(c.Request.Context(), a.UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocked": list})
}

// DELETE /api/blocks/:passengerId
func (h *Handler) UnblockPersistent(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	passengerID, ok := pathID(c, "passengerId")
	if !ok {
		return
	}
	if err := h.blocks(c).UnblockPersistent(c.Request.Context(), a.UserID, passengerID); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
