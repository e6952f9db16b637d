package handlers

import (
	"time"

	"rideshare/internal/http/middleware"
	"rideshare/internal/repositories"
	"rideshare/internal/services"

	"github.com/gin-gonic/gin"
)

// Handler carries the dependencies shared by every route. Services are
// built per request so their logs carry the request id.
type Handler struct {
	Store    repositories.Store
	Gate     services.Guard
	Notify   *services.Dispatcher
	Now      func() time.Time
	Engine   *gin.Engine
	Secret   string
	DevToken bool
}

func (h *Handler) negotiation(c *gin.Context) services.NegotiationService {
	return services.NegotiationService{
		Store:     h.Store,
		Gate:      h.Gate,
		Notify:    h.Notify,
		RequestID: middleware.GetRequestID(c),
		Now:       h.Now,
	}
}

func (h *Handler) trips(c *gin.Context) services.TripService {
	return services.TripService{
		Store:     h.Store,
		Gate:      h.Gate,
		Notify:    h.Notify,
		RequestID: middleware.GetRequestID(c),
		Now:       h.Now,
	}
}

func (h *Handler) blocks(c *gin.Context) services.BlockList {
	return services.BlockList{Store: h.Store, RequestID: middleware.GetRequestID(c)}
}

func (h *Handler) tickets(c *gin.Context) services.TicketService {
	return services.TicketService{Store: h.Store, RequestID: middleware.GetRequestID(c)}
}
