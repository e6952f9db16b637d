package api

import (
	"log"
	stdhttp "net/http"

	intconfig "rideshare/internal/config"
	"rideshare/internal/domain"
	h "rideshare/internal/http/handlers"
	"rideshare/internal/http/middleware"
	"rideshare/internal/repositories"
	"rideshare/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps are the long-lived collaborators the routes need.
type Deps struct {
	Store  repositories.Store
	Gate   services.Guard
	Notify *services.Dispatcher
}

func NewRouter(env intconfig.Env, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	hd := &h.Handler{
		Store:    deps.Store,
		Gate:     deps.Gate,
		Notify:   deps.Notify,
		Engine:   r,
		Secret:   env.JWTSecret,
		DevToken: env.GinMode != gin.ReleaseMode && env.JWTSecret != "",
	}

	api := r.Group("/api")
	api.GET("/health", hd.Health)
	api.GET("/db-check", hd.DBCheck)
	api.GET("/routes", hd.Routes)
	if hd.DevToken {
		api.POST("/auth/token", hd.IssueDevToken)
	}

	authed := api.Group("", middleware.Auth(env.JWTSecret))
	driver := middleware.RequireRoles(domain.RoleDriver)
	passenger := middleware.RequireRoles(domain.RolePassenger)

	trips := authed.Group("/trips")
	trips.POST("", driver, hd.PostTrip)
	trips.GET("/:id", hd.GetTrip)
	trips.POST("/:id/cancel", driver, hd.CancelTrip)
	trips.POST("/:id/unblock", driver, hd.UnblockForTrip)

	trips.POST("/:id/requests", passenger, hd.CreateBookingRequest)
	trips.GET("/:id/requests", driver, hd.ListPendingRequests)
	trips.POST("/:id/requests/:bookingId/respond", driver, hd.RespondToRequest)
	trips.POST("/:id/requests/:bookingId/passenger-respond", passenger, hd.PassengerRespond)
	trips.GET("/:id/requests/:bookingId/history", hd.GetNegotiationHistory)

	bookings := authed.Group("/bookings")
	bookings.GET("/:id", hd.GetBooking)
	bookings.POST("/:id/cancel", passenger, hd.CancelBooking)
	bookings.GET("/:id/ticket", hd.BookingTicket)

	blocks := authed.Group("/blocks", driver)
	blocks.GET("", hd.ListBlocked)
	blocks.DELETE("/:passengerId", hd.UnblockPersistent)

	return r
}
