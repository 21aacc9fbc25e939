// Package router registers the HTTP routes and wires the identity gate
// and throttle in front of the tenant-scoped API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/seatgrid/booking-backend/internal/handler"
	"github.com/seatgrid/booking-backend/internal/middleware"
)

// Handlers bundles the constructed handlers for registration.
type Handlers struct {
	Seats        *handler.SeatHandler
	Reservations *handler.ReservationHandler
	Orders       *handler.OrderHandler
	Bookings     *handler.BookingHandler
}

// RegisterRoutes registers routes that bypass the identity gate.
// Currently that is only the health probe.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI registers the tenant-scoped API under /v1.  Every route
// passes TenantAuth, then UserAuth, then the rate limiter, in that
// order: throttle keys include the resolved tenant and user, so the
// gate must run first.
func RegisterAPI(e *echo.Echo, h Handlers, gate ...echo.MiddlewareFunc) {
	g := e.Group("/v1", gate...)

	g.GET("/seats", h.Seats.ListSeats)
	g.POST("/seats/:id/reserve", h.Reservations.Reserve)
	g.POST("/reservations/confirm", h.Reservations.Confirm)
	g.POST("/reservations/release", h.Reservations.Release)
	g.POST("/orders", h.Orders.CreateOrder)
	g.GET("/my-bookings", h.Bookings.MyBookings)
}

// Gate builds the standard middleware chain for the tenant-scoped API.
func Gate(apps middleware.AppSource, users middleware.UserSource, userTokenSecret, defaultOrigins string, limiter echo.MiddlewareFunc) []echo.MiddlewareFunc {
	chain := []echo.MiddlewareFunc{
		middleware.TenantAuth(apps, defaultOrigins),
		middleware.UserAuth(users, userTokenSecret),
	}
	if limiter != nil {
		chain = append(chain, limiter)
	}
	return chain
}
