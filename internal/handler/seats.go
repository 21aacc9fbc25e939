package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/seatgrid/booking-backend/internal/engine"
	"github.com/seatgrid/booking-backend/internal/middleware"
)

// SeatHandler serves the seat availability listing.
type SeatHandler struct {
	Engine *engine.Engine
}

// NewSeatHandler constructs a SeatHandler.
func NewSeatHandler(eng *engine.Engine) *SeatHandler {
	if eng == nil {
		panic("nil engine passed to NewSeatHandler")
	}
	return &SeatHandler{Engine: eng}
}

// ListSeats handles GET /v1/seats.  Query parameters: entity_id
// (required), min_price and max_price (optional, minor units).  The
// response lists seats that are durably AVAILABLE and not under a live
// lock at the moment of the query.
func (h *SeatHandler) ListSeats(c echo.Context) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return fail(c, engine.Validation("missing request identity"))
	}

	entityID := c.QueryParam("entity_id")
	minPrice, err := priceParam(c, "min_price")
	if err != nil {
		return fail(c, err)
	}
	maxPrice, err := priceParam(c, "max_price")
	if err != nil {
		return fail(c, err)
	}
	if minPrice != nil && maxPrice != nil && *minPrice > *maxPrice {
		return fail(c, engine.Validation("min_price exceeds max_price"))
	}

	seats, err := h.Engine.ListAvailableSeats(c.Request().Context(), actor, entityID, minPrice, maxPrice)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"seats":     seats,
		"count":     len(seats),
		"entity_id": entityID,
	})
}

// priceParam parses an optional non-negative price query parameter.
func priceParam(c echo.Context, name string) (*uint32, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, engine.Validation("invalid " + name)
	}
	p := uint32(v)
	return &p, nil
}
