package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seatgrid/booking-backend/internal/engine"
	"github.com/seatgrid/booking-backend/internal/middleware"
)

// OrderHandler serves gateway order creation for the signed-callback
// payment flow.
type OrderHandler struct {
	Engine *engine.Engine
}

// NewOrderHandler constructs an OrderHandler.
func NewOrderHandler(eng *engine.Engine) *OrderHandler {
	if eng == nil {
		panic("nil engine passed to NewOrderHandler")
	}
	return &OrderHandler{Engine: eng}
}

// orderBody is the payload of POST /v1/orders.  AmountCents is an
// optional cross-check; when present it must equal the reserved seat's
// snapshot price.
type orderBody struct {
	ReservationToken string `json:"reservation_token"`
	AmountCents      uint32 `json:"amount_cents"`
}

// CreateOrder handles POST /v1/orders.  The call is idempotent per
// reservation token: a retry returns the order created first.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return fail(c, engine.Validation("missing request identity"))
	}
	var body orderBody
	if err := c.Bind(&body); err != nil {
		return fail(c, engine.Validation("invalid request body"))
	}
	order, err := h.Engine.CreateOrder(c.Request().Context(), actor, body.ReservationToken, body.AmountCents)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, order)
}
