package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seatgrid/booking-backend/internal/engine"
	"github.com/seatgrid/booking-backend/internal/middleware"
)

// ReservationHandler serves the reserve, confirm and release endpoints.
type ReservationHandler struct {
	Engine *engine.Engine
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(eng *engine.Engine) *ReservationHandler {
	if eng == nil {
		panic("nil engine passed to NewReservationHandler")
	}
	return &ReservationHandler{Engine: eng}
}

// Reserve handles POST /v1/seats/:id/reserve.  On success the caller
// receives the reservation token, the payment-window deadline and a
// snapshot of the seat at reserve time.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return fail(c, engine.Validation("missing request identity"))
	}
	res, err := h.Engine.Reserve(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"reservation_token": res.Token,
		"expires_at":        res.ExpiresAt.UTC().Format(time.RFC3339),
		"ttl_seconds":       res.TTLSeconds,
		"seat":              res.Seat,
	})
}

// confirmBody is the payload of POST /v1/reservations/confirm.  Which
// fields matter depends on the configured payment mode; the engine and
// verifier sort that out.
type confirmBody struct {
	ReservationToken string `json:"reservation_token"`
	PaymentID        string `json:"payment_id"`
	OrderID          string `json:"order_id"`
	Signature        string `json:"signature"`
}

// Confirm handles POST /v1/reservations/confirm.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return fail(c, engine.Validation("missing request identity"))
	}
	var body confirmBody
	if err := c.Bind(&body); err != nil {
		return fail(c, engine.Validation("invalid request body"))
	}
	booking, err := h.Engine.Confirm(c.Request().Context(), actor, engine.ConfirmRequest{
		ReservationToken: body.ReservationToken,
		PaymentID:        body.PaymentID,
		OrderID:          body.OrderID,
		Signature:        body.Signature,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id":     booking.BookingID,
		"seat_id":        booking.SeatID,
		"amount_cents":   booking.AmountCents,
		"currency":       booking.Currency,
		"payment_status": booking.PaymentStatus,
		"payment_ref":    booking.PaymentRef,
		"booked_at":      booking.BookedAt.UTC().Format(time.RFC3339),
	})
}

// releaseBody is the payload of POST /v1/reservations/release.
type releaseBody struct {
	ReservationToken string `json:"reservation_token"`
}

// Release handles POST /v1/reservations/release.  Releasing an already
// released reservation succeeds again with the same response.
func (h *ReservationHandler) Release(c echo.Context) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return fail(c, engine.Validation("missing request identity"))
	}
	var body releaseBody
	if err := c.Bind(&body); err != nil {
		return fail(c, engine.Validation("invalid request body"))
	}
	if err := h.Engine.Release(c.Request().Context(), actor, body.ReservationToken); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"released": true})
}
