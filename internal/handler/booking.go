package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/seatgrid/booking-backend/internal/engine"
	"github.com/seatgrid/booking-backend/internal/middleware"
	"github.com/seatgrid/booking-backend/internal/model"
)

// BookingHandler serves the caller's booking history.
type BookingHandler struct {
	Engine *engine.Engine
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(eng *engine.Engine) *BookingHandler {
	if eng == nil {
		panic("nil engine passed to NewBookingHandler")
	}
	return &BookingHandler{Engine: eng}
}

// bookingItem is the listing projection of a booking.
type bookingItem struct {
	BookingID        string          `json:"booking_id"`
	SeatID           string          `json:"seat_id"`
	ReservationToken string          `json:"reservation_token"`
	PaymentStatus    string          `json:"payment_status"`
	AmountCents      uint32          `json:"amount_cents"`
	Currency         string          `json:"currency"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
	BookedAt         string          `json:"booked_at"`
}

// MyBookings handles GET /v1/my-bookings.  Query parameters: page
// (1-based, default 1) and limit (default 20, max 100).  Results are
// ordered newest first.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	actor, ok := middleware.Actor(c)
	if !ok {
		return fail(c, engine.Validation("missing request identity"))
	}
	page := intParam(c, "page", 1)
	limit := intParam(c, "limit", 20)

	bookings, total, err := h.Engine.Bookings(c.Request().Context(), actor, page, limit)
	if err != nil {
		return fail(c, err)
	}
	items := make([]bookingItem, 0, len(bookings))
	for i := range bookings {
		items = append(items, toBookingItem(&bookings[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"bookings": items,
		"total":    total,
		"page":     page,
	})
}

func toBookingItem(b *model.Booking) bookingItem {
	return bookingItem{
		BookingID:        b.BookingID,
		SeatID:           b.SeatID,
		ReservationToken: b.ReservationToken,
		PaymentStatus:    b.PaymentStatus,
		AmountCents:      b.AmountCents,
		Currency:         b.Currency,
		Metadata:         b.Metadata,
		BookedAt:         b.BookedAt.UTC().Format(time.RFC3339),
	}
}

// intParam parses a positive integer query parameter, falling back to
// def on absence or garbage.
func intParam(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
