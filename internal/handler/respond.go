// Package handler implements the HTTP surface of the booking backend.
// Handlers translate requests into engine calls and engine errors into
// the error envelope; no reservation logic lives here.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/seatgrid/booking-backend/internal/engine"
)

// statusFor maps the engine's error taxonomy onto HTTP statuses.
func statusFor(code engine.Code) int {
	switch code {
	case engine.CodeValidation:
		return http.StatusBadRequest
	case engine.CodeAuthentication:
		return http.StatusUnauthorized
	case engine.CodeAuthorization:
		return http.StatusForbidden
	case engine.CodeNotFound:
		return http.StatusNotFound
	case engine.CodeConflict:
		return http.StatusConflict
	case engine.CodeSeatLock:
		return http.StatusLocked
	case engine.CodePayment:
		return http.StatusPaymentRequired
	case engine.CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail serializes an error as the envelope {"error": {code, message,
// details}}.  Engine errors carry their own code; anything else is
// reported as StoreUnavailable without leaking internals.
func fail(c echo.Context, err error) error {
	var ee *engine.Error
	if !errors.As(err, &ee) {
		ee = engine.Unavailable(err)
	}
	body := echo.Map{"code": ee.Code, "message": ee.Message}
	if len(ee.Details) > 0 {
		body["details"] = ee.Details
	}
	return c.JSON(statusFor(ee.Code), echo.Map{"error": body})
}
