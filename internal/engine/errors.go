package engine

import (
	"fmt"
	"time"
)

// Code identifies an error class of the reservation pipeline.  The API
// surface maps codes onto protocol statuses; the engine and adapters
// never deal in HTTP.
type Code string

const (
	CodeValidation       Code = "ValidationError"
	CodeAuthentication   Code = "AuthenticationError"
	CodeAuthorization    Code = "AuthorizationError"
	CodeNotFound         Code = "NotFound"
	CodeConflict         Code = "Conflict"
	CodeSeatLock         Code = "SeatLockError"
	CodePayment          Code = "PaymentError"
	CodeStoreUnavailable Code = "StoreUnavailable"
)

// Error is the typed error the engine surfaces for every failed
// operation.  Details carries structured context (remaining lock TTL,
// current reservation status) that the API surface serializes verbatim.
type Error struct {
	Code    Code
	Message string
	Details map[string]interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error { return e.cause }

// WithDetail attaches one structured detail and returns the error for
// chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	e.Details[key] = value
	return e
}

// Validation reports malformed or missing input.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// NotFound reports an absent seat, reservation or booking.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// Conflict reports an invariant violation: seat not available,
// reservation not ACTIVE, wrong owner.
func Conflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}

// SeatLocked reports that a concurrent holder owns the seat lock (or
// that lock verification failed).  expiresIn, when positive, tells the
// caller when a retry can succeed.
func SeatLocked(msg string, expiresIn time.Duration) *Error {
	e := &Error{Code: CodeSeatLock, Message: msg}
	if expiresIn > 0 {
		e.WithDetail("expires_in_seconds", int(expiresIn.Round(time.Second)/time.Second))
	}
	return e
}

// PaymentFailed reports an unverifiable payment reference or signature.
// The seat lock is retained until TTL so the caller may retry.
func PaymentFailed(msg string, cause error) *Error {
	return &Error{Code: CodePayment, Message: msg, cause: cause}
}

// Unavailable wraps an adapter I/O failure as StoreUnavailable.
func Unavailable(cause error) *Error {
	return &Error{Code: CodeStoreUnavailable, Message: "backing store unavailable", cause: cause}
}
