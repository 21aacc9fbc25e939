// Package repository provides the durable store adapters for apps,
// users, seats, reservations and bookings.  This file defines sentinel
// error values reused across repositories so the engine can translate
// storage outcomes into its typed error taxonomy without inspecting
// driver errors.
package repository

import (
	"errors"
	"strings"
)

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// ErrAppNotFound is returned when no tenant app exists for an id.
var ErrAppNotFound = errors.New("app not found")

// ErrUserNotFound is returned when no user exists for an id.
var ErrUserNotFound = errors.New("user not found")

// ErrReservationNotFound is returned when no reservation exists for a token.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrTokenExists is returned when inserting a reservation whose token
// already exists.  Tokens are generated from crypto/rand so this only
// happens on a programming error or a duplicated insert.
var ErrTokenExists = errors.New("reservation token already exists")

// ErrSeatUnavailable is returned by the confirm transaction when the
// seat's durable status is no longer AVAILABLE.
var ErrSeatUnavailable = errors.New("seat is not available")

// ErrReservationNotActive is returned by the confirm transaction when
// the reservation row is no longer ACTIVE.  Concurrent confirms
// serialize on the row lock; losers observe this error.
var ErrReservationNotActive = errors.New("reservation is not active")

// ErrBookingNotFound is returned when no booking exists for a key.
var ErrBookingNotFound = errors.New("booking not found")

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
