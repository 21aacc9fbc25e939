package model

import "time"

// Reservation statuses.  ACTIVE is the only non-terminal state and
// transitions are one-way: ACTIVE -> EXPIRED | CONFIRMED | RELEASED.
const (
	ReservationActive    = "ACTIVE"
	ReservationExpired   = "EXPIRED"
	ReservationConfirmed = "CONFIRMED"
	ReservationReleased  = "RELEASED"
)

// Reservation is the durable audit record of a lock acquisition.  The
// token binds the Redis lock, this row and a future booking together;
// it is unique forever.  The seat snapshot columns freeze the price and
// position at reserve time so a later seat sync cannot change what the
// user saw.
//
// Fields:
//  ID         – internal primary key.
//  Token      – opaque reservation token (unique).
//  UserID     – reserving user (internal or ext:{tenant}:{id}).
//  TenantID   – tenant the reservation is attributed to.
//  SeatID     – seat under reservation.
//  Status     – ACTIVE, EXPIRED, CONFIRMED or RELEASED.
//  SeatNumber – snapshot of seats.seat_number.
//  PriceCents – snapshot of seats.price_cents.
//  EntityID   – snapshot of seats.entity_id.
//  ExpiresAt  – mirror of the lock TTL deadline (indexed for the janitor).
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Reservation struct {
	ID         uint64    // reservations.id
	Token      string    // reservations.token
	UserID     string    // reservations.user_id
	TenantID   string    // reservations.tenant_id
	SeatID     string    // reservations.seat_id
	Status     string    // reservations.status
	SeatNumber string    // reservations.seat_number
	PriceCents uint32    // reservations.price_cents
	EntityID   string    // reservations.entity_id
	ExpiresAt  time.Time // reservations.expires_at
	CreatedAt  time.Time // reservations.created_at
	UpdatedAt  time.Time // reservations.updated_at
}
