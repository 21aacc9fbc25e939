package model

import (
	"encoding/json"
	"time"
)

// PaymentStatusSuccess is the only payment status a booking is ever
// created with; failed payments never reach the bookings table.
const PaymentStatusSuccess = "SUCCESS"

// Booking is the terminal, immutable record that a seat has been paid
// for.  Exactly one booking exists per confirmed reservation token and
// per BOOKED seat; the seat row carries the internal booking id as a
// back-reference written inside the same transaction.
//
// Fields:
//  ID               – internal primary key (referenced by seats.booking_id).
//  BookingID        – human readable id, BK-YYYYMMDD-XXXXXX.
//  UserID           – booking user.
//  TenantID         – tenant the booking is attributed to.
//  SeatID           – booked seat.
//  ReservationToken – originating reservation (unique).
//  PaymentStatus    – SUCCESS on creation.
//  PaymentRef       – verified payment reference.
//  AmountCents      – amount charged, copied from the seat price.
//  Currency         – ISO currency code.
//  Metadata         – snapshot blob (seat number, entity).
//  BookedAt         – creation timestamp.
type Booking struct {
	ID               uint64          // bookings.id
	BookingID        string          // bookings.booking_id
	UserID           string          // bookings.user_id
	TenantID         string          // bookings.tenant_id
	SeatID           string          // bookings.seat_id
	ReservationToken string          // bookings.reservation_token
	PaymentStatus    string          // bookings.payment_status
	PaymentRef       string          // bookings.payment_ref
	AmountCents      uint32          // bookings.amount_cents
	Currency         string          // bookings.currency
	Metadata         json.RawMessage // bookings.metadata (nullable JSON)
	BookedAt         time.Time       // bookings.booked_at
}
