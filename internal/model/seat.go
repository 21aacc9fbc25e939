package model

import (
	"encoding/json"
	"time"
)

// Durable seat statuses.  A seat only ever moves AVAILABLE -> BOOKED,
// and only inside the confirm transaction.  Ephemeral unavailability
// (a live lock) is never written to this column.
const (
	SeatStatusAvailable = "AVAILABLE"
	SeatStatusBooked    = "BOOKED"
)

// Seat describes the atomic bookable unit.  Seats are uniquely
// identified by (tenant, entity, seat number); the entity groups seats
// into a bookable collection such as an event, a bus route or a show.
//
// Fields:
//  ID          – opaque seat identifier (primary key).
//  TenantID    – owning tenant; seats never cross tenants.
//  EntityID    – bookable collection this seat belongs to.
//  SeatNumber  – position label unique within (tenant, entity).
//  PriceCents  – price in minor currency units.
//  Currency    – ISO currency code, e.g. "USD".
//  Domain      – business domain tag copied from the tenant sync.
//  Metadata    – opaque tenant-supplied JSON blob.
//  Status      – AVAILABLE or BOOKED.
//  BookedBy    – user who booked the seat (nil while AVAILABLE).
//  BookingID   – internal id of the booking that consumed the seat.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Seat struct {
	ID         string          // seats.id
	TenantID   string          // seats.tenant_id
	EntityID   string          // seats.entity_id
	SeatNumber string          // seats.seat_number
	PriceCents uint32          // seats.price_cents
	Currency   string          // seats.currency
	Domain     string          // seats.domain
	Metadata   json.RawMessage // seats.metadata (nullable JSON)
	Status     string          // seats.status
	BookedBy   *string         // seats.booked_by (nullable)
	BookingID  *uint64         // seats.booking_id (nullable)
	CreatedAt  time.Time       // seats.created_at
	UpdatedAt  time.Time       // seats.updated_at
}

// SeatView is the snapshot of a seat returned by listing and embedded
// in reserve responses.  It deliberately omits booking back-references.
type SeatView struct {
	ID         string `json:"id"`
	SeatNumber string `json:"seat_number"`
	PriceCents uint32 `json:"price_cents"`
	Currency   string `json:"currency"`
	EntityID   string `json:"entity_id"`
}

// View returns the listing/snapshot projection of the seat.
func (s *Seat) View() SeatView {
	return SeatView{
		ID:         s.ID,
		SeatNumber: s.SeatNumber,
		PriceCents: s.PriceCents,
		Currency:   s.Currency,
		EntityID:   s.EntityID,
	}
}
