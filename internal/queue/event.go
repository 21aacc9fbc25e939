// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published after the confirm transaction
// commits.  It contains enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary
// database.  Publication is best-effort and never fails a confirmation.
type BookingConfirmedEvent struct {
	BookingID        string `json:"booking_id"`
	ReservationToken string `json:"reservation_token"`
	TenantID         string `json:"tenant_id"`
	UserID           string `json:"user_id"`
	SeatID           string `json:"seat_id"`
	SeatNumber       string `json:"seat_number"`
	EntityID         string `json:"entity_id"`
	AmountCents      uint32 `json:"amount_cents"`
	Currency         string `json:"currency"`
	ConfirmedAt      string `json:"confirmed_at"`
}
