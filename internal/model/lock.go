package model

import "time"

// Lock is the ephemeral, TTL-bounded right to proceed to payment for a
// seat.  It lives only in the lock store under lock:{seatId} and
// disappears on its own at ExpiresAt.  At most one lock exists per
// seat at any instant; the store's create-if-absent guarantees it.
type Lock struct {
	Token      string    `json:"token"`
	UserID     string    `json:"user_id"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Live reports whether the lock is still valid at the given instant.
// The comparison is strict: a lock at exactly ExpiresAt is dead.
func (l *Lock) Live(now time.Time) bool {
	return now.Before(l.ExpiresAt)
}
