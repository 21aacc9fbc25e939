package utils // package utils provides token, id and hashing helpers

import (
	"crypto/rand"
	"encoding/hex"
)

// NewReservationToken returns a fresh opaque reservation token.  The
// token binds a lock, a reservation row and a future booking, so it
// must be unguessable; 16 bytes of crypto/rand give 32 hex characters.
func NewReservationToken() (string, error) {
	raw, err := randomHex(16)
	if err != nil {
		return "", err
	}
	return "rsv_" + raw, nil
}

// NewOrderID returns a fresh gateway order identifier.
func NewOrderID() (string, error) {
	raw, err := randomHex(12)
	if err != nil {
		return "", err
	}
	return "ord_" + raw, nil
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
