package utils

import (
	"crypto/rand"
	"fmt"
	"time"
)

// bookingAlphabet is the base-36 set used for the booking id suffix.
const bookingAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewBookingID builds a human readable booking identifier of the form
// BK-YYYYMMDD-XXXXXX where the suffix is six uppercase base-36
// characters.  The suffix space is small enough that very high daily
// volumes can collide; callers inserting bookings must regenerate on a
// duplicate-key error rather than treat the id as globally unique.
func NewBookingID(now time.Time) (string, error) {
	suffix, err := randomBase36(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("BK-%s-%s", now.UTC().Format("20060102"), suffix), nil
}

// randomBase36 draws n characters uniformly from bookingAlphabet using
// rejection sampling so no character is favored.
func randomBase36(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, 1)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		// 252 is the largest multiple of 36 below 256; rejecting
		// everything above it keeps the draw unbiased.
		if buf[0] >= 252 {
			continue
		}
		out = append(out, bookingAlphabet[int(buf[0])%len(bookingAlphabet)])
	}
	return string(out), nil
}
