// Package lockstore implements the seat lock adapter over Redis.  It is
// the only atomic gate deciding which single requester may proceed to
// payment for a seat: Acquire is a single SET NX PX, Release with an
// expected token is a Lua compare-and-delete, and expiry is Redis TTL
// so an abandoned lock disappears without any external action.
package lockstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seatgrid/booking-backend/internal/model"
	"github.com/seatgrid/booking-backend/internal/utils"
)

// ErrUnavailable wraps any Redis I/O failure.  The store never reports
// a failed round trip as a successful (or failed) acquisition.
var ErrUnavailable = errors.New("lock store unavailable")

// AlreadyHeldError is returned by Acquire when another requester holds
// the seat.  ExpiresIn carries the remaining TTL so callers can tell
// users when to retry.  Contention is an expected outcome, not an I/O
// failure.
type AlreadyHeldError struct {
	SeatID    string
	ExpiresIn time.Duration
}

func (e *AlreadyHeldError) Error() string {
	return fmt.Sprintf("seat %s is already locked (expires in %s)", e.SeatID, e.ExpiresIn)
}

// releaseScript deletes lock:{seat} only when the stored lock's token
// matches ARGV[1].  Running GET+DEL as one script keeps the compare and
// the delete atomic, so we can never delete a lock that was re-acquired
// by someone else between the two steps.
var releaseScript = redis.NewScript(`
	local v = redis.call('GET', KEYS[1])
	if not v then
		return 0
	end
	local ok, lock = pcall(cjson.decode, v)
	if not ok then
		return 0
	end
	if lock.token == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Store provides atomic reserve/verify/release of per-seat locks with a
// fixed TTL.  All operations are single round trips; the store never
// retries internally.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// New returns a Store bound to the given Redis client.  ttl bounds how
// long a holder has to complete payment and confirmation.
func New(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// TTL reports the lock lifetime the store applies on Acquire.
func (s *Store) TTL() time.Duration { return s.ttl }

func lockKey(seatID string) string { return "lock:" + seatID }

// Acquire generates a fresh reservation token and attempts an atomic
// create-if-absent-with-expiry on lock:{seatId}.  Under arbitrary
// concurrent callers exactly one wins; the rest receive an
// AlreadyHeldError carrying the remaining TTL of the winner's lock.
func (s *Store) Acquire(ctx context.Context, seatID, userID string) (*model.Lock, error) {
	token, err := utils.NewReservationToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	lock := model.Lock{
		Token:      token,
		UserID:     userID,
		AcquiredAt: now,
		ExpiresAt:  now.Add(s.ttl),
	}
	payload, err := json.Marshal(lock)
	if err != nil {
		return nil, err
	}
	ok, err := s.rdb.SetNX(ctx, lockKey(seatID), payload, s.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !ok {
		remaining, err := s.rdb.PTTL(ctx, lockKey(seatID)).Result()
		if err != nil || remaining < 0 {
			// The holder vanished between SETNX and PTTL; report the
			// full TTL rather than a negative sentinel.
			remaining = s.ttl
		}
		return nil, &AlreadyHeldError{SeatID: seatID, ExpiresIn: remaining}
	}
	return &lock, nil
}

// Inspect returns the current lock for a seat without mutating it, or
// nil when no lock exists.
func (s *Store) Inspect(ctx context.Context, seatID string) (*model.Lock, error) {
	raw, err := s.rdb.Get(ctx, lockKey(seatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var lock model.Lock
	if err := json.Unmarshal(raw, &lock); err != nil {
		return nil, fmt.Errorf("%w: corrupt lock value: %v", ErrUnavailable, err)
	}
	return &lock, nil
}

// Verify reports whether a live lock exists for the seat with the given
// token and owner.  The expiry comparison is strict: a lock at exactly
// its deadline does not verify.  Verification can fail even while the
// reservation row still reads ACTIVE; the lock store is authoritative.
func (s *Store) Verify(ctx context.Context, seatID, token, userID string) (bool, error) {
	lock, err := s.Inspect(ctx, seatID)
	if err != nil {
		return false, err
	}
	if lock == nil {
		return false, nil
	}
	if lock.Token != token || lock.UserID != userID {
		return false, nil
	}
	return lock.Live(time.Now().UTC()), nil
}

// Release removes the lock for a seat.  When expectedToken is non-empty
// the delete happens only if the stored token matches (compare-and-
// delete); otherwise the delete is unconditional.  It returns whether a
// key was actually removed — releasing an already-expired lock is a
// successful no-op with removed=false.
func (s *Store) Release(ctx context.Context, seatID, expectedToken string) (bool, error) {
	if expectedToken == "" {
		n, err := s.rdb.Del(ctx, lockKey(seatID)).Result()
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return n > 0, nil
	}
	res, err := releaseScript.Run(ctx, s.rdb, []string{lockKey(seatID)}, expectedToken).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return res > 0, nil
}

// BulkExists checks lock existence for many seats in one round trip via
// a pipeline.  The answer is point-in-time: a lock may appear or vanish
// immediately after; Reserve remains the authoritative gate.
func (s *Store) BulkExists(ctx context.Context, seatIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(seatIDs))
	if len(seatIDs) == 0 {
		return out, nil
	}
	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.IntCmd, len(seatIDs))
	for i, id := range seatIDs {
		cmds[i] = pipe.Exists(ctx, lockKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	for i, id := range seatIDs {
		out[id] = cmds[i].Val() > 0
	}
	return out, nil
}
