// Package engine implements the reservation pipeline: list, reserve,
// confirm and release, plus the invariants tying the seat lock, the
// reservation audit row and the booking together.  The engine consults
// the lock store as the fast concurrency gate and the durable store as
// authoritative state; handlers populate the Actor from the identity
// gate before calling in.
package engine

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/seatgrid/booking-backend/internal/lockstore"
	"github.com/seatgrid/booking-backend/internal/model"
	"github.com/seatgrid/booking-backend/internal/payment"
	"github.com/seatgrid/booking-backend/internal/queue"
	"github.com/seatgrid/booking-backend/internal/repository"
)

// compensationTimeout bounds the detached lock release that runs when a
// request is cancelled between lock acquisition and reservation insert.
const compensationTimeout = 5 * time.Second

// Actor identifies the authenticated tenant and user an operation runs
// for.  Both fields are mandatory; the identity gate guarantees them.
type Actor struct {
	TenantID string
	UserID   string
}

// LockStore is the atomic per-seat gate (see internal/lockstore).
type LockStore interface {
	Acquire(ctx context.Context, seatID, userID string) (*model.Lock, error)
	Verify(ctx context.Context, seatID, token, userID string) (bool, error)
	Release(ctx context.Context, seatID, expectedToken string) (bool, error)
	BulkExists(ctx context.Context, seatIDs []string) (map[string]bool, error)
}

// SeatStore reads seats from the durable store.
type SeatStore interface {
	GetByID(ctx context.Context, id string) (*model.Seat, error)
	ListAvailable(ctx context.Context, tenantID, entityID string, minPrice, maxPrice *uint32) ([]model.Seat, error)
}

// ReservationStore persists the reservation audit rows.
type ReservationStore interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByToken(ctx context.Context, token string) (*model.Reservation, error)
	UpdateStatus(ctx context.Context, token, from, to string) (bool, error)
}

// BookingStore runs the confirm transaction and reads bookings.
type BookingStore interface {
	Confirm(ctx context.Context, res *model.Reservation, seat *model.Seat, paymentRef string) (*model.Booking, error)
	GetByReservationToken(ctx context.Context, token string) (*model.Booking, error)
	ListByUser(ctx context.Context, tenantID, userID string, page, limit int) ([]model.Booking, int, error)
}

// OrderStore creates gateway orders, idempotent per reservation token.
type OrderStore interface {
	Create(ctx context.Context, res *model.Reservation, amountCents uint32, currency string) (*payment.Order, bool, error)
}

// PublishFunc delivers a booking-confirmed event to the broker.
type PublishFunc func(ctx context.Context, ev queue.BookingConfirmedEvent) error

// Engine wires the adapters together.  It holds no mutable state of
// its own; all cross-request coordination happens in the stores.
type Engine struct {
	locks        LockStore
	seats        SeatStore
	reservations ReservationStore
	bookings     BookingStore
	orders       OrderStore
	verifier     payment.Verifier
	publish      PublishFunc // optional, best-effort
	ttl          time.Duration
}

// New constructs an Engine.  orders and publish may be nil when the
// create-order surface or the event broker are not deployed.
func New(locks LockStore, seats SeatStore, reservations ReservationStore, bookings BookingStore, orders OrderStore, verifier payment.Verifier, publish PublishFunc, lockTTL time.Duration) *Engine {
	if locks == nil || seats == nil || reservations == nil || bookings == nil || verifier == nil {
		panic("nil dependency passed to engine.New")
	}
	return &Engine{
		locks:        locks,
		seats:        seats,
		reservations: reservations,
		bookings:     bookings,
		orders:       orders,
		verifier:     verifier,
		publish:      publish,
		ttl:          lockTTL,
	}
}

// LockTTL reports the configured lock lifetime.
func (e *Engine) LockTTL() time.Duration { return e.ttl }

// ReserveResult is returned by a successful Reserve.
type ReserveResult struct {
	Token      string
	ExpiresAt  time.Time
	TTLSeconds int
	Seat       model.SeatView
}

// ConfirmRequest carries the caller's proof of payment.  PaymentID
// alone selects reference (or simulated) verification; OrderID plus
// Signature selects signed-callback verification.
type ConfirmRequest struct {
	ReservationToken string
	PaymentID        string
	OrderID          string
	Signature        string
}

// ListAvailableSeats returns the seats a user can currently try to
// reserve: durable AVAILABLE minus seats holding a live lock.  The view
// is eventually consistent; Reserve remains the authoritative gate.
func (e *Engine) ListAvailableSeats(ctx context.Context, actor Actor, entityID string, minPrice, maxPrice *uint32) ([]model.SeatView, error) {
	if entityID == "" {
		return nil, Validation("entity_id is required")
	}
	seats, err := e.seats.ListAvailable(ctx, actor.TenantID, entityID, minPrice, maxPrice)
	if err != nil {
		return nil, Unavailable(err)
	}
	ids := make([]string, len(seats))
	for i := range seats {
		ids[i] = seats[i].ID
	}
	locked, err := e.locks.BulkExists(ctx, ids)
	if err != nil {
		return nil, Unavailable(err)
	}
	views := make([]model.SeatView, 0, len(seats))
	for i := range seats {
		if locked[seats[i].ID] {
			continue
		}
		views = append(views, seats[i].View())
	}
	return views, nil
}

// Reserve acquires the seat lock and writes the ACTIVE audit row.  If
// the insert fails — or the request is cancelled between the two steps —
// the acquired lock is released before the error surfaces so no zombie
// lock blocks the seat until TTL expiry.
func (e *Engine) Reserve(ctx context.Context, actor Actor, seatID string) (*ReserveResult, error) {
	if seatID == "" {
		return nil, Validation("seat_id is required")
	}
	seat, err := e.seats.GetByID(ctx, seatID)
	if err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return nil, NotFound("seat not found")
		}
		return nil, Unavailable(err)
	}
	if seat.TenantID != actor.TenantID {
		return nil, Conflict("seat belongs to a different tenant")
	}
	if seat.Status != model.SeatStatusAvailable {
		return nil, Conflict("seat is not available").WithDetail("status", seat.Status)
	}

	lock, err := e.locks.Acquire(ctx, seat.ID, actor.UserID)
	if err != nil {
		var held *lockstore.AlreadyHeldError
		if errors.As(err, &held) {
			return nil, SeatLocked("seat is locked by another user", held.ExpiresIn)
		}
		return nil, Unavailable(err)
	}

	res := &model.Reservation{
		Token:      lock.Token,
		UserID:     actor.UserID,
		TenantID:   actor.TenantID,
		SeatID:     seat.ID,
		Status:     model.ReservationActive,
		SeatNumber: seat.SeatNumber,
		PriceCents: seat.PriceCents,
		EntityID:   seat.EntityID,
		ExpiresAt:  lock.ExpiresAt,
	}
	if err := e.reservations.Create(ctx, res); err != nil {
		e.compensateRelease(ctx, seat.ID, lock.Token)
		return nil, Unavailable(err)
	}

	return &ReserveResult{
		Token:      lock.Token,
		ExpiresAt:  lock.ExpiresAt,
		TTLSeconds: int(e.ttl / time.Second),
		Seat:       seat.View(),
	}, nil
}

// Confirm turns an ACTIVE reservation plus a verifiable payment into a
// booking.  Only a caller holding both the live lock and the ACTIVE
// audit row can reach the durable transaction; that pair is the
// serialization point.
func (e *Engine) Confirm(ctx context.Context, actor Actor, req ConfirmRequest) (*model.Booking, error) {
	if req.ReservationToken == "" {
		return nil, Validation("reservation_token is required")
	}
	res, err := e.reservations.GetByToken(ctx, req.ReservationToken)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, NotFound("reservation not found")
		}
		return nil, Unavailable(err)
	}
	if res.TenantID != actor.TenantID || res.UserID != actor.UserID {
		return nil, Conflict("reservation does not belong to requester")
	}
	if res.Status != model.ReservationActive {
		return nil, e.notActiveConflict(ctx, res.Token)
	}
	if time.Now().UTC().After(res.ExpiresAt) {
		// The audit row lags the lock store's auto-expiry; reconcile
		// before rejecting.
		_, _ = e.reservations.UpdateStatus(ctx, res.Token, model.ReservationActive, model.ReservationExpired)
		e.compensateRelease(ctx, res.SeatID, res.Token)
		return nil, Conflict("reservation expired").WithDetail("status", model.ReservationExpired)
	}

	ok, err := e.locks.Verify(ctx, res.SeatID, res.Token, actor.UserID)
	if err != nil {
		return nil, Unavailable(err)
	}
	if !ok {
		// The lock can expire while the row still reads ACTIVE.
		return nil, SeatLocked("seat lock verification failed", 0)
	}

	seat, err := e.seats.GetByID(ctx, res.SeatID)
	if err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return nil, NotFound("seat not found")
		}
		return nil, Unavailable(err)
	}
	if seat.Status != model.SeatStatusAvailable {
		return nil, Conflict("seat is not available").WithDetail("status", seat.Status)
	}

	ref, err := e.verifier.Verify(ctx, payment.VerifyRequest{
		ReservationToken: res.Token,
		PaymentID:        req.PaymentID,
		OrderID:          req.OrderID,
		Signature:        req.Signature,
		AmountCents:      res.PriceCents,
	})
	if err != nil {
		if errors.Is(err, payment.ErrVerificationFailed) {
			// Lock is retained until TTL so the caller can retry
			// after fixing the payment.
			return nil, PaymentFailed("payment verification failed", err)
		}
		// Gateway I/O errors are not a verdict on the payment.
		return nil, Unavailable(err)
	}

	booking, err := e.bookings.Confirm(ctx, res, seat, ref)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSeatUnavailable):
			return nil, Conflict("seat is not available")
		case errors.Is(err, repository.ErrReservationNotActive):
			return nil, e.notActiveConflict(ctx, res.Token)
		case errors.Is(err, repository.ErrSeatNotFound), errors.Is(err, repository.ErrReservationNotFound):
			return nil, NotFound("reservation state vanished during confirm")
		default:
			// Transaction aborted; the lock stays as-is for a retry.
			return nil, Unavailable(err)
		}
	}

	// Committed.  Compare-and-delete the lock; a no-op if it already
	// expired on its own.
	e.compensateRelease(ctx, res.SeatID, res.Token)
	e.publishConfirmed(res, booking)
	return booking, nil
}

// Release ends an in-flight reservation.  Idempotent on an already
// released token; rejected once the reservation confirmed.
func (e *Engine) Release(ctx context.Context, actor Actor, token string) error {
	if token == "" {
		return Validation("reservation_token is required")
	}
	res, err := e.reservations.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return NotFound("reservation not found")
		}
		return Unavailable(err)
	}
	if res.TenantID != actor.TenantID || res.UserID != actor.UserID {
		return Conflict("reservation does not belong to requester")
	}
	switch res.Status {
	case model.ReservationReleased:
		return nil // repeat release is a no-op
	case model.ReservationExpired:
		// Expiry is terminal and already freed the seat; nothing to
		// mutate, so the release succeeds without touching the row.
		return nil
	case model.ReservationConfirmed:
		return Conflict("reservation is not active").WithDetail("status", res.Status)
	}

	if _, err := e.locks.Release(ctx, res.SeatID, res.Token); err != nil {
		return Unavailable(err)
	}
	moved, err := e.reservations.UpdateStatus(ctx, res.Token, res.Status, model.ReservationReleased)
	if err != nil {
		return Unavailable(err)
	}
	if !moved {
		// Raced with confirm or the janitor; report where the row went.
		return e.releaseRaced(ctx, res.Token)
	}
	return nil
}

// Bookings returns one page of the actor's bookings, newest first.
func (e *Engine) Bookings(ctx context.Context, actor Actor, page, limit int) ([]model.Booking, int, error) {
	items, total, err := e.bookings.ListByUser(ctx, actor.TenantID, actor.UserID, page, limit)
	if err != nil {
		return nil, 0, Unavailable(err)
	}
	return items, total, nil
}

// CreateOrder creates (or returns) the gateway order for an ACTIVE
// reservation.  Idempotent per reservation token: retries receive the
// order created first.
func (e *Engine) CreateOrder(ctx context.Context, actor Actor, token string, amountCents uint32) (*payment.Order, error) {
	if e.orders == nil {
		return nil, Validation("order creation is not enabled")
	}
	if token == "" {
		return nil, Validation("reservation_token is required")
	}
	res, err := e.reservations.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return nil, NotFound("reservation not found")
		}
		return nil, Unavailable(err)
	}
	if res.TenantID != actor.TenantID || res.UserID != actor.UserID {
		return nil, Conflict("reservation does not belong to requester")
	}
	if res.Status != model.ReservationActive {
		return nil, Conflict("reservation is not active").WithDetail("status", res.Status)
	}
	if amountCents != 0 && amountCents != res.PriceCents {
		return nil, Validation("amount does not match the reserved seat price")
	}
	seat, err := e.seats.GetByID(ctx, res.SeatID)
	if err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return nil, NotFound("seat not found")
		}
		return nil, Unavailable(err)
	}
	order, _, err := e.orders.Create(ctx, res, res.PriceCents, seat.Currency)
	if err != nil {
		return nil, Unavailable(err)
	}
	return order, nil
}

// notActiveConflict re-reads the reservation to attach its current
// status to the conflict; the losing confirm only knows the row moved.
func (e *Engine) notActiveConflict(ctx context.Context, token string) *Error {
	conflict := Conflict("reservation is not active")
	if cur, err := e.reservations.GetByToken(ctx, token); err == nil {
		conflict.WithDetail("status", cur.Status)
		if cur.Status == model.ReservationConfirmed {
			if b, err := e.bookings.GetByReservationToken(ctx, token); err == nil {
				conflict.WithDetail("booking_id", b.BookingID)
			}
		}
	}
	return conflict
}

// releaseRaced resolves the outcome of a release whose CAS lost.
func (e *Engine) releaseRaced(ctx context.Context, token string) error {
	cur, err := e.reservations.GetByToken(ctx, token)
	if err != nil {
		return Unavailable(err)
	}
	switch cur.Status {
	case model.ReservationReleased:
		return nil
	case model.ReservationExpired:
		// The janitor slipped in between read and CAS; expiry already
		// freed the seat, so the release has nothing left to do.
		return nil
	default:
		return Conflict("reservation is not active").WithDetail("status", cur.Status)
	}
}

// compensateRelease deletes our lock on a detached context so that a
// cancelled or deadline-exceeded request still cleans up after itself.
func (e *Engine) compensateRelease(ctx context.Context, seatID, token string) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	if _, err := e.locks.Release(rctx, seatID, token); err != nil {
		log.Printf("engine: failed to release lock for seat %s: %v", seatID, err)
	}
}

// publishConfirmed emits the booking-confirmed event, best-effort.
func (e *Engine) publishConfirmed(res *model.Reservation, b *model.Booking) {
	if e.publish == nil {
		return
	}
	ev := queue.BookingConfirmedEvent{
		BookingID:        b.BookingID,
		ReservationToken: b.ReservationToken,
		TenantID:         b.TenantID,
		UserID:           b.UserID,
		SeatID:           b.SeatID,
		SeatNumber:       res.SeatNumber,
		EntityID:         res.EntityID,
		AmountCents:      b.AmountCents,
		Currency:         b.Currency,
		ConfirmedAt:      b.BookedAt.Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.publish(ctx, ev); err != nil {
			log.Printf("engine: publish booking.confirmed failed for %s: %v", b.BookingID, err)
		}
	}()
}
