package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/seatgrid/booking-backend/internal/model"
	"github.com/seatgrid/booking-backend/internal/utils"
)

// bookingColumns is the scan list shared by booking queries.
const bookingColumns = `id, booking_id, user_id, tenant_id, seat_id, reservation_token, payment_status, payment_ref, amount_cents, currency, metadata, booked_at`

// maxBookingIDAttempts bounds booking-id regeneration inside the
// confirm transaction when the random suffix collides.
const maxBookingIDAttempts = 5

// BookingRepo provides the confirm transaction and read access to
// bookings.  Bookings are immutable after creation; there are no update
// or delete methods on purpose.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// bookingMetadata is the snapshot blob stored alongside a booking.
type bookingMetadata struct {
	SeatNumber string `json:"seat_number"`
	EntityID   string `json:"entity_id"`
}

// Confirm executes the booking transaction: it locks the seat and
// reservation rows, re-checks both invariants under the row locks,
// inserts the booking, flips the seat to BOOKED carrying the new
// booking id in the same update, and marks the reservation CONFIRMED.
// Everything commits or nothing does.
//
// Sentinels: ErrSeatNotFound when the seat vanished, ErrSeatUnavailable
// when its durable status is no longer AVAILABLE, ErrReservationNotActive
// when a concurrent confirm/release/expiry won the race.  The row lock
// on the reservation is the serialization point for concurrent confirms
// on the same token.
func (r *BookingRepo) Confirm(ctx context.Context, res *model.Reservation, seat *model.Seat, paymentRef string) (*model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Re-read the seat under a row lock; the pre-transaction check in
	// the engine is advisory only.
	var seatStatus string
	err = tx.QueryRowContext(ctx, `SELECT status FROM seats WHERE id = ? FOR UPDATE`, res.SeatID).Scan(&seatStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	if seatStatus != model.SeatStatusAvailable {
		return nil, ErrSeatUnavailable
	}

	// Lock the reservation row.  Losers of a confirm/confirm or
	// confirm/release race block here and then observe the new status.
	var resStatus string
	err = tx.QueryRowContext(ctx, `SELECT status FROM reservations WHERE token = ? FOR UPDATE`, res.Token).Scan(&resStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if resStatus != model.ReservationActive {
		return nil, ErrReservationNotActive
	}

	meta, err := json.Marshal(bookingMetadata{SeatNumber: res.SeatNumber, EntityID: res.EntityID})
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	bk := model.Booking{
		UserID:           res.UserID,
		TenantID:         res.TenantID,
		SeatID:           res.SeatID,
		ReservationToken: res.Token,
		PaymentStatus:    model.PaymentStatusSuccess,
		PaymentRef:       paymentRef,
		AmountCents:      res.PriceCents,
		Currency:         seat.Currency,
		Metadata:         meta,
		BookedAt:         now,
	}

	// Insert the booking, regenerating the human-readable id when the
	// random suffix collides with an existing one for the day.
	const ins = `INSERT INTO bookings (booking_id, user_id, tenant_id, seat_id, reservation_token, payment_status, payment_ref, amount_cents, currency, metadata, booked_at)
	             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for attempt := 0; attempt < maxBookingIDAttempts; attempt++ {
		bid, err := utils.NewBookingID(now)
		if err != nil {
			return nil, err
		}
		result, err := tx.ExecContext(ctx, ins,
			bid, bk.UserID, bk.TenantID, bk.SeatID, bk.ReservationToken,
			bk.PaymentStatus, bk.PaymentRef, bk.AmountCents, bk.Currency, string(meta), now,
		)
		if err != nil {
			if isDuplicate(err) {
				continue
			}
			return nil, err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, err
		}
		bk.ID = uint64(id)
		bk.BookingID = bid
		break
	}
	if bk.ID == 0 {
		return nil, errors.New("exhausted booking id attempts")
	}

	// One seat update carrying both the status flip and the booking
	// back-reference; no intermediate NULL booking_id state.
	const upSeat = `UPDATE seats SET status = ?, booked_by = ?, booking_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := tx.ExecContext(ctx, upSeat, model.SeatStatusBooked, bk.UserID, bk.ID, bk.SeatID); err != nil {
		return nil, err
	}

	const upRes = `UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE token = ?`
	if _, err := tx.ExecContext(ctx, upRes, model.ReservationConfirmed, res.Token); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &bk, nil
}

// GetByReservationToken returns the booking created from a reservation
// token, or ErrBookingNotFound when the token never confirmed.
func (r *BookingRepo) GetByReservationToken(ctx context.Context, token string) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE reservation_token = ?`
	return scanBooking(r.db.QueryRowContext(ctx, q, token))
}

// ListByUser returns one page of a user's bookings within a tenant,
// newest first, along with the total count for pagination.
func (r *BookingRepo) ListByUser(ctx context.Context, tenantID, userID string, page, limit int) ([]model.Booking, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	var total int
	const countQ = `SELECT COUNT(*) FROM bookings WHERE tenant_id = ? AND user_id = ?`
	if err := r.db.QueryRowContext(ctx, countQ, tenantID, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	const q = `SELECT ` + bookingColumns + ` FROM bookings
	           WHERE tenant_id = ? AND user_id = ?
	           ORDER BY booked_at DESC, id DESC
	           LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, tenantID, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]model.Booking, 0, limit)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// scanBooking maps one row onto a model.Booking.
func scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	var meta sql.NullString
	err := row.Scan(
		&b.ID, &b.BookingID, &b.UserID, &b.TenantID, &b.SeatID, &b.ReservationToken,
		&b.PaymentStatus, &b.PaymentRef, &b.AmountCents, &b.Currency, &meta, &b.BookedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if meta.Valid {
		b.Metadata = []byte(meta.String)
	}
	return &b, nil
}
