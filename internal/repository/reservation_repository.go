package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/seatgrid/booking-backend/internal/model"
)

// reservationColumns is the scan list shared by reservation queries.
const reservationColumns = `id, token, user_id, tenant_id, seat_id, status, seat_number, price_cents, entity_id, expires_at, created_at, updated_at`

// ReservationRepo provides data access to the reservations audit table.
// Every lock acquisition leaves exactly one row here; the token column
// is unique forever and status transitions are one-way from ACTIVE.
// All timestamps are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// Create inserts a new ACTIVE reservation carrying the seat snapshot.
// The generated primary key and DB-side timestamps are populated on the
// provided record.  A duplicate token yields ErrTokenExists.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (token, user_id, tenant_id, seat_id, status, seat_number, price_cents, entity_id, expires_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		res.Token, res.UserID, res.TenantID, res.SeatID, res.Status,
		res.SeatNumber, res.PriceCents, res.EntityID, res.ExpiresAt.UTC(),
	)
	if err != nil {
		if isDuplicate(err) {
			return ErrTokenExists
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the row to populate DB-side timestamps.
	const sel = `SELECT created_at, updated_at FROM reservations WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt, &res.UpdatedAt)
}

// GetByToken returns the reservation identified by token.  Returns
// ErrReservationNotFound when no such token was ever issued.
func (r *ReservationRepo) GetByToken(ctx context.Context, token string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE token = ?`
	var res model.Reservation
	err := r.db.QueryRowContext(ctx, q, token).Scan(
		&res.ID, &res.Token, &res.UserID, &res.TenantID, &res.SeatID, &res.Status,
		&res.SeatNumber, &res.PriceCents, &res.EntityID, &res.ExpiresAt, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// UpdateStatus performs a compare-and-set status transition for the
// given token.  It reports whether a row actually moved from the
// expected status; a false return means a concurrent writer got there
// first and the caller should re-read to find out where the row went.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, token, from, to string) (bool, error) {
	const q = `UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE token = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, to, token, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ExpireDue flips every ACTIVE reservation whose deadline has passed to
// EXPIRED and returns how many rows changed.  The janitor calls this
// periodically to reconcile the audit view with the lock store's
// auto-expiry; the core flows do not depend on it.
func (r *ReservationRepo) ExpireDue(ctx context.Context) (int64, error) {
	const q = `UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE status = ? AND expires_at < UTC_TIMESTAMP()`
	res, err := r.db.ExecContext(ctx, q, model.ReservationExpired, model.ReservationActive)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
