package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"       // errors for sentinel comparisons

	"github.com/seatgrid/booking-backend/internal/model"
)

// seatColumns is the scan list shared by seat queries.
const seatColumns = `id, tenant_id, entity_id, seat_number, price_cents, currency, domain, metadata, status, booked_by, booking_id, created_at, updated_at`

// SeatRepo provides read access to seats.  Seat rows are created by the
// tenant sync surface and mutated only inside the confirm transaction;
// this repo therefore carries no free-standing write methods.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// GetByID retrieves a seat by its id.  Returns ErrSeatNotFound when the
// seat does not exist.
func (r *SeatRepo) GetByID(ctx context.Context, id string) (*model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE id = ?`
	s, err := scanSeat(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return s, nil
}

// ListAvailable retrieves all AVAILABLE seats for a (tenant, entity)
// pair ordered by seat number, optionally bounded by an inclusive price
// range.  The result reflects durable state only; callers overlay the
// lock store's view before returning seats to clients.
func (r *SeatRepo) ListAvailable(ctx context.Context, tenantID, entityID string, minPrice, maxPrice *uint32) ([]model.Seat, error) {
	q := `SELECT ` + seatColumns + ` FROM seats
	      WHERE tenant_id = ? AND entity_id = ? AND status = ?`
	args := []interface{}{tenantID, entityID, model.SeatStatusAvailable}
	if minPrice != nil {
		q += ` AND price_cents >= ?`
		args = append(args, *minPrice)
	}
	if maxPrice != nil {
		q += ` AND price_cents <= ?`
		args = append(args, *maxPrice)
	}
	q += ` ORDER BY seat_number`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanSeat maps one row onto a model.Seat, normalizing nullable columns.
func scanSeat(row rowScanner) (*model.Seat, error) {
	var s model.Seat
	var metadata sql.NullString
	var bookedBy sql.NullString
	var bookingID sql.NullInt64
	err := row.Scan(
		&s.ID, &s.TenantID, &s.EntityID, &s.SeatNumber, &s.PriceCents, &s.Currency,
		&s.Domain, &metadata, &s.Status, &bookedBy, &bookingID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if metadata.Valid {
		s.Metadata = []byte(metadata.String)
	}
	if bookedBy.Valid {
		b := bookedBy.String
		s.BookedBy = &b
	}
	if bookingID.Valid {
		id := uint64(bookingID.Int64)
		s.BookingID = &id
	}
	return &s, nil
}
