package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatgrid/booking-backend/internal/model"
)

func confirmFixtures() (*model.Reservation, *model.Seat) {
	res := &model.Reservation{
		ID:         7,
		Token:      "rsv_0123456789abcdef0123456789abcdef",
		UserID:     "user-a",
		TenantID:   "app-1",
		SeatID:     "seat-1",
		Status:     model.ReservationActive,
		SeatNumber: "A1",
		PriceCents: 2500,
		EntityID:   "event-1",
		ExpiresAt:  time.Now().UTC().Add(time.Minute),
	}
	seat := &model.Seat{
		ID:       "seat-1",
		TenantID: "app-1",
		EntityID: "event-1",
		Currency: "USD",
		Status:   model.SeatStatusAvailable,
	}
	return res, seat
}

func TestConfirmCommitsAllWrites(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	res, seat := confirmFixtures()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM seats WHERE id = ? FOR UPDATE`)).
		WithArgs("seat-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.SeatStatusAvailable))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM reservations WHERE token = ? FOR UPDATE`)).
		WithArgs(res.Token).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.ReservationActive))
	mock.ExpectExec(`INSERT INTO bookings`).
		WithArgs(sqlmock.AnyArg(), "user-a", "app-1", "seat-1", res.Token,
			model.PaymentStatusSuccess, "PAY-ref", uint32(2500), "USD", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE seats SET status = ?, booked_by = ?, booking_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)).
		WithArgs(model.SeatStatusBooked, "user-a", uint64(42), "seat-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE reservations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE token = ?`)).
		WithArgs(model.ReservationConfirmed, res.Token).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	bk, err := NewBookingRepo(db).Confirm(context.Background(), res, seat, "PAY-ref")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), bk.ID)
	assert.Regexp(t, `^BK-\d{8}-[0-9A-Z]{6}$`, bk.BookingID)
	assert.Equal(t, "PAY-ref", bk.PaymentRef)
	assert.Equal(t, "USD", bk.Currency)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmSeatNoLongerAvailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	res, seat := confirmFixtures()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM seats WHERE id = ? FOR UPDATE`)).
		WithArgs("seat-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.SeatStatusBooked))
	mock.ExpectRollback()

	_, err = NewBookingRepo(db).Confirm(context.Background(), res, seat, "PAY-ref")
	assert.ErrorIs(t, err, ErrSeatUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmReservationNotActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	res, seat := confirmFixtures()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM seats WHERE id = ? FOR UPDATE`)).
		WithArgs("seat-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.SeatStatusAvailable))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM reservations WHERE token = ? FOR UPDATE`)).
		WithArgs(res.Token).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.ReservationConfirmed))
	mock.ExpectRollback()

	_, err = NewBookingRepo(db).Confirm(context.Background(), res, seat, "PAY-ref")
	assert.ErrorIs(t, err, ErrReservationNotActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmRegeneratesBookingIDOnDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	res, seat := confirmFixtures()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM seats WHERE id = ? FOR UPDATE`)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.SeatStatusAvailable))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM reservations WHERE token = ? FOR UPDATE`)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.ReservationActive))
	// First insert collides on the random suffix (MySQL error 1062), the
	// retry succeeds with a fresh id.
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(43, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE seats SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE reservations SET`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	bk, err := NewBookingRepo(db).Confirm(context.Background(), res, seat, "PAY-ref")
	require.NoError(t, err)
	assert.Equal(t, uint64(43), bk.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmRollsBackOnSeatUpdateFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	res, seat := confirmFixtures()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM seats WHERE id = ? FOR UPDATE`)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.SeatStatusAvailable))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status FROM reservations WHERE token = ? FOR UPDATE`)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(model.ReservationActive))
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(44, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE seats SET`)).
		WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	_, err = NewBookingRepo(db).Confirm(context.Background(), res, seat, "PAY-ref")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUserPaginates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM bookings WHERE tenant_id = ? AND user_id = ?`)).
		WithArgs("app-1", "user-a").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT .+ FROM bookings`).
		WithArgs("app-1", "user-a", 2, 2).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "booking_id", "user_id", "tenant_id", "seat_id", "reservation_token",
			"payment_status", "payment_ref", "amount_cents", "currency", "metadata", "booked_at",
		}).AddRow(1, "BK-20260826-AAAAAA", "user-a", "app-1", "seat-1", "rsv_x",
			model.PaymentStatusSuccess, "PAY-1", 2500, "USD", `{"seat_number":"A1"}`, now))

	items, total, err := NewBookingRepo(db).ListByUser(context.Background(), "app-1", "user-a", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 1)
	assert.Equal(t, "BK-20260826-AAAAAA", items[0].BookingID)
	assert.JSONEq(t, `{"seat_number":"A1"}`, string(items[0].Metadata))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByReservationTokenNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM bookings WHERE reservation_token`).
		WithArgs("rsv_none").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewBookingRepo(db).GetByReservationToken(context.Background(), "rsv_none")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
