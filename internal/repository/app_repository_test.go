package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var appRows = []string{"id", "name", "secret_hash", "domain", "allowed_origins", "is_active", "created_at", "updated_at"}

func TestAppGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .+ FROM apps WHERE id`).
		WithArgs("app-1").
		WillReturnRows(sqlmock.NewRows(appRows).AddRow(
			"app-1", "Cinema Frontend", "$2a$10$hash", "cinema",
			`["https://shop.example.com"]`, true, now, now))

	app, err := NewAppRepo(db).GetByID(context.Background(), "app-1")
	require.NoError(t, err)
	assert.Equal(t, "Cinema Frontend", app.Name)
	assert.Equal(t, []string{"https://shop.example.com"}, app.AllowedOrigins)
	assert.True(t, app.IsActive)
}

func TestAppGetByIDNullOrigins(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .+ FROM apps WHERE id`).
		WithArgs("app-2").
		WillReturnRows(sqlmock.NewRows(appRows).AddRow(
			"app-2", "No Origins", "$2a$10$hash", "", nil, true, now, now))

	app, err := NewAppRepo(db).GetByID(context.Background(), "app-2")
	require.NoError(t, err)
	assert.Empty(t, app.AllowedOrigins)
}

func TestAppGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM apps WHERE id`).
		WithArgs("app-x").
		WillReturnRows(sqlmock.NewRows(appRows))

	_, err = NewAppRepo(db).GetByID(context.Background(), "app-x")
	assert.ErrorIs(t, err, ErrAppNotFound)
}

func TestUserGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).
		WithArgs("user-a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "display_name", "is_active", "created_at", "updated_at"}).
			AddRow("user-a", "a@example.com", "Alice", true, now, now))

	u, err := NewUserRepo(db).GetByID(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id`).
		WithArgs("user-x").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = NewUserRepo(db).GetByID(context.Background(), "user-x")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
