package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/seatgrid/booking-backend/internal/model"
)

// AppRepo provides read access to tenant application records.  Tenant
// CRUD belongs to the admin surface; the booking pipeline only ever
// looks tenants up to authenticate them.
type AppRepo struct {
	db *sql.DB
}

// NewAppRepo returns an AppRepo bound to the given database.
func NewAppRepo(db *sql.DB) *AppRepo { return &AppRepo{db: db} }

// GetByID fetches a tenant app by its opaque id.  The allowed_origins
// column stores a JSON array; a NULL or empty value means the tenant
// has no origin restriction.  Returns ErrAppNotFound when absent.
func (r *AppRepo) GetByID(ctx context.Context, id string) (*model.App, error) {
	const q = `SELECT id, name, secret_hash, domain, allowed_origins, is_active, created_at, updated_at
	           FROM apps WHERE id = ? LIMIT 1`
	var a model.App
	var origins sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.Name, &a.SecretHash, &a.Domain, &origins, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAppNotFound
		}
		return nil, err
	}
	if origins.Valid && origins.String != "" {
		if err := json.Unmarshal([]byte(origins.String), &a.AllowedOrigins); err != nil {
			return nil, err
		}
	}
	return &a, nil
}
