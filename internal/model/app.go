package model

import "time"

// App represents a tenant application record as stored in the `apps`
// table.  Every frontend integrating with the booking backend owns one
// App row carrying its credentials and isolation scope.  The plain API
// secret is never stored; only its bcrypt hash.
//
// Fields:
//  ID             – opaque tenant identifier presented in x-tenant-id.
//  Name           – human readable application name.
//  SecretHash     – bcrypt hash of the tenant API secret.
//  Domain         – business domain tag (e.g. "cinema", "transit").
//  AllowedOrigins – origins permitted to call tenant-scoped endpoints.
//                   An empty set means no origin restriction.
//  IsActive       – whether the tenant may call the API at all.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type App struct {
	ID             string    // apps.id
	Name           string    // apps.name
	SecretHash     string    // apps.secret_hash
	Domain         string    // apps.domain
	AllowedOrigins []string  // apps.allowed_origins (JSON array column)
	IsActive       bool      // apps.is_active
	CreatedAt      time.Time // apps.created_at
	UpdatedAt      time.Time // apps.updated_at
}
