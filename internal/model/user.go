package model

import (
	"fmt"
	"strings"
	"time"
)

// ExternalUserPrefix namespaces identities declared by a tenant rather
// than registered in the shared identity pool.
const ExternalUserPrefix = "ext:"

// User represents a record in the shared identity pool (`users` table).
// Users are shared across tenants but every reservation and booking
// attributes the user to exactly one tenant.  External users declared
// by a tenant never have a row here; their identity exists only as a
// namespaced identifier on reservations and bookings.
//
// Fields:
//  ID          – opaque user identifier (JWT subject).
//  Email       – contact email address.
//  DisplayName – name shown on bookings.
//  IsActive    – whether the account may authenticate.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type User struct {
	ID          string    // users.id
	Email       string    // users.email
	DisplayName string    // users.display_name
	IsActive    bool      // users.is_active
	CreatedAt   time.Time // users.created_at
	UpdatedAt   time.Time // users.updated_at
}

// ExternalUserID synthesizes the stable namespaced identifier for a
// tenant-declared user.  Bare external ids must never be persisted
// without the tenant prefix; two tenants may both know a "user-42".
func ExternalUserID(tenantID, externalID string) string {
	return fmt.Sprintf("%s%s:%s", ExternalUserPrefix, tenantID, externalID)
}

// IsExternalUserID reports whether id carries the external-user namespace.
func IsExternalUserID(id string) bool {
	return strings.HasPrefix(id, ExternalUserPrefix)
}
