package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/seatgrid/booking-backend/internal/engine"
	"github.com/seatgrid/booking-backend/internal/model"
	"github.com/seatgrid/booking-backend/internal/utils"
)

// externalBodyLimit caps how much of a request body the gate reads
// while peeking for inline external-user fields.
const externalBodyLimit = 1 << 20

// Identity is the resolved end user of a request.  For pool users the
// UserID is the JWT subject; for external users it carries the
// ext:{tenant}:{id} namespace and External is true.
type Identity struct {
	UserID      string
	External    bool
	Email       string
	DisplayName string
}

// UserSource looks up pool users for bearer-token authentication.
type UserSource interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// externalUserFields is the inline body shape a tenant frontend may
// send instead of the x-external-user-* headers.
type externalUserFields struct {
	ExternalUserID    string `json:"external_user_id"`
	ExternalUserEmail string `json:"external_user_email"`
	ExternalUserName  string `json:"external_user_name"`
}

// UserAuth resolves the end user after TenantAuth.  Resolution order:
// an Authorization bearer token (pool user), the x-external-user-*
// headers, then external-user fields inline in a JSON body.  A present
// but invalid bearer token is rejected outright; it never falls
// through to the external path.
func UserAuth(users UserSource, secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenant := CurrentTenant(c)
			if tenant == nil {
				return authFail(c, http.StatusUnauthorized, engine.CodeAuthentication, "tenant authentication required")
			}

			if auth := c.Request().Header.Get("Authorization"); auth != "" {
				if !strings.HasPrefix(auth, "Bearer ") {
					return authFail(c, http.StatusUnauthorized, engine.CodeAuthentication, "malformed authorization header")
				}
				userID, err := utils.ParseUserToken(secret, strings.TrimPrefix(auth, "Bearer "))
				if err != nil {
					return authFail(c, http.StatusUnauthorized, engine.CodeAuthentication, "invalid user token")
				}
				user, err := users.GetByID(c.Request().Context(), userID)
				if err != nil {
					return authFail(c, http.StatusUnauthorized, engine.CodeAuthentication, "unknown user")
				}
				if !user.IsActive {
					return authFail(c, http.StatusUnauthorized, engine.CodeAuthentication, "user is disabled")
				}
				c.Set(identityContextKey, Identity{
					UserID:      user.ID,
					Email:       user.Email,
					DisplayName: user.DisplayName,
				})
				return next(c)
			}

			if extID := c.Request().Header.Get("x-external-user-id"); extID != "" {
				c.Set(identityContextKey, Identity{
					UserID:      model.ExternalUserID(tenant.ID, extID),
					External:    true,
					Email:       c.Request().Header.Get("x-external-user-email"),
					DisplayName: c.Request().Header.Get("x-external-user-name"),
				})
				return next(c)
			}

			if ext, ok := peekExternalUser(c); ok {
				c.Set(identityContextKey, Identity{
					UserID:      model.ExternalUserID(tenant.ID, ext.ExternalUserID),
					External:    true,
					Email:       ext.ExternalUserEmail,
					DisplayName: ext.ExternalUserName,
				})
				return next(c)
			}

			return authFail(c, http.StatusUnauthorized, engine.CodeAuthentication, "user identity required")
		}
	}
}

// CurrentIdentity returns the identity set by UserAuth.
func CurrentIdentity(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityContextKey).(Identity)
	return id, ok
}

// Actor builds the engine actor for the request's tenant and user.
func Actor(c echo.Context) (engine.Actor, bool) {
	tenant := CurrentTenant(c)
	id, ok := CurrentIdentity(c)
	if tenant == nil || !ok {
		return engine.Actor{}, false
	}
	return engine.Actor{TenantID: tenant.ID, UserID: id.UserID}, true
}

// peekExternalUser reads a JSON body looking for inline external-user
// fields, then restores the body so the handler can bind it normally.
func peekExternalUser(c echo.Context) (externalUserFields, bool) {
	var ext externalUserFields
	req := c.Request()
	if req.Body == nil {
		return ext, false
	}
	ct := req.Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
		return ext, false
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, externalBodyLimit))
	req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return ext, false
	}
	if err := json.Unmarshal(body, &ext); err != nil {
		return ext, false
	}
	return ext, ext.ExternalUserID != ""
}
