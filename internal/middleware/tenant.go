// Package middleware contains the identity gate and the request
// throttle.  TenantAuth authenticates the calling application,
// UserAuth resolves the end user within that tenant; handlers behind
// both can rely on CurrentTenant and CurrentIdentity being set.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/seatgrid/booking-backend/internal/engine"
	"github.com/seatgrid/booking-backend/internal/model"
	"github.com/seatgrid/booking-backend/internal/utils"
)

// Context keys set by the identity gate.
const (
	tenantContextKey   = "tenant"
	identityContextKey = "identity"
)

// AppSource looks up tenant applications for authentication.
type AppSource interface {
	GetByID(ctx context.Context, id string) (*model.App, error)
}

// authFail writes the engine error envelope from middleware, where the
// handler package's responder is out of reach (it imports us).
func authFail(c echo.Context, status int, code engine.Code, msg string) error {
	return c.JSON(status, echo.Map{
		"error": echo.Map{"code": code, "message": msg},
	})
}

// TenantAuth authenticates every request's tenant via the
// x-tenant-id / x-tenant-secret header pair and enforces the tenant's
// origin allow-list.  defaultOrigins applies to tenants without one:
// "*" (or empty) admits any origin, otherwise it is a comma-separated
// allow-list of its own.
func TenantAuth(apps AppSource, defaultOrigins string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tenantID := c.Request().Header.Get("x-tenant-id")
			secret := c.Request().Header.Get("x-tenant-secret")
			if tenantID == "" || secret == "" {
				return authFail(c, http.StatusUnauthorized, engine.CodeAuthentication, "tenant credentials required")
			}

			app, err := apps.GetByID(c.Request().Context(), tenantID)
			if err != nil {
				// Unknown id and wrong secret answer identically so
				// probing cannot enumerate tenant ids.
				return authFail(c, http.StatusUnauthorized, engine.CodeAuthentication, "invalid tenant credentials")
			}
			if !utils.VerifySecret(app.SecretHash, secret) {
				return authFail(c, http.StatusUnauthorized, engine.CodeAuthentication, "invalid tenant credentials")
			}
			if !app.IsActive {
				return authFail(c, http.StatusUnauthorized, engine.CodeAuthentication, "tenant is disabled")
			}

			// Requests without an Origin header (server-to-server
			// callers) skip the origin policy.
			if origin := c.Request().Header.Get("Origin"); origin != "" {
				allowed := app.AllowedOrigins
				if len(allowed) == 0 {
					allowed = splitOrigins(defaultOrigins)
				}
				if !originAllowed(origin, allowed) {
					return authFail(c, http.StatusForbidden, engine.CodeAuthorization, "origin not allowed for tenant")
				}
			}

			c.Set(tenantContextKey, app)
			return next(c)
		}
	}
}

// CurrentTenant returns the authenticated tenant set by TenantAuth.
func CurrentTenant(c echo.Context) *model.App {
	if app, ok := c.Get(tenantContextKey).(*model.App); ok {
		return app
	}
	return nil
}

// splitOrigins parses a comma-separated origin list; "" yields the
// permissive wildcard list.
func splitOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// originAllowed matches an Origin header against an allow-list.  "*"
// admits everything; entries starting with "*." match any subdomain of
// the remainder; everything else must match exactly.
func originAllowed(origin string, allowed []string) bool {
	host := origin
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	for _, a := range allowed {
		switch {
		case a == "*":
			return true
		case strings.HasPrefix(a, "*."):
			if strings.HasSuffix(host, a[1:]) || host == a[2:] {
				return true
			}
		case a == origin || a == host:
			return true
		}
	}
	return false
}
