package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatgrid/booking-backend/internal/model"
	"github.com/seatgrid/booking-backend/internal/repository"
	"github.com/seatgrid/booking-backend/internal/utils"
)

const tenantSecret = "s3cret-app-key"

type fakeApps struct {
	apps map[string]*model.App
}

func (f *fakeApps) GetByID(_ context.Context, id string) (*model.App, error) {
	app, ok := f.apps[id]
	if !ok {
		return nil, repository.ErrAppNotFound
	}
	return app, nil
}

func testApp(t *testing.T, mutate func(*model.App)) *fakeApps {
	t.Helper()
	hash, err := utils.HashSecret(tenantSecret, 4)
	require.NoError(t, err)
	app := &model.App{
		ID:         "app-1",
		Name:       "Test App",
		SecretHash: hash,
		IsActive:   true,
	}
	if mutate != nil {
		mutate(app)
	}
	return &fakeApps{apps: map[string]*model.App{app.ID: app}}
}

// runTenantAuth drives the middleware with the given headers and
// reports the outcome.
func runTenantAuth(t *testing.T, apps AppSource, defaultOrigins string, headers map[string]string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/seats", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	h := TenantAuth(apps, defaultOrigins)(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, reached
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestTenantAuthValidCredentials(t *testing.T) {
	rec, reached := runTenantAuth(t, testApp(t, nil), "*", map[string]string{
		"x-tenant-id":     "app-1",
		"x-tenant-secret": tenantSecret,
	})
	assert.True(t, reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTenantAuthMissingCredentials(t *testing.T) {
	rec, reached := runTenantAuth(t, testApp(t, nil), "*", nil)
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AuthenticationError", errorCode(t, rec))
}

func TestTenantAuthWrongSecret(t *testing.T) {
	rec, reached := runTenantAuth(t, testApp(t, nil), "*", map[string]string{
		"x-tenant-id":     "app-1",
		"x-tenant-secret": "wrong",
	})
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTenantAuthUnknownTenantMatchesWrongSecretResponse(t *testing.T) {
	unknown, _ := runTenantAuth(t, testApp(t, nil), "*", map[string]string{
		"x-tenant-id":     "app-nope",
		"x-tenant-secret": tenantSecret,
	})
	wrong, _ := runTenantAuth(t, testApp(t, nil), "*", map[string]string{
		"x-tenant-id":     "app-1",
		"x-tenant-secret": "wrong",
	})
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.JSONEq(t, wrong.Body.String(), unknown.Body.String())
}

func TestTenantAuthDisabledTenant(t *testing.T) {
	apps := testApp(t, func(a *model.App) { a.IsActive = false })
	rec, reached := runTenantAuth(t, apps, "*", map[string]string{
		"x-tenant-id":     "app-1",
		"x-tenant-secret": tenantSecret,
	})
	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AuthenticationError", errorCode(t, rec))
}

func TestTenantAuthOriginAllowList(t *testing.T) {
	apps := testApp(t, func(a *model.App) {
		a.AllowedOrigins = []string{"https://shop.example.com", "*.tickets.example.com"}
	})
	creds := func(origin string) map[string]string {
		h := map[string]string{
			"x-tenant-id":     "app-1",
			"x-tenant-secret": tenantSecret,
		}
		if origin != "" {
			h["Origin"] = origin
		}
		return h
	}

	// Exact match.
	rec, reached := runTenantAuth(t, apps, "", creds("https://shop.example.com"))
	assert.True(t, reached, rec.Body.String())

	// Subdomain wildcard.
	_, reached = runTenantAuth(t, apps, "", creds("https://box.tickets.example.com"))
	assert.True(t, reached)

	// Disallowed origin is a 403, not a 401.
	rec, reached = runTenantAuth(t, apps, "", creds("https://evil.example.net"))
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "AuthorizationError", errorCode(t, rec))

	// No Origin header (server-to-server) bypasses the policy.
	_, reached = runTenantAuth(t, apps, "", creds(""))
	assert.True(t, reached)
}

func TestTenantAuthDefaultOriginsApplyWithoutAllowList(t *testing.T) {
	// Wildcard default admits anything.
	_, reached := runTenantAuth(t, testApp(t, nil), "*", map[string]string{
		"x-tenant-id":     "app-1",
		"x-tenant-secret": tenantSecret,
		"Origin":          "https://anything.example.org",
	})
	assert.True(t, reached)

	// A restrictive default is enforced.
	rec, reached := runTenantAuth(t, testApp(t, nil), "https://only.example.com", map[string]string{
		"x-tenant-id":     "app-1",
		"x-tenant-secret": tenantSecret,
		"Origin":          "https://other.example.com",
	})
	assert.False(t, reached)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"https://a.example.com", "*.b.example.com"}
	assert.True(t, originAllowed("https://a.example.com", allowed))
	assert.True(t, originAllowed("https://x.b.example.com", allowed))
	assert.True(t, originAllowed("https://b.example.com", allowed))
	assert.False(t, originAllowed("https://c.example.com", allowed))
	assert.True(t, originAllowed("https://whatever", []string{"*"}))
	assert.False(t, originAllowed("https://a.example.com", nil))
}
