package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seatgrid/booking-backend/internal/model"
	"github.com/seatgrid/booking-backend/internal/repository"
	"github.com/seatgrid/booking-backend/internal/utils"
)

const userTokenSecret = "unit-test-secret"

type fakeUsers struct {
	users map[string]*model.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func poolUsers() *fakeUsers {
	return &fakeUsers{users: map[string]*model.User{
		"user-a": {ID: "user-a", Email: "a@example.com", DisplayName: "Alice A", IsActive: true},
		"user-d": {ID: "user-d", Email: "d@example.com", DisplayName: "Dormant D", IsActive: false},
	}}
}

// runUserAuth drives TenantAuth's successor with a pre-set tenant.
func runUserAuth(t *testing.T, users UserSource, build func(req *http.Request)) (*httptest.ResponseRecorder, *Identity) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/seats/seat-1/reserve", nil)
	if build != nil {
		build(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(tenantContextKey, &model.App{ID: "app-1", IsActive: true})

	var got *Identity
	h := UserAuth(users, userTokenSecret)(func(c echo.Context) error {
		if id, ok := CurrentIdentity(c); ok {
			got = &id
		}
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	return rec, got
}

func TestUserAuthBearerToken(t *testing.T) {
	token, err := utils.NewUserToken(userTokenSecret, "user-a", time.Hour)
	require.NoError(t, err)

	rec, id := runUserAuth(t, poolUsers(), func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, id)
	assert.Equal(t, "user-a", id.UserID)
	assert.False(t, id.External)
	assert.Equal(t, "Alice A", id.DisplayName)
}

func TestUserAuthRejectsBadBearerToken(t *testing.T) {
	rec, id := runUserAuth(t, poolUsers(), func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer not-a-jwt")
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, id)
}

func TestUserAuthRejectsMalformedAuthorizationHeader(t *testing.T) {
	// A present but malformed header must not fall through to the
	// external-user path.
	rec, id := runUserAuth(t, poolUsers(), func(req *http.Request) {
		req.Header.Set("Authorization", "Token abc")
		req.Header.Set("x-external-user-id", "ext-7")
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, id)
}

func TestUserAuthRejectsUnknownAndDisabledUsers(t *testing.T) {
	unknown, err := utils.NewUserToken(userTokenSecret, "user-nope", time.Hour)
	require.NoError(t, err)
	rec, _ := runUserAuth(t, poolUsers(), func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+unknown)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	disabled, err := utils.NewUserToken(userTokenSecret, "user-d", time.Hour)
	require.NoError(t, err)
	rec, _ = runUserAuth(t, poolUsers(), func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+disabled)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserAuthRejectsExpiredToken(t *testing.T) {
	token, err := utils.NewUserToken(userTokenSecret, "user-a", -time.Minute)
	require.NoError(t, err)
	rec, _ := runUserAuth(t, poolUsers(), func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserAuthExternalHeaders(t *testing.T) {
	rec, id := runUserAuth(t, poolUsers(), func(req *http.Request) {
		req.Header.Set("x-external-user-id", "cust-42")
		req.Header.Set("x-external-user-email", "c@example.com")
		req.Header.Set("x-external-user-name", "Cust")
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, id)
	assert.Equal(t, "ext:app-1:cust-42", id.UserID)
	assert.True(t, id.External)
	assert.Equal(t, "c@example.com", id.Email)
}

func TestUserAuthExternalBodyFields(t *testing.T) {
	body := `{"external_user_id":"cust-9","external_user_email":"nine@example.com","seat_id":"seat-1"}`
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/seats/seat-1/reserve", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(tenantContextKey, &model.App{ID: "app-1", IsActive: true})

	var id Identity
	var rebound struct {
		SeatID string `json:"seat_id"`
	}
	h := UserAuth(poolUsers(), userTokenSecret)(func(c echo.Context) error {
		id, _ = CurrentIdentity(c)
		// The body must still be readable by the handler.
		require.NoError(t, c.Bind(&rebound))
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ext:app-1:cust-9", id.UserID)
	assert.Equal(t, "seat-1", rebound.SeatID, "body must be restored after peeking")
}

func TestUserAuthNoIdentity(t *testing.T) {
	rec, id := runUserAuth(t, poolUsers(), nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, id)
	assert.Equal(t, "AuthenticationError", errorCode(t, rec))
}

func TestExternalUserNamespacing(t *testing.T) {
	// Two tenants declaring the same external id must map to distinct
	// engine-level users.
	a := model.ExternalUserID("app-1", "user-42")
	b := model.ExternalUserID("app-2", "user-42")
	assert.NotEqual(t, a, b)
	assert.True(t, model.IsExternalUserID(a))
}
