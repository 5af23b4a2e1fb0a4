package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"institute-reviews/cmd/api/auth"
	"institute-reviews/cmd/api/ratelimit"
	"institute-reviews/cmd/api/trace"
)

type fakeParser map[string]auth.Principal

func (f fakeParser) ParseAccessToken(token string) (auth.Principal, error) {
	p, ok := f[token]
	if !ok {
		return auth.Principal{}, errors.New("bad token")
	}
	return p, nil
}

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestTrace())
	handlers = append(handlers, func(c *gin.Context) {
		p, _ := auth.PrincipalFrom(c)
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID.Hex(), "role": p.Role})
	})
	r.GET("/", handlers...)
	return r
}

func doGet(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddlewares(t *testing.T) {
	user := auth.Principal{UserID: primitive.NewObjectID(), Role: auth.RoleUser}
	admin := auth.Principal{UserID: primitive.NewObjectID(), Role: auth.RoleAdmin}
	parser := fakeParser{"user-token": user, "admin-token": admin}

	tests := []struct {
		name     string
		chain    []gin.HandlerFunc
		token    string
		wantCode int
	}{
		{name: "require user without token", chain: []gin.HandlerFunc{RequireUser(parser)}, wantCode: http.StatusUnauthorized},
		{name: "require user bad token", chain: []gin.HandlerFunc{RequireUser(parser)}, token: "nope", wantCode: http.StatusUnauthorized},
		{name: "require user ok", chain: []gin.HandlerFunc{RequireUser(parser)}, token: "user-token", wantCode: http.StatusOK},
		{name: "admin rejects user", chain: []gin.HandlerFunc{RequireUser(parser), RequireAdmin()}, token: "user-token", wantCode: http.StatusForbidden},
		{name: "admin accepts admin", chain: []gin.HandlerFunc{RequireUser(parser), RequireAdmin()}, token: "admin-token", wantCode: http.StatusOK},
		{name: "optional anonymous", chain: []gin.HandlerFunc{OptionalUser(parser)}, wantCode: http.StatusOK},
		{name: "optional bad token", chain: []gin.HandlerFunc{OptionalUser(parser)}, token: "nope", wantCode: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doGet(newTestRouter(tt.chain...), tt.token)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
		})
	}
}

func TestRequestTraceKeepsIncomingID(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
}

func TestRequestTraceStoresIDInContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestTrace())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, trace.RequestIDFromContext(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "req-ctx-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "req-ctx-1", rec.Body.String())

	rec = doGet(r, "")
	assert.Equal(t, rec.Header().Get("X-Request-Id"), rec.Body.String())
	assert.NotEmpty(t, rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	user := auth.Principal{UserID: primitive.NewObjectID(), Role: auth.RoleUser}
	parser := fakeParser{"user-token": user}
	limiter := ratelimit.NewFixedWindowLimiter(2, time.Minute)
	r := newTestRouter(RequireUser(parser), RateLimit(limiter, "reviews"))

	require.Equal(t, http.StatusOK, doGet(r, "user-token").Code)
	require.Equal(t, http.StatusOK, doGet(r, "user-token").Code)

	rec := doGet(r, "user-token")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitDisabled(t *testing.T) {
	r := newTestRouter(RateLimit(nil, "reviews"))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doGet(r, "").Code)
	}
}
