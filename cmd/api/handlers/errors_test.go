package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"institute-reviews/cmd/api/dto"
	"institute-reviews/cmd/api/services"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("page: %w", services.ErrInvalidArgument), http.StatusBadRequest},
		{services.ErrUnauthorized, http.StatusUnauthorized},
		{services.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("review x: %w", services.ErrNotFound), http.StatusNotFound},
		{services.ErrConflict, http.StatusConflict},
		{services.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestRespondErrorHidesServerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{name: "client error keeps message", err: fmt.Errorf("review abc: %w", services.ErrNotFound), code: http.StatusNotFound, message: "review abc: not found"},
		{name: "server error is generic", err: errors.New("mongo: connection reset"), code: http.StatusInternalServerError, message: "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tt.err)

			require.Equal(t, tt.code, rec.Code)
			var body dto.ErrorResponseDTO
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body.Error)
		})
	}
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/up", HealthHandler(stubPinger{}))
	r.GET("/down", HealthHandler(stubPinger{err: errors.New("no primary")}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/up", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/down", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body dto.HealthResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "down", body.Store)
}
