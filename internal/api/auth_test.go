package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"campusbook/internal/config"

	"github.com/stretchr/testify/assert"
)

func authConfig(rps float64, burst int) config.APIConfig {
	return config.APIConfig{
		Auth: config.APIAuthConfig{
			Enabled:      true,
			HeaderAPIKey: "x-api-key",
			APIKeys: []config.APIClientKey{
				{Key: "portal-key", Name: "portal"},
			},
		},
		RateLimit: config.APIRateLimitConfig{RPS: rps, Burst: burst},
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMissingKey(t *testing.T) {
	auth := NewAuth(authConfig(0, 0))
	handler := auth.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/facilities", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthInvalidKey(t *testing.T) {
	auth := NewAuth(authConfig(0, 0))
	handler := auth.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/facilities", nil)
	req.Header.Set("x-api-key", "wrong")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthValidKey(t *testing.T) {
	auth := NewAuth(authConfig(0, 0))
	handler := auth.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/facilities", nil)
	req.Header.Set("x-api-key", "portal-key")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthDisabledPassesThrough(t *testing.T) {
	cfg := authConfig(0, 0)
	cfg.Auth.Enabled = false
	handler := NewAuth(cfg).Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/facilities", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRateLimitPerKey(t *testing.T) {
	auth := NewAuth(authConfig(1, 2))
	handler := auth.Wrap(okHandler())

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/facilities", nil)
		req.Header.Set("x-api-key", "portal-key")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Contains(t, codes[2:], http.StatusTooManyRequests)
}
