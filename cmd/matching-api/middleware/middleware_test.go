package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recovr-ai/matching-engine/internal/observability"
	"github.com/recovr-ai/matching-engine/internal/ratelimit"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS([]string{"*"})(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/search/text", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	handler := CORS([]string{"https://trusted.example.com"})(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit_AllowsThenRejects(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{
		Limit:           2,
		Window:          time.Minute,
		CleanupInterval: time.Minute,
		Enabled:         true,
	}, observability.Nop())
	defer limiter.Close()

	handler := RateLimit(limiter, observability.Nop())(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/search/text", nil)
		req.RemoteAddr = "10.0.0.1:51234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search/text", nil)
	req.RemoteAddr = "10.0.0.1:51234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
}

func TestRateLimit_SeparateClients(t *testing.T) {
	limiter := ratelimit.New(ratelimit.Config{
		Limit:           1,
		Window:          time.Minute,
		CleanupInterval: time.Minute,
		Enabled:         true,
	}, observability.Nop())
	defer limiter.Close()

	handler := RateLimit(limiter, observability.Nop())(okHandler())

	first := httptest.NewRequest(http.MethodPost, "/api/v1/search/text", nil)
	first.RemoteAddr = "10.0.0.1:51234"
	firstRec := httptest.NewRecorder()
	handler.ServeHTTP(firstRec, first)
	require.Equal(t, http.StatusOK, firstRec.Code)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/search/text", nil)
	second.RemoteAddr = "10.0.0.2:40000"
	secondRec := httptest.NewRecorder()
	handler.ServeHTTP(secondRec, second)
	assert.Equal(t, http.StatusOK, secondRec.Code)
}
