package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitMiddlewareEnforcesBurst(t *testing.T) {
	handler := RateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ip := "203.0.113.77"

	// Fire well past the burst budget; the refill rate is far too slow
	// to matter within one test run.
	ok, throttled := 0, 0
	for i := 0; i < clientBurst+10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/challenges", nil)
		req.Header.Set("X-Forwarded-For", ip)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		switch rr.Code {
		case http.StatusOK:
			ok++
		case http.StatusTooManyRequests:
			throttled++
		}
	}

	assert.GreaterOrEqual(t, ok, clientBurst)
	assert.GreaterOrEqual(t, throttled, 1)
}

func TestRateLimitBucketsArePerClient(t *testing.T) {
	handler := RateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Exhaust one client's bucket.
	for i := 0; i <= clientBurst; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard", nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.10")
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	// A different client is unaffected.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.11")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
