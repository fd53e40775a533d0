package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(capacity int, interval time.Duration) (*Limiter, *time.Time) {
	l := New(capacity, interval)
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
	l.nowFn = func() time.Time { return now }
	return l, &now
}

func TestLimiter_Allow(t *testing.T) {
	l, now := newTestLimiter(3, time.Second)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d", i)
	}
	assert.False(t, l.Allow("10.0.0.1"))

	// Another key has its own bucket.
	assert.True(t, l.Allow("10.0.0.2"))

	// One interval refills one token.
	*now = now.Add(time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestLimiter_RefillCapsAtCapacity(t *testing.T) {
	l, now := newTestLimiter(2, time.Second)

	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))

	*now = now.Add(time.Hour)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestLimiter_SweepEvictsIdleBuckets(t *testing.T) {
	l, now := newTestLimiter(2, time.Second)

	l.Allow("10.0.0.1")
	assert.Len(t, l.buckets, 1)

	*now = now.Add(time.Hour)
	l.Allow("10.0.0.2")
	assert.Len(t, l.buckets, 1)
	assert.NotContains(t, l.buckets, "10.0.0.1")
}

func TestLimiter_Middleware(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.RemoteAddr = "10.0.0.1:51234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"too many requests"}`, rec.Body.String())
}

// Authenticated requests are keyed by token, so two users behind one address
// do not drain each other's buckets, and a token is not widened by switching
// addresses.
func TestLimiter_Middleware_KeysByBearerToken(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr, token string) int {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.RemoteAddr = addr
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000", "token-a"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1000", "token-a"))

	// Same address, different token: separate bucket.
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000", "token-b"))

	// Anonymous traffic from that address has its own bucket too.
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1000", ""))

	// A throttled token stays throttled from a new address.
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.2:1000", "token-a"))
}
