package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenRateLimiter_BlocksAfterMaxFailures(t *testing.T) {
	rl := NewTokenRateLimiter(3, time.Minute, 5*time.Minute)
	defer rl.Stop()

	ip := "192.168.1.1"

	for i := 0; i < 2; i++ {
		rl.RecordFailure(ip)
		assert.True(t, rl.IsAllowed(ip), "failure %d should not block yet", i+1)
	}

	rl.RecordFailure(ip)
	assert.False(t, rl.IsAllowed(ip))

	wait := rl.RetryAfter(ip)
	assert.True(t, wait > 4*time.Minute && wait <= 5*time.Minute, "got %v", wait)

	assert.True(t, rl.IsAllowed("192.168.1.2"), "other clients unaffected")
}

func TestTokenRateLimiter_WindowExpires(t *testing.T) {
	rl := NewTokenRateLimiter(2, time.Minute, 5*time.Minute)
	defer rl.Stop()

	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.RecordFailure("ip")
	now = now.Add(2 * time.Minute)
	rl.RecordFailure("ip")

	assert.True(t, rl.IsAllowed("ip"), "first failure fell out of the window")
}

func TestTokenRateLimiter_BlockExpires(t *testing.T) {
	rl := NewTokenRateLimiter(1, time.Minute, 5*time.Minute)
	defer rl.Stop()

	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.RecordFailure("ip")
	assert.False(t, rl.IsAllowed("ip"))

	now = now.Add(6 * time.Minute)
	assert.True(t, rl.IsAllowed("ip"))
}

func TestTokenRateLimiter_Prune(t *testing.T) {
	rl := NewTokenRateLimiter(5, time.Minute, time.Minute)
	defer rl.Stop()

	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.RecordFailure("a")
	now = now.Add(10 * time.Minute)
	rl.prune()

	assert.Empty(t, rl.failures)
}

func TestTokenRateLimit_Middleware(t *testing.T) {
	rl := NewTokenRateLimiter(2, time.Minute, 5*time.Minute)
	defer rl.Stop()

	handler := TokenRateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") == "bad" {
			MarkTokenRejected(r.Context())
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	call := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/?token="+token, nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, call("good").Code)
	assert.Equal(t, http.StatusOK, call("good").Code, "valid tokens are not counted")

	assert.Equal(t, http.StatusNotFound, call("bad").Code)
	assert.Equal(t, http.StatusNotFound, call("bad").Code)

	w := call("good")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "Too many invalid access attempts")
}

func TestMarkTokenRejected_WithoutLimiter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.NotPanics(t, func() { MarkTokenRejected(req.Context()) })
}
