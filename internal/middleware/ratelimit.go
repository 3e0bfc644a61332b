package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// TokenRateLimiter blocks clients that keep presenting invalid access tokens
type TokenRateLimiter struct {
	failures      map[string][]time.Time
	blocked       map[string]time.Time
	mutex         sync.Mutex
	maxFailures   int
	window        time.Duration
	blockDuration time.Duration
	now           func() time.Time
	done          chan struct{}
	stopOnce      sync.Once
}

// NewTokenRateLimiter creates a limiter allowing maxFailures rejected tokens per
// window before blocking the client for blockDuration
func NewTokenRateLimiter(maxFailures int, window, blockDuration time.Duration) *TokenRateLimiter {
	rl := &TokenRateLimiter{
		failures:      make(map[string][]time.Time),
		blocked:       make(map[string]time.Time),
		maxFailures:   maxFailures,
		window:        window,
		blockDuration: blockDuration,
		now:           time.Now,
		done:          make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// IsAllowed reports whether ip may present a token
func (rl *TokenRateLimiter) IsAllowed(ip string) bool {
	return rl.RetryAfter(ip) == 0
}

// RetryAfter returns how long ip stays blocked, or 0
func (rl *TokenRateLimiter) RetryAfter(ip string) time.Duration {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	until, ok := rl.blocked[ip]
	if !ok {
		return 0
	}
	remaining := until.Sub(rl.now())
	if remaining <= 0 {
		delete(rl.blocked, ip)
		return 0
	}
	return remaining
}

// RecordFailure counts one rejected token for ip
func (rl *TokenRateLimiter) RecordFailure(ip string) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	failures := pruneBefore(rl.failures[ip], now.Add(-rl.window))
	failures = append(failures, now)

	if len(failures) >= rl.maxFailures {
		rl.blocked[ip] = now.Add(rl.blockDuration)
		delete(rl.failures, ip)
		return
	}
	rl.failures[ip] = failures
}

// Stop ends the cleanup goroutine
func (rl *TokenRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *TokenRateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.prune()
		}
	}
}

func (rl *TokenRateLimiter) prune() {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)
	for ip, failures := range rl.failures {
		if valid := pruneBefore(failures, cutoff); len(valid) == 0 {
			delete(rl.failures, ip)
		} else {
			rl.failures[ip] = valid
		}
	}
	for ip, until := range rl.blocked {
		if !until.After(now) {
			delete(rl.blocked, ip)
		}
	}
}

func pruneBefore(times []time.Time, cutoff time.Time) []time.Time {
	var valid []time.Time
	for _, t := range times {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	return valid
}

type tokenRejectedKey struct{}

// MarkTokenRejected flags the current request as having presented an invalid token
func MarkTokenRejected(ctx context.Context) {
	if flag, ok := ctx.Value(tokenRejectedKey{}).(*atomic.Bool); ok {
		flag.Store(true)
	}
}

// TokenRateLimit rejects blocked clients with 429 and records requests that
// handlers flagged with MarkTokenRejected
func TokenRateLimit(rl *TokenRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)

			if wait := rl.RetryAfter(ip); wait > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
				writeError(w, r, http.StatusTooManyRequests, "Too many invalid access attempts. Please try again later.")
				return
			}

			rejected := new(atomic.Bool)
			ctx := context.WithValue(r.Context(), tokenRejectedKey{}, rejected)
			next.ServeHTTP(w, r.WithContext(ctx))

			if rejected.Load() {
				rl.RecordFailure(ip)
			}
		})
	}
}
