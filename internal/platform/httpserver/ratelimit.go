package httpserver

import (
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/example/blog-engagement/internal/platform/api"
)

// RateLimiter is a per-client token bucket. Buckets idle for longer than a
// full refill are dropped on the next sweep.
type RateLimiter struct {
	// TrustForwarded keys clients by X-Forwarded-For. Enable only behind a
	// proxy that appends to the header.
	TrustForwarded bool

	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens per second
	burst   int
	now     func() time.Time
	swept   time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewRateLimiter allows burst requests at once and rate requests per second
// after that.
func NewRateLimiter(rate float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		now:     time.Now,
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(rl.burst), last: now}
		rl.buckets[key] = b
	}

	b.tokens += now.Sub(b.last).Seconds() * rl.rate
	if b.tokens > float64(rl.burst) {
		b.tokens = float64(rl.burst)
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweep runs at most once per refill window. Caller holds mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if rl.rate <= 0 {
		return
	}
	window := time.Duration(float64(rl.burst) / rl.rate * float64(time.Second))
	if now.Sub(rl.swept) < window {
		return
	}
	rl.swept = now
	for k, b := range rl.buckets {
		if now.Sub(b.last) >= window {
			delete(rl.buckets, k)
		}
	}
}

// retryAfter is the whole seconds until one token refills.
func (rl *RateLimiter) retryAfter() int {
	if rl.rate <= 0 {
		return 0
	}
	return int(math.Ceil(1 / rl.rate))
}

// Middleware rejects requests over the limit with 429 RATE_LIMITED.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(rl.clientKey(r)) {
			api.RateLimited(w, "RATE_LIMITED", "Too many requests", RequestIDFromContext(r.Context()), rl.retryAfter())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey is the remote host. Behind a trusted proxy it is the last
// X-Forwarded-For hop, the one the proxy appended; earlier hops are client
// supplied.
func (rl *RateLimiter) clientKey(r *http.Request) string {
	if rl.TrustForwarded {
		fwd := r.Header.Values("X-Forwarded-For")
		if n := len(fwd); n > 0 {
			hops := strings.Split(fwd[n-1], ",")
			if last := strings.TrimSpace(hops[len(hops)-1]); last != "" {
				return last
			}
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
