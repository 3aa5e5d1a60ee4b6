package service

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"

	"github.com/derfian/httpkom/internal/core/domain"
	"github.com/derfian/httpkom/pkg/token"
)

// ============================================================================
// Admin authentication
// ============================================================================

// AdminAuthenticator checks administrative keys against an Argon2id hash.
// With no hash configured every key is rejected.
type AdminAuthenticator struct {
	hash string
}

// NewAdminAuthenticator returns an authenticator for the given hash.
func NewAdminAuthenticator(hash string) *AdminAuthenticator {
	return &AdminAuthenticator{hash: hash}
}

// Enabled reports whether an admin key hash is configured.
func (a *AdminAuthenticator) Enabled() bool {
	return a != nil && a.hash != ""
}

// Verify returns ErrAdminKeyInvalid unless key matches.
func (a *AdminAuthenticator) Verify(key string) error {
	if !a.Enabled() {
		return domain.ErrAdminKeyInvalid.WithDetails("admin api disabled")
	}
	if key == "" || !token.VerifySecret(key, a.hash) {
		return domain.ErrAdminKeyInvalid
	}
	return nil
}

// ============================================================================
// RateLimiterRegistry - per-client login throttling
// ============================================================================

// RateLimiterRegistry keeps one token bucket per key (client IP).
type RateLimiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	clock    clock.Clock
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiterRegistry allows perSecond events per key with the given
// burst. A non-positive perSecond disables limiting.
func NewRateLimiterRegistry(perSecond float64, burst int, clk clock.Clock) *RateLimiterRegistry {
	if clk == nil {
		clk = clock.New()
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiterRegistry{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		clock:    clk,
	}
}

// Allow reports whether key may proceed now.
func (r *RateLimiterRegistry) Allow(key string) bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	now := r.clock.Now()

	r.mu.Lock()
	e, ok := r.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.limiters[key] = e
	}
	e.lastSeen = now
	r.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Prune drops limiters idle for longer than maxIdle and returns how many
// it dropped.
func (r *RateLimiterRegistry) Prune(maxIdle time.Duration) int {
	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for k, e := range r.limiters {
		if now.Sub(e.lastSeen) > maxIdle {
			delete(r.limiters, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (r *RateLimiterRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}
