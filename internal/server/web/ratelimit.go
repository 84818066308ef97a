package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/netx"
	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// ipLimiterEntry holds a rate limiter and last-seen timestamp for cleanup.
type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter manages per-IP token buckets.
type IPRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiterEntry
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

// NewIPRateLimiter allows perMinute events per minute per IP, all of which
// may be spent at once. perMinute <= 0 disables limiting.
func NewIPRateLimiter(perMinute int) *IPRateLimiter {
	rl := &IPRateLimiter{
		limiters: make(map[string]*ipLimiterEntry),
		rate:     rate.Inf,
		burst:    0,
		now:      time.Now,
	}
	if perMinute > 0 {
		rl.rate = rate.Every(time.Minute / time.Duration(perMinute))
		rl.burst = perMinute
	}
	return rl
}

// Allow reports whether ip may make another attempt now.
func (rl *IPRateLimiter) Allow(ip string) bool {
	if rl.rate == rate.Inf {
		return true
	}
	return rl.getLimiter(ip).Allow()
}

func (rl *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.limiters[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[ip] = &ipLimiterEntry{limiter: limiter, lastSeen: rl.now()}
		return limiter
	}
	entry.lastSeen = rl.now()
	return entry.limiter
}

// Run evicts idle entries every minute until ctx is done.
func (rl *IPRateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *IPRateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for ip, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(rl.limiters, ip)
		}
	}
}

// limitPOST rejects POSTs over the per-IP budget with 429. Other methods pass.
func (rl *IPRateLimiter) limitPOST(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !rl.Allow(netx.ClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Too many attempts, try again later", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
