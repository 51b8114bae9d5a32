package ratelimit

import (
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// BurstLimiter allows perMinute requests per caller per minute, refilling evenly.
// Idle callers are forgotten after ten minutes.
type BurstLimiter struct {
	perMinute int
	limiters  *cache.Cache
}

// NewBurstLimiter creates a limiter. perMinute <= 0 disables limiting.
func NewBurstLimiter(perMinute int) *BurstLimiter {
	return &BurstLimiter{
		perMinute: perMinute,
		limiters:  cache.New(10*time.Minute, 5*time.Minute),
	}
}

// Allow reports whether callerID may make a request now.
func (b *BurstLimiter) Allow(callerID string) bool {
	if b.perMinute <= 0 {
		return true
	}
	return b.limiter(callerID).Allow()
}

func (b *BurstLimiter) limiter(callerID string) *rate.Limiter {
	if v, ok := b.limiters.Get(callerID); ok {
		b.limiters.SetDefault(callerID, v)
		return v.(*rate.Limiter)
	}
	l := rate.NewLimiter(rate.Every(time.Minute/time.Duration(b.perMinute)), b.perMinute)
	if err := b.limiters.Add(callerID, l, cache.DefaultExpiration); err != nil {
		// Another request created it first.
		if v, ok := b.limiters.Get(callerID); ok {
			return v.(*rate.Limiter)
		}
	}
	return l
}

// Middleware rejects requests over the limit by calling onLimit instead of next.
// identify extracts the caller identity from the request.
func (b *BurstLimiter) Middleware(identify func(*http.Request) string, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !b.Allow(identify(r)) {
				w.Header().Set("Retry-After", "60")
				onLimit(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
