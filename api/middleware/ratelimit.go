package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter allows limit requests per window for each key, with bursts of
// up to limit.
type RateLimiter struct {
	limit  rate.Limit
	burst  int
	window time.Duration

	mu          sync.Mutex
	visitors    map[string]*visitor
	lastCleanup time.Time
}

// NewRateLimiter returns a limiter; a non-positive limit disables it.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}

	rl := &RateLimiter{
		limit:       rate.Inf,
		window:      window,
		visitors:    make(map[string]*visitor),
		lastCleanup: time.Now(),
	}
	if limit > 0 {
		rl.limit = rate.Limit(float64(limit) / window.Seconds())
		rl.burst = limit
	}
	return rl
}

func (rl *RateLimiter) Allow(key string) bool {
	if rl.limit == rate.Inf {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastCleanup) > rl.window {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) > 3*rl.window {
				delete(rl.visitors, k)
			}
		}
		rl.lastCleanup = now
	}

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			reject(c, rl.window, "rate limit exceeded")
			return
		}
		c.Next()
	}
}
