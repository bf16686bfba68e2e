package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const loginAttemptsPerMinute = 5

// EndpointRateLimiter holds stricter limits for individual routes, keyed by
// method and registered route path.
type EndpointRateLimiter struct {
	routes map[string]*RateLimiter
}

func NewEndpointRateLimiter() *EndpointRateLimiter {
	return &EndpointRateLimiter{routes: make(map[string]*RateLimiter)}
}

// AddEndpoint must be called before the middleware serves requests.
func (e *EndpointRateLimiter) AddEndpoint(method, route string, limit int, window time.Duration) *EndpointRateLimiter {
	e.routes[method+" "+route] = NewRateLimiter(limit, window)
	return e
}

func (e *EndpointRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rl, ok := e.routes[c.Request.Method+" "+c.FullPath()]
		if ok && !rl.Allow(c.ClientIP()) {
			reject(c, rl.window, "rate limit exceeded for this endpoint")
			return
		}
		c.Next()
	}
}

// AuthRateLimiter throttles login attempts per client address.
func AuthRateLimiter() gin.HandlerFunc {
	rl := NewRateLimiter(loginAttemptsPerMinute, time.Minute)
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			reject(c, rl.window, "too many authentication attempts, please try again later")
			return
		}
		c.Next()
	}
}

func reject(c *gin.Context, retry time.Duration, msg string) {
	secs := int(retry.Seconds())
	c.Header("Retry-After", strconv.Itoa(secs))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       msg,
		"retry_after": secs,
	})
}
