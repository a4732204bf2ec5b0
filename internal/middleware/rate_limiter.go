package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/eventreg/backend/internal/config"
)

// RateLimiter implements per-IP rate limiting for the public submission
// endpoint and the admin login endpoint
type RateLimiter struct {
	publicLimiters map[string]*rate.Limiter
	authLimiters   map[string]*rate.Limiter
	publicMutex    sync.Mutex
	authMutex      sync.Mutex
	publicRate     rate.Limit
	authRate       rate.Limit
	publicBurst    int
	authBurst      int
	cleanupTicker  *time.Ticker
}

// NewRateLimiter creates a new rate limiter from config
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	limiter := &RateLimiter{
		publicLimiters: make(map[string]*rate.Limiter),
		authLimiters:   make(map[string]*rate.Limiter),
		publicRate:     rate.Limit(cfg.PublicRequestsPerSecond),
		authRate:       rate.Limit(cfg.AuthRequestsPerMinute / 60), // convert to per-second rate
		publicBurst:    cfg.PublicBurst,
		authBurst:      cfg.AuthBurst,
		cleanupTicker:  time.NewTicker(5 * time.Minute),
	}

	go limiter.cleanup()

	return limiter
}

// cleanup periodically resets limiter maps to prevent unbounded growth
func (rl *RateLimiter) cleanup() {
	for range rl.cleanupTicker.C {
		rl.publicMutex.Lock()
		rl.publicLimiters = make(map[string]*rate.Limiter)
		rl.publicMutex.Unlock()

		rl.authMutex.Lock()
		rl.authLimiters = make(map[string]*rate.Limiter)
		rl.authMutex.Unlock()
	}
}

// Stop stops the rate limiter cleanup
func (rl *RateLimiter) Stop() {
	rl.cleanupTicker.Stop()
}

func (rl *RateLimiter) getPublicLimiter(ip string) *rate.Limiter {
	rl.publicMutex.Lock()
	defer rl.publicMutex.Unlock()

	limiter, exists := rl.publicLimiters[ip]
	if !exists {
		limiter = rate.NewLimiter(rl.publicRate, rl.publicBurst)
		rl.publicLimiters[ip] = limiter
	}
	return limiter
}

func (rl *RateLimiter) getAuthLimiter(ip string) *rate.Limiter {
	rl.authMutex.Lock()
	defer rl.authMutex.Unlock()

	limiter, exists := rl.authLimiters[ip]
	if !exists {
		limiter = rate.NewLimiter(rl.authRate, rl.authBurst)
		rl.authLimiters[ip] = limiter
	}
	return limiter
}

// PublicRateLimiterMiddleware limits public requests by client IP
func (rl *RateLimiter) PublicRateLimiterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getPublicLimiter(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// AuthRateLimiterMiddleware limits login attempts by client IP
func (rl *RateLimiter) AuthRateLimiterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.getAuthLimiter(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
