package middleware

import (
	"net/http"
	"sync"
	"time"

	"ai-character-chat/widget/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterOptions configures the rate limiter.
type RateLimiterOptions struct {
	// Limit defines requests per second per client.
	Limit rate.Limit
	// Burst defines the maximum burst size allowed.
	Burst int
	// ExpiryDuration defines how long idle client state is kept.
	ExpiryDuration time.Duration
	// KeyFunc extracts the limiting key from a request.
	KeyFunc func(*gin.Context) string
}

// DefaultRateLimiterOptions returns sensible defaults for a local dev
// backend.
func DefaultRateLimiterOptions() RateLimiterOptions {
	return RateLimiterOptions{
		Limit:          20,
		Burst:          40,
		ExpiryDuration: time.Hour,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter implements per-client rate limiting for gin.
type RateLimiter struct {
	mu      sync.Mutex
	options RateLimiterOptions
	clients map[string]*limiterEntry
	logger  *logger.Logger
}

// NewRateLimiter creates a rate limiter.
func NewRateLimiter(log *logger.Logger, options ...RateLimiterOptions) *RateLimiter {
	opts := DefaultRateLimiterOptions()
	if len(options) > 0 {
		opts = options[0]
	}
	return &RateLimiter{
		options: opts,
		clients: make(map[string]*limiterEntry),
		logger:  log,
	}
}

// Middleware returns the gin middleware.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	go r.cleanup()

	return func(c *gin.Context) {
		key := r.options.KeyFunc(c)

		if !r.getLimiter(key).Allow() {
			r.logger.Warn("rate limit exceeded",
				"client", key,
				"path", c.Request.URL.Path,
			)
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"message": "too many requests, try again later"},
			})
			return
		}

		c.Next()
	}
}

func (r *RateLimiter) getLimiter(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.clients[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(r.options.Limit, r.options.Burst)}
		r.clients[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// cleanup drops limiter state for clients not seen within the expiry window.
func (r *RateLimiter) cleanup() {
	ticker := time.NewTicker(r.options.ExpiryDuration)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-r.options.ExpiryDuration)
		r.mu.Lock()
		for key, entry := range r.clients {
			if entry.lastSeen.Before(cutoff) {
				delete(r.clients, key)
			}
		}
		r.mu.Unlock()
	}
}
