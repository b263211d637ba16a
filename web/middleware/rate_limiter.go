package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"sales-assistant/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	RequestsPerMinute int           // Sustained requests per employee per minute
	BurstSize         int           // Allow burst of N requests
	CleanupInterval   time.Duration // How often to drop idle buckets
}

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a new token bucket
func NewTokenBucket(maxTokens float64, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow checks if a request can proceed and consumes a token if so
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(time.Now())
	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}
	return false
}

// Remaining returns the number of tokens remaining
func (tb *TokenBucket) Remaining() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(time.Now())
	return int(tb.tokens)
}

func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(tb.maxTokens, tb.tokens+(elapsed*tb.refillRate))
	tb.lastRefill = now
}

func (tb *TokenBucket) idleSince(cutoff time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lastRefill.Before(cutoff)
}

// EmployeeRateLimiter keeps one bucket per employee.
type EmployeeRateLimiter struct {
	config      RateLimiterConfig
	buckets     map[domain.EmployeeID]*TokenBucket
	mu          sync.Mutex
	logger      *zap.Logger
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewEmployeeRateLimiter creates the limiter and starts its cleanup loop.
func NewEmployeeRateLimiter(config RateLimiterConfig, logger *zap.Logger) *EmployeeRateLimiter {
	if config.BurstSize <= 0 {
		config.BurstSize = 1
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 10 * time.Minute
	}
	limiter := &EmployeeRateLimiter{
		config:      config,
		buckets:     make(map[domain.EmployeeID]*TokenBucket),
		logger:      logger,
		stopCleanup: make(chan struct{}),
	}

	go limiter.cleanupRoutine()

	return limiter
}

func (l *EmployeeRateLimiter) cleanupRoutine() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now().Add(-l.config.CleanupInterval))
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanup drops buckets untouched since cutoff.
func (l *EmployeeRateLimiter) cleanup(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, bucket := range l.buckets {
		if bucket.idleSince(cutoff) {
			delete(l.buckets, id)
			removed++
		}
	}
	if removed > 0 {
		l.logger.Debug("Cleaned up rate limiter buckets", zap.Int("removed", removed), zap.Int("remaining", len(l.buckets)))
	}
}

// Stop stops the cleanup routine
func (l *EmployeeRateLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

func (l *EmployeeRateLimiter) bucket(id domain.EmployeeID) *TokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[id]
	if !ok {
		// BurstSize tokens, refill at RequestsPerMinute/60 per second
		b = NewTokenBucket(float64(l.config.BurstSize), float64(l.config.RequestsPerMinute)/60.0)
		l.buckets[id] = b
	}
	return b
}

// Allow checks if a request can proceed for the employee
func (l *EmployeeRateLimiter) Allow(id domain.EmployeeID) bool {
	return l.bucket(id).Allow()
}

// Remaining returns the employee's remaining tokens and the burst size.
func (l *EmployeeRateLimiter) Remaining(id domain.EmployeeID) (remaining int, limit int) {
	return l.bucket(id).Remaining(), l.config.BurstSize
}

// RateLimitMiddleware limits requests per employee. It must run after
// EmployeeMiddleware.
func RateLimitMiddleware(limiter *EmployeeRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		employee, ok := CurrentEmployee(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "employee not resolved"})
			return
		}

		allowed := limiter.Allow(employee.ID)
		remaining, limit := limiter.Remaining(employee.ID)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			limiter.logger.Warn("Rate limit exceeded",
				zap.Int64("employee_id", int64(employee.ID)),
				zap.Int("limit", limit))

			c.Header("Retry-After", "60") // Suggest retry after 60 seconds
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"limit":       limit,
				"retry_after": 60,
			})
			return
		}

		c.Next()
	}
}
