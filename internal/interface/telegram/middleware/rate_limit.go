// Package middleware contains bot middlewares for update processing.
package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER
// Per-chat token bucket. The login and registration flows accept free-text
// input, so without this a hostile client could hammer the credential path.
// ══════════════════════════════════════════════════════════════════════════════

// RateLimitConfig holds configuration for the rate limiter.
type RateLimitConfig struct {
	// RequestsPerMinute is the sustained request rate per chat.
	RequestsPerMinute int

	// BurstSize is the bucket capacity.
	BurstSize int

	// CleanupInterval is how often idle buckets are dropped.
	CleanupInterval time.Duration

	// BanDuration is how long a chat is blocked after repeated violations.
	BanDuration time.Duration

	// BanThreshold is the number of violations before a temporary ban.
	BanThreshold int
}

// DefaultRateLimitConfig returns sensible defaults.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 20,
		BurstSize:         5,
		CleanupInterval:   5 * time.Minute,
		BanDuration:       10 * time.Minute,
		BanThreshold:      3,
	}
}

// RateLimitResult is the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	IsBanned   bool

	// ResponseMessage is the text to send when the request was rejected.
	ResponseMessage string
}

// RateLimiter implements per-chat rate limiting with a token bucket.
type RateLimiter struct {
	config  RateLimitConfig
	buckets sync.Map // map[int64]*tokenBucket
	bans    sync.Map // map[int64]time.Time (expiry)
}

type tokenBucket struct {
	mu           sync.Mutex
	tokens       float64
	lastRefill   time.Time
	refillRate   float64 // tokens per second
	maxTokens    float64
	violations   int
	lastViolated time.Time
}

// NewRateLimiter creates a RateLimiter and starts its cleanup loop.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{config: config}
	go rl.cleanupLoop()
	return rl
}

// Check reports whether a request from the chat is allowed.
func (rl *RateLimiter) Check(_ context.Context, chatID int64) *RateLimitResult {
	if until, banned := rl.getBan(chatID); banned {
		wait := time.Until(until)
		return &RateLimitResult{
			Allowed:         false,
			IsBanned:        true,
			RetryAfter:      wait,
			ResponseMessage: limitMessage(wait),
		}
	}

	bucket := rl.getBucket(chatID)
	allowed, retryAfter := bucket.consume()
	if allowed {
		return &RateLimitResult{Allowed: true}
	}

	if bucket.recordViolation() >= rl.config.BanThreshold {
		rl.bans.Store(chatID, time.Now().Add(rl.config.BanDuration))
	}

	return &RateLimitResult{
		Allowed:         false,
		RetryAfter:      retryAfter,
		ResponseMessage: limitMessage(retryAfter),
	}
}

// Reset clears the rate limit state for a chat.
func (rl *RateLimiter) Reset(chatID int64) {
	rl.buckets.Delete(chatID)
	rl.bans.Delete(chatID)
}

func limitMessage(wait time.Duration) string {
	seconds := int(wait.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return fmt.Sprintf("Too many requests. Please wait %d seconds and try again.", seconds)
}

func (rl *RateLimiter) getBucket(chatID int64) *tokenBucket {
	if val, ok := rl.buckets.Load(chatID); ok {
		return val.(*tokenBucket)
	}

	bucket := &tokenBucket{
		tokens:     float64(rl.config.BurstSize),
		lastRefill: time.Now(),
		refillRate: float64(rl.config.RequestsPerMinute) / 60.0,
		maxTokens:  float64(rl.config.BurstSize),
	}
	actual, _ := rl.buckets.LoadOrStore(chatID, bucket)
	return actual.(*tokenBucket)
}

func (rl *RateLimiter) getBan(chatID int64) (time.Time, bool) {
	val, ok := rl.bans.Load(chatID)
	if !ok {
		return time.Time{}, false
	}
	until := val.(time.Time)
	if time.Now().After(until) {
		rl.bans.Delete(chatID)
		return time.Time{}, false
	}
	return until, true
}

// consume tries to take one token. Returns whether it succeeded and, if not,
// how long until the next token is available.
func (b *tokenBucket) consume() (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.tokens += now.Sub(b.lastRefill).Seconds() * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now

	if b.tokens >= 1.0 {
		b.tokens--
		return true, 0
	}

	deficit := 1.0 - b.tokens
	return false, time.Duration(deficit/b.refillRate) * time.Second
}

// recordViolation counts a rejected request and returns the current
// violation count. Counts decay after five quiet minutes.
func (b *tokenBucket) recordViolation() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if time.Since(b.lastViolated) > 5*time.Minute {
		b.violations = 0
	}
	b.violations++
	b.lastViolated = time.Now()
	return b.violations
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()

		rl.buckets.Range(func(key, value interface{}) bool {
			bucket := value.(*tokenBucket)
			bucket.mu.Lock()
			idle := now.Sub(bucket.lastRefill) > 10*time.Minute
			bucket.mu.Unlock()
			if idle {
				rl.buckets.Delete(key)
			}
			return true
		})

		rl.bans.Range(func(key, value interface{}) bool {
			if now.After(value.(time.Time)) {
				rl.bans.Delete(key)
			}
			return true
		})
	}
}
