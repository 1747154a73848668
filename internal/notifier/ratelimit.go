package notifier

import (
	"sync/atomic"

	"golang.org/x/time/rate"
)

// RateLimiter paces non-error notifications with a token bucket.
type RateLimiter struct {
	limiter *rate.Limiter
	dropped atomic.Int64
	config  RateLimitConfig
}

// RateLimitConfig holds rate limiter configuration.
type RateLimitConfig struct {
	PerSecond float64 // Sustained notifications per second (default: 2)
	Burst     int     // Notifications allowed at once (default: 5)
	Enabled   bool    // Whether rate limiting is enabled (default: true)
}

// DefaultRateLimitConfig returns default rate limit settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		PerSecond: 2,
		Burst:     5,
		Enabled:   true,
	}
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.PerSecond <= 0 {
		config.PerSecond = 2
	}
	if config.Burst <= 0 {
		config.Burst = 5
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(config.PerSecond), config.Burst),
		config:  config,
	}
}

// Allow reports whether a notification may be sent now.
func (r *RateLimiter) Allow() bool {
	if !r.config.Enabled {
		return true
	}
	if r.limiter.Allow() {
		return true
	}
	r.dropped.Add(1)
	return false
}

// Dropped returns the number of notifications dropped due to rate limiting.
func (r *RateLimiter) Dropped() int64 {
	return r.dropped.Load()
}

// Stats returns rate limiter statistics.
func (r *RateLimiter) Stats() RateLimitStats {
	return RateLimitStats{
		Dropped:   r.dropped.Load(),
		Available: r.limiter.Tokens(),
		PerSecond: r.config.PerSecond,
		Burst:     r.config.Burst,
		Enabled:   r.config.Enabled,
	}
}

// RateLimitStats contains rate limiter statistics.
type RateLimitStats struct {
	Dropped   int64   // Total notifications dropped
	Available float64 // Tokens currently available
	PerSecond float64
	Burst     int
	Enabled   bool
}
