// Package ratelimiter implements a fixed-window request counter behind a
// pluggable storage backend. The window algorithm is intentionally simple;
// limits here protect endpoints from abuse, they are not a fairness scheduler.
package ratelimiter

import (
	"context"
	"time"
)

// Config defines a fixed-window limit.
type Config struct {
	Limit  int           // Maximum requests allowed per window.
	Window time.Duration // Window length.
}

func (c Config) validate() error {
	if c.Limit <= 0 {
		return ErrInvalidConfig
	}
	if c.Window <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Result describes the outcome of a rate limit check.
type Result struct {
	Limit     int       // Configured window limit.
	Remaining int       // Requests left in the current window.
	ResetAt   time.Time // When the current window closes.
}

// Allowed reports whether the request fits in the current window.
func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long to wait before retrying, 0 when allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed() {
		return 0
	}
	return time.Until(r.ResetAt)
}

// Store is the counter storage backend.
type Store interface {
	// Incr increments the counter for key in the window containing now and
	// returns the hit count after the increment plus the window expiry.
	Incr(ctx context.Context, key string, window time.Duration) (hits int64, resetAt time.Time, err error)

	// Reset clears the counter state for the key.
	Reset(ctx context.Context, key string) error
}

// FixedWindow counts requests per key in fixed time windows.
type FixedWindow struct {
	store  Store
	config Config
}

// NewFixedWindow creates a fixed-window limiter over the given store.
func NewFixedWindow(store Store, config Config) (*FixedWindow, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &FixedWindow{store: store, config: config}, nil
}

// Allow records one hit for key and reports whether it is within the limit.
func (fw *FixedWindow) Allow(ctx context.Context, key string) (*Result, error) {
	hits, resetAt, err := fw.store.Incr(ctx, key, fw.config.Window)
	if err != nil {
		return nil, err
	}
	return &Result{
		Limit:     fw.config.Limit,
		Remaining: fw.config.Limit - int(hits),
		ResetAt:   resetAt,
	}, nil
}

// Reset clears the counter for the key.
func (fw *FixedWindow) Reset(ctx context.Context, key string) error {
	return fw.store.Reset(ctx, key)
}
