package ratelimiter

import "errors"

var (
	// ErrInvalidConfig indicates a non-positive limit or window.
	ErrInvalidConfig = errors.New("ratelimiter: invalid configuration")

	// ErrStoreUnavailable indicates the storage backend failed.
	ErrStoreUnavailable = errors.New("ratelimiter: store unavailable")
)
