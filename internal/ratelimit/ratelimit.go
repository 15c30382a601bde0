// Package ratelimit throttles chat requests per client before any paid
// downstream call is made. Two implementations exist: a Redis fixed-window
// counter shared across replicas, and an in-process token bucket used when no
// Redis is configured.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed bool
	// RetryAfter is how long the client should wait before retrying.
	// Only meaningful when Allowed is false.
	RetryAfter time.Duration
}

// Limiter admits or rejects a request from a client.
type Limiter interface {
	// Admit records one request from clientID and reports whether it is
	// allowed. Callers should fail open on error: an unreachable limiter
	// must not take the service down with it.
	Admit(ctx context.Context, clientID string) (Decision, error)
}

// Config tunes the admission window.
type Config struct {
	// Requests is the number of requests allowed per Window.
	Requests int
	// Window is the length of the admission window.
	Window time.Duration
}
