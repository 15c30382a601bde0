package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	cleanupInterval = 5 * time.Minute
	staleThreshold  = 10 * time.Minute
)

// MemoryLimiter is an in-process token bucket per client, used when no Redis
// is configured. Each client gets Requests initial tokens refilling evenly
// over Window. Stale client entries are swept inline during Admit calls.
//
// State is local to one process; running replicas behind a load balancer
// multiplies the effective limit.
type MemoryLimiter struct {
	mu          sync.Mutex
	clients     map[string]*clientBucket
	limit       rate.Limit
	burst       int
	lastCleanup time.Time
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryLimiter creates a MemoryLimiter.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		clients:     make(map[string]*clientBucket),
		limit:       rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:       cfg.Requests,
		lastCleanup: time.Now(),
	}
}

func (l *MemoryLimiter) Admit(_ context.Context, clientID string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastCleanup) > cleanupInterval {
		for id, c := range l.clients {
			if now.Sub(c.lastSeen) > staleThreshold {
				delete(l.clients, id)
			}
		}
		l.lastCleanup = now
	}

	c, ok := l.clients[clientID]
	if !ok {
		c = &clientBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[clientID] = c
	}
	c.lastSeen = now

	reservation := c.limiter.Reserve()
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		return Decision{Allowed: false, RetryAfter: delay}, nil
	}
	return Decision{Allowed: true}, nil
}

var _ Limiter = (*MemoryLimiter)(nil)
