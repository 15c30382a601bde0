package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/wattsjs/askcisco/internal/log"
)

func newRedisLimiter(t *testing.T, cfg Config) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLimiter(client, cfg, log.NewNop()), mr
}

func TestRedisLimiter_AdmitWithinWindow(t *testing.T) {
	l, _ := newRedisLimiter(t, Config{Requests: 2, Window: 10 * time.Second})
	ctx := context.Background()

	for i := range 2 {
		d, err := l.Admit(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("Admit() #%d error = %v", i+1, err)
		}
		if !d.Allowed {
			t.Fatalf("Admit() #%d allowed = false, want true", i+1)
		}
	}

	d, err := l.Admit(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Admit() #3 error = %v", err)
	}
	if d.Allowed {
		t.Fatal("Admit() #3 allowed = true, want rejection")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > 10*time.Second {
		t.Errorf("RetryAfter = %v, want within (0, 10s]", d.RetryAfter)
	}
}

func TestRedisLimiter_ClientsIsolated(t *testing.T) {
	l, _ := newRedisLimiter(t, Config{Requests: 1, Window: 10 * time.Second})
	ctx := context.Background()

	if d, _ := l.Admit(ctx, "1.1.1.1"); !d.Allowed {
		t.Fatal("first client's first request rejected")
	}
	if d, _ := l.Admit(ctx, "1.1.1.1"); d.Allowed {
		t.Fatal("first client's second request allowed")
	}
	if d, _ := l.Admit(ctx, "2.2.2.2"); !d.Allowed {
		t.Error("second client rejected by first client's counter")
	}
}

func TestRedisLimiter_WindowResets(t *testing.T) {
	l, mr := newRedisLimiter(t, Config{Requests: 1, Window: 10 * time.Second})
	ctx := context.Background()

	l.Admit(ctx, "1.2.3.4")
	if d, _ := l.Admit(ctx, "1.2.3.4"); d.Allowed {
		t.Fatal("second request in window allowed")
	}

	mr.FastForward(11 * time.Second)

	if d, _ := l.Admit(ctx, "1.2.3.4"); !d.Allowed {
		t.Error("request after window reset rejected")
	}
}

func TestRedisLimiter_AdmitError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	l := NewRedisLimiter(client, Config{Requests: 1, Window: time.Second}, log.NewNop())

	mr.Close()

	if _, err := l.Admit(context.Background(), "1.2.3.4"); err == nil {
		t.Fatal("Admit() error = nil, want error when redis is down")
	}
}

func TestMemoryLimiter_AdmitWithinWindow(t *testing.T) {
	l := NewMemoryLimiter(Config{Requests: 2, Window: 10 * time.Second})
	ctx := context.Background()

	for i := range 2 {
		d, err := l.Admit(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("Admit() #%d error = %v", i+1, err)
		}
		if !d.Allowed {
			t.Fatalf("Admit() #%d allowed = false, want true", i+1)
		}
	}

	d, err := l.Admit(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Admit() #3 error = %v", err)
	}
	if d.Allowed {
		t.Fatal("Admit() #3 allowed = true, want rejection")
	}
	if d.RetryAfter <= 0 || d.RetryAfter > 10*time.Second {
		t.Errorf("RetryAfter = %v, want within (0, 10s]", d.RetryAfter)
	}
}

func TestMemoryLimiter_ClientsIsolated(t *testing.T) {
	l := NewMemoryLimiter(Config{Requests: 1, Window: 10 * time.Second})
	ctx := context.Background()

	if d, _ := l.Admit(ctx, "1.1.1.1"); !d.Allowed {
		t.Fatal("first client's first request rejected")
	}
	if d, _ := l.Admit(ctx, "1.1.1.1"); d.Allowed {
		t.Fatal("first client's second request allowed")
	}
	if d, _ := l.Admit(ctx, "2.2.2.2"); !d.Allowed {
		t.Error("second client rejected by first client's bucket")
	}
}

func TestRetrySeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int
	}{
		{0, 1},
		{300 * time.Millisecond, 1},
		{time.Second, 1},
		{1500 * time.Millisecond, 2},
		{10 * time.Second, 10},
	}
	for _, tt := range tests {
		if got := RetrySeconds(tt.in); got != tt.want {
			t.Errorf("RetrySeconds(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
