package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/wattsjs/askcisco/internal/log"
	"github.com/wattsjs/askcisco/internal/retrieval"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, log.NewNop()), mr
}

func TestKey(t *testing.T) {
	tests := []struct {
		name     string
		filter   retrieval.Filter
		question string
		want     string
	}{
		{
			name:     "no filter",
			question: "how do I reset the device?",
			want:     ":::" + ":::" + "how do I reset the device?",
		},
		{
			name:     "sentinels normalize to empty",
			filter:   retrieval.Filter{Product: retrieval.AllProducts, Version: retrieval.AllVersions},
			question: "q",
			want:     ":::" + ":::" + "q",
		},
		{
			name:     "full filter",
			filter:   retrieval.Filter{Product: "meraki", Version: "2.0"},
			question: "q",
			want:     "meraki" + ":::" + "2.0" + ":::" + "q",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.filter, tt.question); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKey_FilterDistinguishesEntries(t *testing.T) {
	q := "what changed?"
	a := Key(retrieval.Filter{Product: "meraki"}, q)
	b := Key(retrieval.Filter{Version: "meraki"}, q)
	if a == b {
		t.Errorf("product and version must occupy distinct key positions: %q", a)
	}
}

func TestStore_GetSetDel(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "absent"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get(absent) error = %v, want ErrMiss", err)
	}

	if err := store.Set(ctx, "k", "v", time.Hour); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "v" {
		t.Errorf("Get() = %q, want %q", got, "v")
	}

	if err := store.Del(ctx, "k"); err != nil {
		t.Fatalf("Del() error = %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get after Del error = %v, want ErrMiss", err)
	}

	// Deleting an absent key is fine.
	if err := store.Del(ctx, "k"); err != nil {
		t.Errorf("Del(absent) error = %v", err)
	}
}

func TestAnswers_SaveAndLookup(t *testing.T) {
	store, mr := newTestStore(t)
	answers := NewAnswers(store, Config{AnswerTTL: time.Hour, FeedbackTTL: 7 * 24 * time.Hour}, log.NewNop())
	ctx := context.Background()
	filter := retrieval.Filter{Product: "meraki"}

	if _, err := answers.Lookup(ctx, filter, "q"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Lookup before save error = %v, want ErrMiss", err)
	}

	if err := answers.Save(ctx, filter, "q", "the answer"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := answers.Lookup(ctx, filter, "q")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if got != "the answer" {
		t.Errorf("Lookup() = %q", got)
	}

	if ttl := mr.TTL(Key(filter, "q")); ttl != time.Hour {
		t.Errorf("TTL = %v, want 1h", ttl)
	}

	// A different filter must not see the entry.
	if _, err := answers.Lookup(ctx, retrieval.Filter{}, "q"); !errors.Is(err, ErrMiss) {
		t.Errorf("Lookup with different filter error = %v, want ErrMiss", err)
	}
}

func TestAnswers_SaveFeedbackExtendsTTL(t *testing.T) {
	store, mr := newTestStore(t)
	answers := NewAnswers(store, Config{AnswerTTL: time.Hour, FeedbackTTL: 7 * 24 * time.Hour}, log.NewNop())
	ctx := context.Background()

	if err := answers.SaveFeedback(ctx, retrieval.Filter{}, "q", "confirmed"); err != nil {
		t.Fatalf("SaveFeedback() error = %v", err)
	}
	if ttl := mr.TTL(Key(retrieval.Filter{}, "q")); ttl != 7*24*time.Hour {
		t.Errorf("TTL = %v, want 168h", ttl)
	}
}

func TestAnswers_Drop(t *testing.T) {
	store, _ := newTestStore(t)
	answers := NewAnswers(store, Config{AnswerTTL: time.Hour, FeedbackTTL: 7 * 24 * time.Hour}, log.NewNop())
	ctx := context.Background()

	if err := answers.Save(ctx, retrieval.Filter{}, "q", "bad answer"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := answers.Drop(ctx, retrieval.Filter{}, "q"); err != nil {
		t.Fatalf("Drop() error = %v", err)
	}
	if _, err := answers.Lookup(ctx, retrieval.Filter{}, "q"); !errors.Is(err, ErrMiss) {
		t.Errorf("Lookup after Drop error = %v, want ErrMiss", err)
	}
}

func TestAnswers_LookupExpired(t *testing.T) {
	store, mr := newTestStore(t)
	answers := NewAnswers(store, Config{AnswerTTL: time.Minute, FeedbackTTL: time.Hour}, log.NewNop())
	ctx := context.Background()

	if err := answers.Save(ctx, retrieval.Filter{}, "q", "a"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := answers.Lookup(ctx, retrieval.Filter{}, "q"); !errors.Is(err, ErrMiss) {
		t.Errorf("Lookup after expiry error = %v, want ErrMiss", err)
	}
}
