package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wattsjs/askcisco/internal/retrieval"
)

const keySeparator = ":::"

// Key derives the cache key for a question asked under a filter. Sentinel and
// blank filter fields normalize to empty so "All Products" and an unset
// product share one entry. The question text participates verbatim.
func Key(filter retrieval.Filter, question string) string {
	product := strings.TrimSpace(filter.Product)
	if product == retrieval.AllProducts {
		product = ""
	}
	version := strings.TrimSpace(filter.Version)
	if version == retrieval.AllVersions {
		version = ""
	}
	return strings.Join([]string{product, version, question}, keySeparator)
}

// Config tunes answer expiry.
type Config struct {
	// AnswerTTL is the expiry for answers cached implicitly on stream
	// completion.
	AnswerTTL time.Duration
	// FeedbackTTL is the longer expiry for answers pinned by explicit
	// positive feedback.
	FeedbackTTL time.Duration
}

// Answers caches completed answer text per question.
//
// Answers is safe for concurrent use by multiple goroutines.
type Answers struct {
	store  Store
	cfg    Config
	logger *slog.Logger
}

// NewAnswers creates an answer cache over store. logger may be nil.
func NewAnswers(store Store, cfg Config, logger *slog.Logger) *Answers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Answers{store: store, cfg: cfg, logger: logger}
}

// Lookup returns the cached answer for the question, or ErrMiss.
func (a *Answers) Lookup(ctx context.Context, filter retrieval.Filter, question string) (string, error) {
	key := Key(filter, question)
	answer, err := a.store.Get(ctx, key)
	if errors.Is(err, ErrMiss) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("cache lookup: %w", err)
	}
	a.logger.Debug("answer cache hit", "key_length", len(key))
	return answer, nil
}

// Save stores a completed answer with the implicit TTL.
func (a *Answers) Save(ctx context.Context, filter retrieval.Filter, question, answer string) error {
	if err := a.store.Set(ctx, Key(filter, question), answer, a.cfg.AnswerTTL); err != nil {
		return fmt.Errorf("cache save: %w", err)
	}
	return nil
}

// SaveFeedback pins an answer confirmed by positive feedback with the
// extended TTL.
func (a *Answers) SaveFeedback(ctx context.Context, filter retrieval.Filter, question, answer string) error {
	if err := a.store.Set(ctx, Key(filter, question), answer, a.cfg.FeedbackTTL); err != nil {
		return fmt.Errorf("cache save feedback: %w", err)
	}
	return nil
}

// Drop removes the entry for a question after negative feedback.
func (a *Answers) Drop(ctx context.Context, filter retrieval.Filter, question string) error {
	if err := a.store.Del(ctx, Key(filter, question)); err != nil {
		return fmt.Errorf("cache drop: %w", err)
	}
	return nil
}
