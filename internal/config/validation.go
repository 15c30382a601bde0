package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// API key validation (required for all AI operations).
	// Genkit's googlegenai plugin reads it directly from the environment.
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	// Model configuration
	if c.Model == "" {
		return fmt.Errorf("%w: model cannot be empty", ErrInvalidModelName)
	}
	if c.CondenserModel == "" {
		return fmt.Errorf("%w: condenser_model cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidModelName)
	}

	// Qdrant configuration
	if c.QdrantURL == "" {
		return fmt.Errorf("%w: qdrant_url cannot be empty", ErrInvalidQdrantURL)
	}
	u, err := url.Parse(c.QdrantURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %q is not an absolute URL", ErrInvalidQdrantURL, c.QdrantURL)
	}
	if strings.TrimSpace(c.QdrantCollection) == "" {
		return fmt.Errorf("%w: qdrant_collection cannot be empty", ErrInvalidCollection)
	}

	if c.RetrievalLimit < 1 || c.RetrievalLimit > MaxRetrievalLimit {
		return fmt.Errorf("%w: retrieval_limit must be between 1 and %d, got %d",
			ErrInvalidRetrievalLimit, MaxRetrievalLimit, c.RetrievalLimit)
	}

	// Cosine similarity scores live in [0, 1]; zero disables the threshold.
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return fmt.Errorf("%w: score_threshold must be between 0.0 and 1.0, got %.2f",
			ErrInvalidScoreThreshold, c.ScoreThreshold)
	}

	// Rate limiting
	if c.RateLimitRequests < 1 {
		return fmt.Errorf("%w: rate_limit_requests must be at least 1, got %d",
			ErrInvalidRateLimit, c.RateLimitRequests)
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("%w: rate_limit_window must be positive, got %s",
			ErrInvalidRateLimit, c.RateLimitWindow)
	}

	// Cache TTLs
	if c.AnswerTTL <= 0 {
		return fmt.Errorf("%w: answer_ttl must be positive, got %s", ErrInvalidCacheTTL, c.AnswerTTL)
	}
	if c.FeedbackTTL <= 0 {
		return fmt.Errorf("%w: feedback_ttl must be positive, got %s", ErrInvalidCacheTTL, c.FeedbackTTL)
	}

	return nil
}
