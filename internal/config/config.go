// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (./config.yaml or ~/.askcisco/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - AI: generation model, condenser model, embedder model
//   - Qdrant: vector index connection and retrieval tuning
//   - Redis: answer cache and rate-limit counters
//   - Server: listen address, CORS, proxy trust
//
// Security: sensitive values (API keys, passwords) are never logged; MarshalJSON masks them.
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidQdrantURL indicates the Qdrant URL is missing or malformed.
	ErrInvalidQdrantURL = errors.New("invalid Qdrant URL")

	// ErrInvalidCollection indicates the Qdrant collection name is invalid.
	ErrInvalidCollection = errors.New("invalid Qdrant collection")

	// ErrInvalidRetrievalLimit indicates the retrieval limit is out of range.
	ErrInvalidRetrievalLimit = errors.New("invalid retrieval limit")

	// ErrInvalidScoreThreshold indicates the similarity threshold is out of range.
	ErrInvalidScoreThreshold = errors.New("invalid score threshold")

	// ErrInvalidRateLimit indicates the rate limit window or count is invalid.
	ErrInvalidRateLimit = errors.New("invalid rate limit")

	// ErrInvalidCacheTTL indicates a cache TTL is non-positive.
	ErrInvalidCacheTTL = errors.New("invalid cache TTL")
)

// Default model identifiers. The generation provider sits behind Genkit's
// model abstraction, so these are provider-qualified names.
const (
	// DefaultModel answers user questions.
	DefaultModel = "googleai/gemini-2.5-flash"

	// DefaultCondenserModel rewrites follow-up questions into standalone
	// queries. A fast model keeps the extra hop cheap.
	DefaultCondenserModel = "googleai/gemini-2.5-flash"

	// DefaultEmbedderModel embeds queries for vector search.
	DefaultEmbedderModel = "text-embedding-004"
)

// Retrieval defaults.
const (
	// DefaultRetrievalLimit is how many chunks one similarity search returns.
	DefaultRetrievalLimit = 8

	// MaxRetrievalLimit bounds the configurable limit.
	MaxRetrievalLimit = 50

	// DefaultScoreThreshold suppresses low-relevance matches. Zero disables
	// the threshold entirely.
	DefaultScoreThreshold = 0.7
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (passwords, API keys), update MarshalJSON.
type Config struct {
	// AI model configuration
	Model          string `mapstructure:"model" json:"model"`
	CondenserModel string `mapstructure:"condenser_model" json:"condenser_model"`
	EmbedderModel  string `mapstructure:"embedder_model" json:"embedder_model"`

	// Qdrant vector index
	QdrantURL        string  `mapstructure:"qdrant_url" json:"qdrant_url"`
	QdrantAPIKey     string  `mapstructure:"qdrant_api_key" json:"qdrant_api_key"` // SENSITIVE: masked in MarshalJSON
	QdrantCollection string  `mapstructure:"qdrant_collection" json:"qdrant_collection"`
	RetrievalLimit   int     `mapstructure:"retrieval_limit" json:"retrieval_limit"`
	ScoreThreshold   float32 `mapstructure:"score_threshold" json:"score_threshold"`

	// Redis (answer cache + rate-limit counters). Empty addr disables redis:
	// caching is skipped and rate limiting falls back to in-memory counters.
	RedisAddr     string `mapstructure:"redis_addr" json:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" json:"redis_password"` // SENSITIVE: masked in MarshalJSON
	RedisDB       int    `mapstructure:"redis_db" json:"redis_db"`

	// Rate limiting: RateLimitRequests per RateLimitWindow per client.
	RateLimitRequests int           `mapstructure:"rate_limit_requests" json:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window" json:"rate_limit_window"`

	// Answer cache TTLs.
	AnswerTTL   time.Duration `mapstructure:"answer_ttl" json:"answer_ttl"`
	FeedbackTTL time.Duration `mapstructure:"feedback_ttl" json:"feedback_ttl"`

	// Server configuration
	ListenAddr  string   `mapstructure:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"` // Trust X-Real-IP/X-Forwarded-For (set true behind reverse proxy)

	// Observability (optional OTLP trace export; empty disables)
	OTLPEndpoint string `mapstructure:"otlp_endpoint" json:"otlp_endpoint"`

	// Logging
	LogLevel string `mapstructure:"log_level" json:"log_level"` // debug, info, warn, error
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// SlogLevel maps the configured level name onto a slog.Level.
// Unknown names fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".askcisco"))
	}

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Fail fast on invalid configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// AI defaults
	v.SetDefault("model", DefaultModel)
	v.SetDefault("condenser_model", DefaultCondenserModel)
	v.SetDefault("embedder_model", DefaultEmbedderModel)

	// Qdrant defaults
	v.SetDefault("qdrant_url", "http://localhost:6333")
	v.SetDefault("qdrant_collection", "docs")
	v.SetDefault("retrieval_limit", DefaultRetrievalLimit)
	v.SetDefault("score_threshold", DefaultScoreThreshold)

	// Redis defaults (empty addr = disabled)
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_db", 0)

	// Rate limiting defaults
	v.SetDefault("rate_limit_requests", 10)
	v.SetDefault("rate_limit_window", time.Minute)

	// Cache TTL defaults: implicit writes expire within the hour, answers
	// confirmed by user feedback live a week.
	v.SetDefault("answer_ttl", time.Hour)
	v.SetDefault("feedback_ttl", 7*24*time.Hour)

	// Server defaults
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("cors_origins", []string{"http://localhost:5173"})
	v.SetDefault("trust_proxy", false)

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", true)
}

// bindEnvVariables binds environment variables explicitly.
// Secrets come only from the environment, never the config file:
//   - GEMINI_API_KEY is read directly by the Genkit googlegenai plugin
//   - QDRANT_API_KEY, REDIS_PASSWORD are bound here
func bindEnvVariables(v *viper.Viper) {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail).
	// If this panics, it's a BUG in our code, not a runtime error.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("qdrant_url", "QDRANT_URL")
	mustBind("qdrant_api_key", "QDRANT_API_KEY")
	mustBind("qdrant_collection", "QDRANT_COLLECTION")

	mustBind("redis_addr", "REDIS_ADDR")
	mustBind("redis_password", "REDIS_PASSWORD")

	mustBind("model", "ASKCISCO_MODEL")
	mustBind("condenser_model", "ASKCISCO_CONDENSER_MODEL")
	mustBind("embedder_model", "ASKCISCO_EMBEDDER_MODEL")

	mustBind("listen_addr", "ASKCISCO_LISTEN_ADDR")
	mustBind("cors_origins", "ASKCISCO_CORS_ORIGINS")
	mustBind("trust_proxy", "ASKCISCO_TRUST_PROXY")

	mustBind("log_level", "ASKCISCO_LOG_LEVEL")
	mustBind("log_json", "ASKCISCO_LOG_JSON")

	mustBind("otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")

	// NOTE: GEMINI_API_KEY is read directly by Genkit, not via Viper.
	// Validation checks its presence in Validate().
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Secrets of 8 chars or fewer are fully masked to prevent substring matching;
// longer secrets keep the first and last 2 characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
//
// Sensitive fields masked:
//   - QdrantAPIKey
//   - RedisPassword
//
// When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.QdrantAPIKey = maskSecret(a.QdrantAPIKey)
	a.RedisPassword = maskSecret(a.RedisPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
