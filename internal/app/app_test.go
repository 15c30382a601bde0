package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/wattsjs/askcisco/internal/config"
	"github.com/wattsjs/askcisco/internal/log"
)

func testConfig(redisAddr string) *config.Config {
	return &config.Config{
		Model:             config.DefaultModel,
		CondenserModel:    config.DefaultCondenserModel,
		EmbedderModel:     config.DefaultEmbedderModel,
		QdrantURL:         "http://localhost:6333",
		QdrantCollection:  "docs",
		RetrievalLimit:    config.DefaultRetrievalLimit,
		ScoreThreshold:    config.DefaultScoreThreshold,
		RedisAddr:         redisAddr,
		RateLimitRequests: 10,
		RateLimitWindow:   time.Minute,
		AnswerTTL:         time.Hour,
		FeedbackTTL:       7 * 24 * time.Hour,
	}
}

func TestSetup_WithRedis(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	mr := miniredis.RunT(t)

	a, err := Setup(context.Background(), testConfig(mr.Addr()), log.NewNop())
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer a.Close()

	if a.Pipeline == nil {
		t.Error("Pipeline not wired")
	}
	if a.Answers == nil {
		t.Error("Answers not wired despite configured redis")
	}
	if a.Limiter == nil {
		t.Error("Limiter not wired")
	}
}

func TestSetup_WithoutRedis(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	a, err := Setup(context.Background(), testConfig(""), log.NewNop())
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer a.Close()

	if a.Answers != nil {
		t.Error("Answers wired without redis")
	}
	if a.Limiter == nil {
		t.Error("no fallback limiter without redis")
	}
}

func TestSetup_RedisUnreachable(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := Setup(context.Background(), testConfig(addr), log.NewNop()); err == nil {
		t.Fatal("Setup() error = nil, want connection failure")
	}
}

func TestClose_Empty(t *testing.T) {
	a := &App{}
	if err := a.Close(); err != nil {
		t.Errorf("Close() on empty app error = %v", err)
	}
}
