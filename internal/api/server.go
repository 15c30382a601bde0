// Package api exposes the question-answering pipeline over HTTP: a streaming
// chat endpoint, an answer feedback endpoint, and a health probe.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/wattsjs/askcisco/internal/cache"
	"github.com/wattsjs/askcisco/internal/rag"
	"github.com/wattsjs/askcisco/internal/ratelimit"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Pipeline    *rag.Pipeline     // Required
	Limiter     ratelimit.Limiter // Required
	Answers     *cache.Answers    // Optional: nil disables the feedback endpoint
	CORSOrigins []string          // Allowed origins for CORS
	TrustProxy  bool              // Trust X-Real-IP/X-Forwarded-For headers
}

// Server is the HTTP server for the chat API.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("pipeline is required")
	}
	if cfg.Limiter == nil {
		return nil, errors.New("rate limiter is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &chatHandler{
		pipeline:   cfg.Pipeline,
		limiter:    cfg.Limiter,
		trustProxy: cfg.TrustProxy,
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", ch.chat)

	if cfg.Answers != nil {
		fh := &feedbackHandler{answers: cfg.Answers, logger: logger}
		mux.HandleFunc("POST /api/feedback", fh.feedback)
	}

	// Middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → Routes
	// RequestID sits before Logging so request_id is available in log
	// attributes; CORS sits innermost so preflight OPTIONS still gets its
	// headers after logging.
	var handler http.Handler = mux
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", healthHandler(logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
