package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/wattsjs/askcisco/internal/rag"
	"github.com/wattsjs/askcisco/internal/ratelimit"
)

// Response headers carrying retrieval metadata alongside the streamed body.
const (
	headerResponseData = "x-response-data"
	headerCacheHit     = "x-cache-hit"
)

type chatHandler struct {
	pipeline   *rag.Pipeline
	limiter    ratelimit.Limiter
	trustProxy bool
	logger     *slog.Logger
}

// chat answers one conversation. The response body is the generated answer
// streamed as plain text; the x-response-data header carries the citation
// metadata as a JSON array so clients can render sources before the text
// finishes.
func (h *chatHandler) chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ip := clientIP(r, h.trustProxy)
	decision, err := h.limiter.Admit(ctx, ip)
	if err != nil {
		// Fail open: an unreachable limiter must not take chat down.
		h.logger.Warn("rate limiter unavailable, admitting request", "error", err)
		decision = ratelimit.Decision{Allowed: true}
	}
	if !decision.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(ratelimit.RetrySeconds(decision.RetryAfter)))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusTooManyRequests)
		if _, err := w.Write([]byte("too many requests\n")); err != nil {
			h.logger.Debug("writing rate limit response", "error", err)
		}
		return
	}

	var req rag.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON", h.logger)
		return
	}

	ex, err := h.pipeline.Prepare(ctx, req)
	if err != nil {
		if errors.Is(err, rag.ErrMalformedRequest) {
			writeError(w, http.StatusBadRequest, "malformed_request", err.Error(), h.logger)
			return
		}
		h.logger.Error("preparing answer", "error", err)
		writeError(w, http.StatusBadGateway, "downstream_unavailable", "a dependent service failed", h.logger)
		return
	}

	metadata, err := json.Marshal(ex.Sources)
	if err != nil {
		h.logger.Error("encoding source metadata", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", h.logger)
		return
	}
	w.Header().Set(headerResponseData, string(metadata))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if ex.CacheHit {
		w.Header().Set(headerCacheHit, "true")
		if _, err := w.Write([]byte(ex.Answer)); err != nil {
			h.logger.Debug("writing cached answer", "error", err)
		}
		return
	}

	flusher, _ := w.(http.Flusher)
	w.WriteHeader(http.StatusOK)

	_, err = ex.Stream(ctx, func(chunk string) error {
		if _, err := w.Write([]byte(chunk)); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		// Headers are already sent; the stream just ends short. A partial
		// answer is never salvaged or cached.
		h.logger.Error("streaming answer", "error", err)
	}
}
