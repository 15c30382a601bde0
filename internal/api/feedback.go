package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/wattsjs/askcisco/internal/cache"
	"github.com/wattsjs/askcisco/internal/retrieval"
)

// feedbackRequest is the body of POST /api/feedback.
type feedbackRequest struct {
	Type     string `json:"type"` // "up" or "down"
	Product  string `json:"product,omitempty"`
	Version  string `json:"version,omitempty"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type feedbackHandler struct {
	answers *cache.Answers
	logger  *slog.Logger
}

// feedback records a user verdict on an answer. Positive feedback pins the
// answer in the cache with an extended expiry; negative feedback evicts it.
func (h *feedbackHandler) feedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON", h.logger)
		return
	}
	if req.Question == "" || req.Answer == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "question and answer are required", h.logger)
		return
	}

	filter := retrieval.Filter{Product: req.Product, Version: req.Version}

	var err error
	switch req.Type {
	case "up":
		err = h.answers.SaveFeedback(r.Context(), filter, req.Question, req.Answer)
	case "down":
		err = h.answers.Drop(r.Context(), filter, req.Question)
	default:
		writeError(w, http.StatusBadRequest, "invalid_type", `type must be "up" or "down"`, h.logger)
		return
	}
	if err != nil {
		h.logger.Error("recording feedback", "type", req.Type, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "recording feedback failed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}
