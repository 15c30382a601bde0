package api

import (
	"log/slog"
	"net/http"
)

// healthHandler answers liveness probes for Docker/Kubernetes.
func healthHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}
