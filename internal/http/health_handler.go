package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HealthHandler reports liveness and, when a ping is configured, store reachability.
type HealthHandler struct {
	ping      func(ctx context.Context) error
	responder responder
}

// NewHealthHandler builds the handler. ping may be nil.
func NewHealthHandler(ping func(ctx context.Context) error, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{ping: ping, responder: newResponder(logger)}
}

// Get answers GET /healthz.
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			h.responder.loggerFor(r.Context()).WarnContext(r.Context(), "health check failed", "error", err)
			h.responder.writeJSON(r.Context(), w, http.StatusServiceUnavailable, errorResponse{
				Success: false,
				Message: localizedStatusMessage(http.StatusServiceUnavailable),
				Error:   "store_unavailable",
			})
			return
		}
	}
	h.responder.writeSuccess(r.Context(), w, http.StatusOK, "", map[string]string{"status": "ok"})
}
