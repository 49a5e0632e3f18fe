package api

import (
	"context"
	"net/http"

	"github.com/okian/shelfpulse/internal/domain/model"
)

// AnalyticsDependencies defines the interface for the analytics passthrough.
type AnalyticsDependencies interface {
	Analytics(ctx context.Context) (model.AnalyticsPayload, error)
}

// AnalyticsHandler serves the product analytics document unchanged.
type AnalyticsHandler struct {
	deps AnalyticsDependencies
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(deps AnalyticsDependencies) *AnalyticsHandler {
	return &AnalyticsHandler{deps: deps}
}

// HandleGetAnalytics handles GET /analytics requests.
func (h *AnalyticsHandler) HandleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_analytics"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	payload, err := h.deps.Analytics(r.Context())
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	body, _ := payload.MarshalJSON()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
