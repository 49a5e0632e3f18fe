package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/shelfpulse/internal/adapters/repository"
	service "github.com/okian/shelfpulse/internal/app"
)

// RefreshDependencies defines the interface for manual refreshes.
type RefreshDependencies interface {
	Refresh(ctx context.Context) (*repository.Snapshot, error)
}

// RefreshHandler handles manual refresh requests.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

type refreshResponse struct {
	Status string `json:"status"`
	snapshotMeta
}

// HandlePostRefresh handles POST /refresh requests. The refresh runs
// synchronously; a fetch failure is reported as 502 and also becomes the
// dashboard state.
func (h *RefreshHandler) HandlePostRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_refresh"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	snap, err := h.deps.Refresh(r.Context())
	switch {
	case errors.Is(err, service.ErrSuperseded):
		// A concurrent refresh already published newer data.
		writeJSON(w, http.StatusAccepted, refreshResponse{Status: "superseded"})
	case err != nil:
		writeError(w, r, Wrap(op, err))
	default:
		writeJSON(w, http.StatusAccepted, refreshResponse{Status: "refreshed", snapshotMeta: metaOf(snap)})
	}
}
