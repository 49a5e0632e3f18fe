package api

import (
	"context"
	"net/http"

	"github.com/okian/shelfpulse/internal/adapters/repository"
	"github.com/okian/shelfpulse/internal/domain/classify"
)

// Dashboard status values.
const (
	statusOK    = "ok"
	statusEmpty = "empty"
)

// DashboardDependencies defines the interface for dashboard reads.
type DashboardDependencies interface {
	Dashboard(ctx context.Context) (*repository.Snapshot, error)
}

// DashboardHandler handles dashboard requests.
type DashboardHandler struct {
	deps DashboardDependencies
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps DashboardDependencies) *DashboardHandler {
	return &DashboardHandler{deps: deps}
}

// dashboardResponse flattens the classification result next to the
// snapshot metadata and the distribution split.
type dashboardResponse struct {
	Status string `json:"status"`
	snapshotMeta
	classify.Result
	Distribution classify.Distribution `json:"distribution"`
}

// HandleGetDashboard handles GET /dashboard requests. An empty snapshot is
// reported with status "empty" rather than as an error.
func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_dashboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	snap, err := h.deps.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newDashboardResponse(snap))
}

func newDashboardResponse(snap *repository.Snapshot) dashboardResponse {
	status := statusOK
	if snap.Result.IsEmpty() {
		status = statusEmpty
	}
	return dashboardResponse{
		Status:       status,
		snapshotMeta: metaOf(snap),
		Result:       snap.Result,
		Distribution: snap.Result.Distribution(),
	}
}
