package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/shelfpulse/internal/domain/model"
)

// ProductDependencies defines the interface for product detail lookups.
type ProductDependencies interface {
	Product(ctx context.Context, id model.ProductID) (model.ProductPerformanceRecord, error)
}

// ProductHandler handles product detail requests.
type ProductHandler struct {
	deps ProductDependencies
}

// NewProductHandler creates a new product handler.
func NewProductHandler(deps ProductDependencies) *ProductHandler {
	return &ProductHandler{deps: deps}
}

// HandleGetProduct handles GET /products/{id} requests.
func (h *ProductHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_product"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /products/
	id := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/products/"))
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, NewKind(op, ErrBadRequest))
		return
	}
	rec, err := h.deps.Product(r.Context(), model.ProductID(id))
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, productResponse{Product: rec})
}
