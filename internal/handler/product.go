package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/product"
)

// ListProducts returns the menu, optionally narrowed by ?category=.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	category := product.Category(r.URL.Query().Get("category"))
	if category != "" && !category.Valid() {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}

	products, err := h.products.List(r.Context(), product.Filter{Category: category})
	if err != nil {
		handleError(w, r, err)
		return
	}
	out := make([]productResponse, len(products))
	for i, p := range products {
		out[i] = h.toProduct(p)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProduct returns a single product by id.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.toProduct(*p))
}
