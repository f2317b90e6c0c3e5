package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/shop-admin-core/internal/catalog"
)

type InventoryHandler struct {
	catalog catalog.Repository
}

func NewInventoryHandler(catalogRepo catalog.Repository) *InventoryHandler {
	return &InventoryHandler{catalog: catalogRepo}
}

func (h *InventoryHandler) RegisterRoutes(router chi.Router) {
	router.Get("/inventory/search", h.handleSearch)
}

// handleSearch looks up variants by SKU or product name for the admin
// inventory page.
func (h *InventoryHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "q parameter is required")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	results, err := h.catalog.SearchVariants(r.Context(), query, limit)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Failed to search variants")
		respondWithError(w, http.StatusInternalServerError, "Failed to search inventory")
		return
	}

	respondWithJSON(w, http.StatusOK, results)
}
