package handlers

import (
	"net/http"
	"strconv"

	"github.com/tripsync/portal/internal/application/services"
	"github.com/tripsync/portal/internal/domain/entities"
)

// CatalogHandler serves the home page catalog and package details
type CatalogHandler struct {
	catalog *services.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Home handles GET /. A search query wins over filters, and reset=1 wins over both.
func (h *CatalogHandler) Home(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	switch {
	case q.Get("reset") == "1":
		respondWithJSON(w, http.StatusOK, h.catalog.Reset(ctx))
	case q.Has("q"):
		respondWithJSON(w, http.StatusOK, h.catalog.Search(ctx, q.Get("q")))
	case q.Has("min") || q.Has("max"):
		filters := services.DefaultFilters()
		var err error
		if filters.Min, err = priceParam(q.Get("min"), filters.Min); err != nil {
			respondWithError(w, http.StatusBadRequest, "min must be a number")
			return
		}
		if filters.Max, err = priceParam(q.Get("max"), filters.Max); err != nil {
			respondWithError(w, http.StatusBadRequest, "max must be a number")
			return
		}
		if c := q.Get("category"); c != "" {
			filters.Category = c
		}
		respondWithJSON(w, http.StatusOK, h.catalog.ApplyFilters(ctx, filters))
	case q.Has("category"):
		respondWithJSON(w, http.StatusOK, h.catalog.ByCategory(ctx, q.Get("category")))
	default:
		respondWithJSON(w, http.StatusOK, h.catalog.Load(ctx))
	}
}

type packageDetail struct {
	entities.TravelPackage
	FinalPrice float64 `json:"final_price"`
}

// Popular handles GET /popular
func (h *CatalogHandler) Popular(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.catalog.Popular(r.Context()))
}

// GetPackage handles GET /package/{id}
func (h *CatalogHandler) GetPackage(w http.ResponseWriter, r *http.Request) {
	pkg, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, packageDetail{TravelPackage: *pkg, FinalPrice: pkg.FinalPrice()})
}

func priceParam(raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(raw, 64)
}
