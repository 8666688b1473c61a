package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/conversational-store/backend/internal/catalog"
	"github.com/conversational-store/backend/internal/search"
)

// Warn when the catalog drops below the expected assortment size.
const minCatalogSKUs = 30

const searchTimeout = 15 * time.Second

type Searcher interface {
	Search(ctx context.Context, query search.SearchQuery) (*search.SearchResponse, error)
}

type ProductCatalog interface {
	Products() ([]catalog.Product, error)
	Invalidate()
}

type Handler struct {
	searcher Searcher
	catalog  ProductCatalog
	log      *logrus.Entry
}

func NewHandler(searcher Searcher, productCatalog ProductCatalog) *Handler {
	return &Handler{
		searcher: searcher,
		catalog:  productCatalog,
		log:      logrus.WithField("component", "http"),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Products()
	if err != nil {
		h.log.Errorf("list products: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(products) < minCatalogSKUs {
		h.log.Warnf("catalog holds %d products, below the target of %d SKUs", len(products), minCatalogSKUs)
	}

	writeJSON(w, products)
}

func (h *Handler) ClearProductCache(w http.ResponseWriter, r *http.Request) {
	h.catalog.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var query search.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), searchTimeout)
	defer cancel()

	resp, err := h.searcher.Search(ctx, query)
	if err != nil {
		if errors.Is(err, search.ErrEmptyQuery) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Errorf("search failed: %v", err)
		http.Error(w, "search service is not available", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
