package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/products", h.ListProducts).Methods(http.MethodGet)
	r.HandleFunc("/products/clear-cache", h.ClearProductCache).Methods(http.MethodPost)
	r.HandleFunc("/search", h.Search).Methods(http.MethodPost)

	return r
}
