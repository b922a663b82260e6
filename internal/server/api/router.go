package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter builds the HTTP routing table. Auth endpoints and ping are
// public; everything under /v1/sync requires a bearer token.
func NewRouter(h *Handler, secretKey []byte) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/v1/ping", h.Ping).Methods(http.MethodGet)
	r.HandleFunc("/v1/auth/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/v1/auth/login", h.Login).Methods(http.MethodPost)

	sync := r.PathPrefix("/v1/sync").Subrouter()
	sync.Use(authMiddleware(secretKey))
	sync.HandleFunc("/{kind}/changes", h.Changes).Methods(http.MethodGet)
	sync.HandleFunc("/{kind}/batch", h.Batch).Methods(http.MethodPost)
	sync.HandleFunc("/{kind}/{id}", h.Delete).Methods(http.MethodDelete)

	return r
}
