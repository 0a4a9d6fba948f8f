package web

import "net/http"

// RegisterRoutes registers all web GUI routes on the provided mux.
// The dashboard is served at / and form posts land under /credentials.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /{$}", h.Dashboard)
	mux.HandleFunc("POST /credentials", h.AddCredential)
	mux.HandleFunc("POST /credentials/{id}", h.UpdateCredential)
	mux.HandleFunc("POST /credentials/{id}/delete", h.DeleteCredential)
}
