package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/safeguard/internal/application"
	"github.com/ericfisherdev/safeguard/internal/domain/model"
	"github.com/ericfisherdev/safeguard/internal/domain/port/driven"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// Handler is the HTTP driving adapter that serves the REST API. It is a thin
// presentation layer: every request maps onto one Coordinator intent and the
// response is read from the Coordinator's view.
type Handler struct {
	coordinator *application.Coordinator
	logger      *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(coordinator *application.Coordinator, logger *slog.Logger) *Handler {
	return &Handler{
		coordinator: coordinator,
		logger:      logger,
	}
}

// RegisterAPIRoutes registers all JSON API routes on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/credentials", h.ListCredentials)
	mux.HandleFunc("POST /api/v1/credentials", h.AddCredential)
	mux.HandleFunc("DELETE /api/v1/credentials", h.ClearCredentials)
	mux.HandleFunc("PATCH /api/v1/credentials/{id}", h.UpdateCredential)
	mux.HandleFunc("DELETE /api/v1/credentials/{id}", h.DeleteCredential)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// NewServeMux creates an http.Handler with only the API routes registered and
// wrapped in middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	RegisterAPIRoutes(mux, h)
	return ApplyMiddleware(mux, logger)
}

// ListCredentials refreshes the view, or searches when a q parameter is
// present, and returns it. Read failures are reported in the view's error
// field alongside the last-known-good records.
func (h *Handler) ListCredentials(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Has("q") {
		h.coordinator.Search(r.Context(), query.Get("q"))
	} else {
		h.coordinator.Refresh(r.Context())
	}

	writeJSON(w, http.StatusOK, toViewResponse(h.coordinator.Snapshot()))
}

// AddCredential creates a credential from a JSON draft.
func (h *Handler) AddCredential(w http.ResponseWriter, r *http.Request) {
	var req CreateCredentialRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cred, err := h.coordinator.Add(r.Context(), model.CredentialDraft{
		Service:  req.Service,
		Username: req.Username,
		Secret:   req.Secret,
	})
	if err != nil {
		h.writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCredentialResponse(cred))
}

// UpdateCredential applies a partial JSON patch to one credential.
func (h *Handler) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req UpdateCredentialRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cred, err := h.coordinator.Update(r.Context(), id, model.CredentialPatch{
		Service:  req.Service,
		Username: req.Username,
		Secret:   req.Secret,
	})
	if err != nil {
		h.writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toCredentialResponse(cred))
}

// DeleteCredential removes one credential.
func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeOperationError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearCredentials removes every credential.
func (h *Handler) ClearCredentials(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.ClearAll(r.Context()); err != nil {
		h.writeOperationError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats refreshes the view and returns statistics over every stored
// credential, so a search left behind by another client does not narrow them.
// A failed refresh leaves the last-known-good view and reports the read error.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.coordinator.Refresh(r.Context())

	snap := h.coordinator.Snapshot()
	if snap.State == application.StateFailed {
		status := http.StatusInternalServerError
		if snap.Error == application.MsgStorageUnavailable {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, snap.Error)
		return
	}

	writeJSON(w, http.StatusOK, toStatsResponse(snap.Stats))
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeOperationError maps a Coordinator mutation error onto a status code.
// The body carries the same message the Coordinator put in its error slot.
func (h *Handler) writeOperationError(w http.ResponseWriter, err error) {
	message := "internal server error"
	var opErr *application.OperationError
	if errors.As(err, &opErr) {
		message = opErr.Message
	}

	switch {
	case errors.Is(err, driven.ErrValidation):
		writeError(w, http.StatusBadRequest, message)
	case errors.Is(err, driven.ErrNotFound):
		writeError(w, http.StatusNotFound, message)
	case errors.Is(err, driven.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, message)
	default:
		h.logger.Error("credential request failed", "error", err)
		writeError(w, http.StatusInternalServerError, message)
	}
}

// decodeJSON decodes a size-limited request body, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
