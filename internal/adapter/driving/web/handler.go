// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ericfisherdev/safeguard/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/safeguard/internal/adapter/driving/web/templates/pages"
	"github.com/ericfisherdev/safeguard/internal/application"
	"github.com/ericfisherdev/safeguard/internal/domain/model"
	"github.com/ericfisherdev/safeguard/internal/domain/port/driven"
)

const pageTitle = "Safeguard"

// Handler is the web GUI driving adapter that serves HTML via templ components.
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

// Dashboard renders the main dashboard page. A q parameter narrows the list to
// matching credentials; stray spaces typed into the search box are dropped.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	token := ensureCSRFToken(w, r)

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q != "" {
		h.coordinator.Search(r.Context(), q)
	} else {
		h.coordinator.Refresh(r.Context())
	}

	h.render(w, r, http.StatusOK, q, token)
}

// AddCredential handles the add form. On success it redirects back to the
// dashboard; on failure the dashboard is re-rendered with the error shown.
func (h *Handler) AddCredential(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return
	}

	_, err := h.coordinator.Add(r.Context(), model.CredentialDraft{
		Service:  r.PostFormValue("service"),
		Username: r.PostFormValue("username"),
		Secret:   r.PostFormValue("secret"),
	})
	if err != nil {
		h.render(w, r, statusFor(err), "", ensureCSRFToken(w, r))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// UpdateCredential handles a card's edit form. Only fields present in the
// form are patched.
func (h *Handler) UpdateCredential(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	patch := model.CredentialPatch{
		Service:  formField(r, "service"),
		Username: formField(r, "username"),
		Secret:   formField(r, "secret"),
	}

	if _, err := h.coordinator.Update(r.Context(), r.PathValue("id"), patch); err != nil {
		h.render(w, r, statusFor(err), "", ensureCSRFToken(w, r))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// DeleteCredential handles a card's delete button.
func (h *Handler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid csrf token", http.StatusForbidden)
		return
	}

	if err := h.coordinator.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.render(w, r, statusFor(err), "", ensureCSRFToken(w, r))
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// render writes the dashboard for the coordinator's current view.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, query, token string) {
	page := toDashboardViewModel(h.coordinator.Snapshot(), query, token)
	layout := templates.Layout(pageTitle, pages.Dashboard(page))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := layout.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render dashboard", "error", err)
	}
}

// formField returns the posted value of name, or nil when the form omits it.
func formField(r *http.Request, name string) *string {
	values, ok := r.PostForm[name]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, driven.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, driven.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, driven.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
