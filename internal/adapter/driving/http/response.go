package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/safeguard/internal/application"
	"github.com/ericfisherdev/safeguard/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// CreateCredentialRequest is the JSON body for the add credential endpoint.
type CreateCredentialRequest struct {
	Service  string `json:"service"`
	Username string `json:"username"`
	Secret   string `json:"secret"`
}

// UpdateCredentialRequest is the JSON body for the update endpoint. Omitted
// fields are left unchanged; an explicit empty string clears the field.
type UpdateCredentialRequest struct {
	Service  *string `json:"service,omitempty"`
	Username *string `json:"username,omitempty"`
	Secret   *string `json:"secret,omitempty"`
}

// CredentialResponse is the JSON representation of a stored credential.
type CredentialResponse struct {
	ID        string `json:"id"`
	Service   string `json:"service"`
	Username  string `json:"username"`
	Secret    string `json:"secret"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// StatsResponse is the JSON representation of aggregate statistics.
type StatsResponse struct {
	Total  int  `json:"total"`
	HasAny bool `json:"has_any"`
}

// ViewResponse is the JSON representation of the coordinator's view.
type ViewResponse struct {
	Records []CredentialResponse `json:"records"`
	Loading bool                 `json:"loading"`
	State   string               `json:"state"`
	Error   string               `json:"error,omitempty"`
	Stats   StatsResponse        `json:"stats"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toCredentialResponse converts a domain Credential to its JSON representation.
// Timestamps keep nanosecond precision.
func toCredentialResponse(c model.Credential) CredentialResponse {
	return CredentialResponse{
		ID:        c.ID,
		Service:   c.Service,
		Username:  c.Username,
		Secret:    c.Secret,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toStatsResponse(s model.Stats) StatsResponse {
	return StatsResponse{Total: s.Total, HasAny: s.HasAny}
}

// toViewResponse converts a coordinator Snapshot to its JSON representation.
func toViewResponse(s application.Snapshot) ViewResponse {
	records := make([]CredentialResponse, 0, len(s.Records))
	for _, c := range s.Records {
		records = append(records, toCredentialResponse(c))
	}

	return ViewResponse{
		Records: records,
		Loading: s.Loading,
		State:   string(s.State),
		Error:   s.Error,
		Stats:   toStatsResponse(s.Stats),
	}
}
