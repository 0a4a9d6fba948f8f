// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// CredentialCardViewModel holds presentation-ready data for one credential card.
type CredentialCardViewModel struct {
	ID           string
	Service      string
	Username     string
	Secret       string
	MaskedSecret string
	HasSecret    bool
	UpdatedAt    string // formatted for display
	UpdatedISO   string // RFC 3339, for the datetime attribute
	EditPath     string // computed: /credentials/{id}
	DeletePath   string // computed: /credentials/{id}/delete
}

// StatsViewModel holds the summary line shown above the card list.
type StatsViewModel struct {
	Total   int
	HasAny  bool
	Summary string
}

// DashboardViewModel holds everything the dashboard page renders.
type DashboardViewModel struct {
	Cards     []CredentialCardViewModel
	Stats     StatsViewModel
	Query     string
	Error     string
	Loading   bool
	CSRFToken string
}
