package web

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	vm "github.com/ericfisherdev/safeguard/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/safeguard/internal/application"
	"github.com/ericfisherdev/safeguard/internal/domain/model"
)

const (
	maskRune      = "•"
	maxMaskLength = 12
	displayLayout = "2006-01-02 15:04"
)

// toCredentialCardViewModel converts a domain Credential to a card view model.
func toCredentialCardViewModel(c model.Credential) vm.CredentialCardViewModel {
	return vm.CredentialCardViewModel{
		ID:           c.ID,
		Service:      c.Service,
		Username:     c.Username,
		Secret:       c.Secret,
		MaskedSecret: maskSecret(c.Secret),
		HasSecret:    c.Secret != "",
		UpdatedAt:    c.UpdatedAt.Local().Format(displayLayout),
		UpdatedISO:   c.UpdatedAt.UTC().Format(time.RFC3339),
		EditPath:     fmt.Sprintf("/credentials/%s", c.ID),
		DeletePath:   fmt.Sprintf("/credentials/%s/delete", c.ID),
	}
}

// toDashboardViewModel builds the page model from a coordinator Snapshot.
func toDashboardViewModel(snap application.Snapshot, query, csrfToken string) vm.DashboardViewModel {
	cards := make([]vm.CredentialCardViewModel, 0, len(snap.Records))
	for _, c := range snap.Records {
		cards = append(cards, toCredentialCardViewModel(c))
	}

	return vm.DashboardViewModel{
		Cards:     cards,
		Stats:     toStatsViewModel(snap.Stats, query),
		Query:     query,
		Error:     snap.Error,
		Loading:   snap.Loading,
		CSRFToken: csrfToken,
	}
}

func toStatsViewModel(s model.Stats, query string) vm.StatsViewModel {
	var summary string
	switch {
	case !s.HasAny && strings.TrimSpace(query) != "":
		summary = "No matching credentials"
	case !s.HasAny:
		summary = "No credentials yet"
	case s.Total == 1:
		summary = "1 credential"
	default:
		summary = fmt.Sprintf("%d credentials", s.Total)
	}

	return vm.StatsViewModel{Total: s.Total, HasAny: s.HasAny, Summary: summary}
}

// maskSecret replaces every rune of secret with a bullet, capped so the mask
// does not reveal long secrets' length exactly.
func maskSecret(secret string) string {
	n := utf8.RuneCountInString(secret)
	if n > maxMaskLength {
		n = maxMaskLength
	}
	return strings.Repeat(maskRune, n)
}
