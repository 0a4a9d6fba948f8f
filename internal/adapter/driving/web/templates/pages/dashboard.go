// Package pages holds the full-page templ components.
package pages

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/safeguard/internal/adapter/driving/web/templates"
	vm "github.com/ericfisherdev/safeguard/internal/adapter/driving/web/viewmodel"
)

// Dashboard renders the stats header, search box, add form and credential cards.
func Dashboard(page vm.DashboardViewModel) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := templates.NewWriter(w)

		hw.Raw(`<header><h1>Safeguard</h1><p class="muted" id="stats" data-total="`)
		hw.Raw(strconv.Itoa(page.Stats.Total))
		hw.Raw(`">`)
		hw.Text(page.Stats.Summary)
		hw.Raw(`</p></header>`)

		if page.Error != "" {
			hw.Raw(`<p class="error" role="alert">`)
			hw.Text(page.Error)
			hw.Raw(`</p>`)
		}

		hw.Raw(`<form method="get" action="/" role="search"><input type="search" name="q" placeholder="Search service or username" value="`)
		hw.Text(page.Query)
		hw.Raw(`"> <button type="submit">Search</button></form>`)

		hw.Component(ctx, addForm(page.CSRFToken))

		hw.Raw(`<section id="credentials">`)
		for _, card := range page.Cards {
			hw.Component(ctx, credentialCard(card, page.CSRFToken))
		}
		hw.Raw(`</section>`)

		return hw.Err()
	})
}

func addForm(csrfToken string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := templates.NewWriter(w)
		hw.Raw(`<form method="post" action="/credentials" class="card"><fieldset>`)
		hw.CSRFInput(csrfToken)
		hw.Raw(`<input name="service" placeholder="Service" required>`)
		hw.Raw(`<input name="username" placeholder="Username" autocomplete="off">`)
		hw.Raw(`<input name="secret" type="password" placeholder="Secret" autocomplete="new-password">`)
		hw.Raw(`<button type="submit">Add</button></fieldset></form>`)
		return hw.Err()
	})
}

func credentialCard(card vm.CredentialCardViewModel, csrfToken string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := templates.NewWriter(w)
		hw.Raw(`<article class="card" id="credential-`)
		hw.Text(card.ID)
		hw.Raw(`"><h2>`)
		hw.Text(card.Service)
		hw.Raw(`</h2>`)

		if card.Username != "" {
			hw.Raw(`<p>`)
			hw.Text(card.Username)
			hw.Raw(`</p>`)
		}

		if card.HasSecret {
			hw.Raw(`<details><summary><code>`)
			hw.Text(card.MaskedSecret)
			hw.Raw(`</code></summary><code>`)
			hw.Text(card.Secret)
			hw.Raw(`</code></details>`)
		}

		hw.Raw(`<p class="muted">Updated <time datetime="`)
		hw.Text(card.UpdatedISO)
		hw.Raw(`">`)
		hw.Text(card.UpdatedAt)
		hw.Raw(`</time></p>`)

		hw.Component(ctx, editForm(card, csrfToken))

		hw.Raw(`<form method="post" class="inline" action="`)
		hw.Text(card.DeletePath)
		hw.Raw(`">`)
		hw.CSRFInput(csrfToken)
		hw.Raw(`<button type="submit">Delete</button></form></article>`)
		return hw.Err()
	})
}

// editForm is prefilled with the current values; every field is submitted.
func editForm(card vm.CredentialCardViewModel, csrfToken string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		hw := templates.NewWriter(w)
		hw.Raw(`<details class="edit"><summary>Edit</summary><form method="post" action="`)
		hw.Text(card.EditPath)
		hw.Raw(`"><fieldset>`)
		hw.CSRFInput(csrfToken)
		hw.Raw(`<input name="service" placeholder="Service" required value="`)
		hw.Text(card.Service)
		hw.Raw(`"><input name="username" placeholder="Username" autocomplete="off" value="`)
		hw.Text(card.Username)
		hw.Raw(`"><input name="secret" type="password" placeholder="Secret" autocomplete="new-password" value="`)
		hw.Text(card.Secret)
		hw.Raw(`"><button type="submit">Save</button></fieldset></form></details>`)
		return hw.Err()
	})
}
