// Package templates holds the page layout and the shared markup writer used by
// the templ components under pages.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// CSRFField is the hidden form field carrying the double-submit token.
const CSRFField = "csrf_token"

const layoutCSS = `
body{font-family:system-ui,sans-serif;margin:0;background:#f5f5f4;color:#1c1917}
main{max-width:48rem;margin:0 auto;padding:1.5rem}
header{display:flex;justify-content:space-between;align-items:baseline}
form.inline{display:inline}
.error{background:#fee2e2;color:#991b1b;padding:.75rem;border-radius:.375rem}
.card{background:#fff;border-radius:.5rem;padding:1rem;margin:.75rem 0;box-shadow:0 1px 2px rgba(0,0,0,.08)}
.card h2{margin:0 0 .25rem;font-size:1.1rem}
.muted{color:#78716c;font-size:.875rem}
fieldset{border:0;padding:0;display:flex;gap:.5rem;flex-wrap:wrap}
`

// Writer accumulates the first write error so components can emit markup
// without checking every call.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Raw writes trusted markup as-is.
func (hw *Writer) Raw(s string) {
	if hw.err != nil {
		return
	}
	_, hw.err = io.WriteString(hw.w, s)
}

// Text writes untrusted content, escaped for element bodies and attribute values.
func (hw *Writer) Text(s string) {
	hw.Raw(templ.EscapeString(s))
}

// Component renders c in place.
func (hw *Writer) Component(ctx context.Context, c templ.Component) {
	if hw.err != nil {
		return
	}
	hw.err = c.Render(ctx, hw.w)
}

// CSRFInput writes the hidden token field every state-changing form carries.
func (hw *Writer) CSRFInput(token string) {
	hw.Raw(`<input type="hidden" name="` + CSRFField + `" value="`)
	hw.Text(token)
	hw.Raw(`">`)
}

// Err returns the first write or render error.
func (hw *Writer) Err() error {
	return hw.err
}

// Layout wraps body in the full HTML document.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := NewWriter(w)
		hw.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		hw.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		hw.Text(title)
		hw.Raw(`</title><style>` + layoutCSS + `</style></head><body><main>`)
		hw.Component(ctx, body)
		hw.Raw(`</main></body></html>`)
		return hw.Err()
	})
}
