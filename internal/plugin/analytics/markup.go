package analytics

import (
	"html"
	"net/url"
)

// Markup is the pair of fragments added before </body> on every page.
type Markup struct {
	Script   string `json:"script"`
	NoScript string `json:"noscript"`
}

// Fragments returns the fragments in insertion order.
func (m Markup) Fragments() []string {
	return []string{m.Script, m.NoScript}
}

// Render produces the markup for e. Do-not-track visitors are always
// collected without personal data, hence the fixed collect-dnt flag.
// Output depends only on e.
func Render(e Endpoint) Markup {
	host := html.EscapeString(e.TenantHostname)

	script := `<script async defer src="` + html.EscapeString(e.ScriptURL()) +
		`" data-hostname="` + host +
		`" data-collect-dnt="true"></script>`

	// url.Values encodes keys in sorted order.
	query := url.Values{
		"collect-dnt": {"true"},
		"hostname":    {e.TenantHostname},
	}
	pixel := e.PixelURL() + "?" + query.Encode()
	noscript := `<noscript><img src="` + html.EscapeString(pixel) +
		`" alt="" referrerpolicy="no-referrer-when-downgrade" /></noscript>`

	return Markup{Script: script, NoScript: noscript}
}
