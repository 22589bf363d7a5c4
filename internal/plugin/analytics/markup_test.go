package analytics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func TestRenderProduction(t *testing.T) {
	e := Endpoint{CollectURL: ProductionCollectURL, TenantHostname: testWebsiteID + ".bob.example.com"}
	m := Render(e)

	assert.Equal(t,
		`<script async defer src="https://scripts.simpleanalyticscdn.com/latest.js" data-hostname="e84c4b3f-1915-5441-b601-d1b85dce7329.bob.example.com" data-collect-dnt="true"></script>`,
		m.Script)
	assert.Equal(t,
		`<noscript><img src="https://scripts.simpleanalyticscdn.com/noscript.gif?collect-dnt=true&amp;hostname=e84c4b3f-1915-5441-b601-d1b85dce7329.bob.example.com" alt="" referrerpolicy="no-referrer-when-downgrade" /></noscript>`,
		m.NoScript)
	assert.Equal(t, []string{m.Script, m.NoScript}, m.Fragments())
}

func TestRenderIsPure(t *testing.T) {
	e1 := Endpoint{CollectURL: DevelopmentCollectURL, TenantHostname: "a.example.com"}
	e2 := Endpoint{CollectURL: DevelopmentCollectURL, TenantHostname: "a.example.com"}
	assert.Equal(t, Render(e1), Render(e2))

	e3 := Endpoint{CollectURL: DevelopmentCollectURL, TenantHostname: "b.example.com"}
	assert.NotEqual(t, Render(e1), Render(e3))
}

func TestRenderEscapes(t *testing.T) {
	m := Render(Endpoint{CollectURL: DevelopmentCollectURL, TenantHostname: `x"><script>.example.com`})
	assert.NotContains(t, m.Script, `"><script>.`)
	assert.NotContains(t, m.NoScript, `"><script>.`)
}

// Both fragments must report the same tenant hostname once parsed the way a
// browser would.
func TestRenderFragmentsShareHostname(t *testing.T) {
	host := testWebsiteID + ".bob.example.com"
	m := Render(Endpoint{CollectURL: ProductionCollectURL, TenantHostname: host})

	script := parseElement(t, m.Script, "script")
	assert.Equal(t, host, attr(script, "data-hostname"))
	assert.Equal(t, "true", attr(script, "data-collect-dnt"))
	assert.Equal(t, ProductionCollectURL+"/latest.js", attr(script, "src"))

	// noscript content is parsed as markup when scripting is disabled.
	inner := strings.TrimSuffix(strings.TrimPrefix(m.NoScript, "<noscript>"), "</noscript>")
	img := parseElement(t, inner, "img")
	assert.Equal(t, "no-referrer-when-downgrade", attr(img, "referrerpolicy"))
	assert.Equal(t, ProductionCollectURL+"/noscript.gif?collect-dnt=true&hostname="+host, attr(img, "src"))
}

func parseElement(t *testing.T, fragment, tag string) *html.Node {
	t.Helper()
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"})
	require.NoError(t, err)
	for _, n := range nodes {
		if n.Type == html.ElementNode && n.Data == tag {
			return n
		}
	}
	t.Fatalf("no <%s> in %q", tag, fragment)
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
