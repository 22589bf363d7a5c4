package analytics

import "github.com/stephenafamo/bobdocs/internal/config"

// Collection hosts. Only the collection host depends on the environment.
const (
	ProductionCollectURL  = "https://scripts.simpleanalyticscdn.com"
	DevelopmentCollectURL = "http://localhost:3000"
)

// Asset paths on the collection host.
const (
	scriptPath = "/latest.js"
	pixelPath  = "/noscript.gif"
)

// Endpoint is where a site reports to and under which hostname.
type Endpoint struct {
	// CollectURL is the collection host, without a trailing slash.
	CollectURL string `json:"collect_url"`

	// TenantHostname is <websiteID>.<site hostname>.
	TenantHostname string `json:"tenant_hostname"`
}

// ScriptURL is the tracking script location.
func (e Endpoint) ScriptURL() string {
	return e.CollectURL + scriptPath
}

// PixelURL is the no-script beacon location, without query.
func (e Endpoint) PixelURL() string {
	return e.CollectURL + pixelPath
}

// Resolve derives the endpoint for a build. siteHostname must already be a
// valid hostname; it comes from the validated site configuration.
func Resolve(opts Options, env config.BuildEnvironment, siteHostname string) Endpoint {
	collect := DevelopmentCollectURL
	if env.IsProduction() {
		collect = ProductionCollectURL
	}
	return Endpoint{
		CollectURL:     collect,
		TenantHostname: opts.WebsiteID + "." + siteHostname,
	}
}
