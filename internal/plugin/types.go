package plugin

import (
	"fmt"
	"slices"
)

// PluginType identifies the category of plugin.
type PluginType string

const (
	// PluginTypeAnalytics adds reporting markup to generated pages.
	PluginTypeAnalytics PluginType = "analytics"

	// PluginTypeStyling changes the CSS pipeline.
	PluginTypeStyling PluginType = "styling"

	// PluginTypeContent adds or changes content data.
	PluginTypeContent PluginType = "content"
)

// IsValid returns true if the plugin type is recognized.
func (t PluginType) IsValid() bool {
	switch t {
	case PluginTypeAnalytics, PluginTypeStyling, PluginTypeContent:
		return true
	default:
		return false
	}
}

// String returns the string representation of the plugin type.
func (t PluginType) String() string {
	return string(t)
}

// HTMLTags are raw markup fragments for the page template, kept in order.
type HTMLTags struct {
	// HeadTags go right before </head>.
	HeadTags []string `json:"head_tags,omitempty"`

	// PreBodyTags go right after <body>.
	PreBodyTags []string `json:"pre_body_tags,omitempty"`

	// PostBodyTags go right before </body>.
	PostBodyTags []string `json:"post_body_tags,omitempty"`
}

// IsEmpty reports whether there is nothing to inject.
func (t HTMLTags) IsEmpty() bool {
	return len(t.HeadTags) == 0 && len(t.PreBodyTags) == 0 && len(t.PostBodyTags) == 0
}

// Merge returns t followed by other. Neither input is modified.
func (t HTMLTags) Merge(other HTMLTags) HTMLTags {
	return HTMLTags{
		HeadTags:     slices.Concat(t.HeadTags, other.HeadTags),
		PreBodyTags:  slices.Concat(t.PreBodyTags, other.PreBodyTags),
		PostBodyTags: slices.Concat(t.PostBodyTags, other.PostBodyTags),
	}
}

// PostCSSOptions is forwarded verbatim to the CSS post-processing pipeline.
type PostCSSOptions struct {
	Plugins []string `json:"plugins"`
}

// WithPlugin returns a copy of o with name appended.
func (o PostCSSOptions) WithPlugin(name string) PostCSSOptions {
	return PostCSSOptions{Plugins: append(slices.Clone(o.Plugins), name)}
}

// PluginError represents an error that occurred within a plugin.
type PluginError struct {
	// PluginName identifies which plugin failed.
	PluginName string

	// Operation is the factory or hook that failed.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s failed during %s: %v", e.PluginName, e.Operation, e.Err)
}

// Unwrap returns the underlying error for error inspection.
func (e *PluginError) Unwrap() error {
	return e.Err
}

// NewPluginError creates a new plugin error.
func NewPluginError(pluginName, operation string, err error) *PluginError {
	return &PluginError{
		PluginName: pluginName,
		Operation:  operation,
		Err:        err,
	}
}
