package analytics

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/google/uuid"

	"github.com/stephenafamo/bobdocs/internal/foundation"
	"github.com/stephenafamo/bobdocs/internal/foundation/errors"
)

// RawOptions is the untyped options block from the site configuration.
type RawOptions = map[string]any

// OptionWebsiteID is the only recognised option.
const OptionWebsiteID = "websiteID"

// guidShape accepts the canonical 8-4-4-4-12 layout only. uuid.Parse alone
// would also take braces, a urn prefix or no dashes at all.
var guidShape = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// Options are validated plugin options. The zero value is never valid; use
// ValidateOptions or ParseOptions.
type Options struct {
	// WebsiteID is the tenant identifier, exactly as configured.
	WebsiteID string `json:"websiteID"`
}

// ValidateOptions checks raw against the option schema. Unknown keys are
// ignored. On failure the error is a fatal config ClassifiedError naming the
// offending field.
func ValidateOptions(raw RawOptions) foundation.Result[Options, *errors.ClassifiedError] {
	value, present := raw[OptionWebsiteID]
	if !present || value == nil {
		return foundation.Err[Options](optionError("websiteID is required", nil))
	}

	id, ok := value.(string)
	if !ok {
		return foundation.Err[Options](optionError(fmt.Sprintf("websiteID must be a string, got %T", value), value))
	}
	if id == "" {
		return foundation.Err[Options](optionError("websiteID is required", nil))
	}
	if !guidShape.MatchString(id) {
		return foundation.Err[Options](optionError("websiteID must be a valid GUID", id))
	}
	if _, err := uuid.Parse(id); err != nil {
		return foundation.Err[Options](optionError("websiteID must be a valid GUID", id))
	}

	return foundation.Ok[Options, *errors.ClassifiedError](Options{WebsiteID: id})
}

// ParseOptions is ValidateOptions in (value, error) form.
func ParseOptions(raw RawOptions) (Options, error) {
	return ValidateOptions(raw).ToTuple()
}

// IsConfigurationError reports whether err is an options validation failure.
func IsConfigurationError(err error) bool {
	classified, ok := errors.AsClassified(err)
	if !ok || !classified.IsCategory(errors.CategoryConfig) {
		return false
	}
	field, _ := classified.Context().GetString("field")
	return field == OptionWebsiteID
}

// UnknownOptions lists keys in raw that the plugin does not use, sorted.
func UnknownOptions(raw RawOptions) []string {
	var unknown []string
	for k := range raw {
		if k != OptionWebsiteID {
			unknown = append(unknown, k)
		}
	}
	slices.Sort(unknown)
	return unknown
}

func optionError(msg string, value any) *errors.ClassifiedError {
	b := errors.ConfigError(msg).
		WithContext("plugin", Name).
		WithContext("field", OptionWebsiteID)
	if value != nil {
		b = b.WithContext("value", value)
	}
	return b.Build()
}
