// Package errors provides the classified error primitives used across bobdocs.
//
// Every failure that reaches the CLI carries a category, a severity and a small
// structured context. The CLI adapter turns the category into an exit code.
//
// Example usage:
//
//	err := errors.ConfigError("websiteID is required").
//		WithContext("field", "websiteID").
//		WithContext("plugin", "simple-analytics").
//		Build()
package errors
