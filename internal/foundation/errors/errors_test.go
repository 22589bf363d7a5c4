package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "bobdocs.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != "bobdocs.yaml" {
			t.Errorf("expected context file=bobdocs.yaml, got %v", file)
		}
	})

	t.Run("Error detection", func(t *testing.T) {
		err := ConfigError("test error").Build()

		if !IsClassified(err) {
			t.Error("expected error to be classified")
		}
		if !HasCategory(err, CategoryConfig) {
			t.Error("expected error to have config category")
		}
		if !err.IsFatal() {
			t.Error("expected config error to be fatal")
		}
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		inner := ConfigError("websiteID is required").Build()
		wrapped := fmt.Errorf("load plugin: %w", inner)

		if GetCategory(wrapped) != CategoryConfig {
			t.Errorf("expected config category through wrap, got %s", GetCategory(wrapped))
		}
		if GetSeverity(wrapped) != SeverityFatal {
			t.Errorf("expected fatal severity through wrap, got %s", GetSeverity(wrapped))
		}
	})

	t.Run("Unclassified defaults", func(t *testing.T) {
		err := errors.New("plain")
		if GetCategory(err) != CategoryInternal {
			t.Errorf("expected internal category, got %s", GetCategory(err))
		}
		if GetSeverity(err) != SeverityError {
			t.Errorf("expected error severity, got %s", GetSeverity(err))
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	originalErr := errors.New("permission denied")
	err := WrapError(originalErr, CategoryFileSystem, "write page").
		Warning().
		WithContext("page", "docs/index.html").
		Build()

	if err.Severity() != SeverityWarning {
		t.Errorf("expected warning severity, got %s", err.Severity())
	}
	if !errors.Is(err, originalErr) {
		t.Error("expected wrapped cause to be reachable with errors.Is")
	}
	if err.Error() != "[filesystem:warning] write page: permission denied" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestWithContextDoesNotMutate(t *testing.T) {
	base := ConfigError("bad").WithContext("field", "websiteID").Build()
	derived := base.WithContext("plugin", "simple-analytics")

	if _, ok := base.Context().Get("plugin"); ok {
		t.Error("base context must not change")
	}
	if v, _ := derived.Context().GetString("plugin"); v != "simple-analytics" {
		t.Errorf("expected plugin context on derived error, got %q", v)
	}
	if !errors.Is(derived, base) {
		t.Error("derived error should match base by category and message")
	}
}
