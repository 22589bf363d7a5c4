package commands

// Plugins register themselves with the default registry.
import (
	_ "github.com/stephenafamo/bobdocs/internal/plugin/analytics"
	_ "github.com/stephenafamo/bobdocs/internal/plugin/tailwind"
)
