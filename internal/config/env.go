package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/stephenafamo/bobdocs/internal/foundation"
	"github.com/stephenafamo/bobdocs/internal/foundation/errors"
)

// envFiles are loaded in order; values already present in the process
// environment always win.
var envFiles = []string{".env", ".env.local"}

// LoadEnvFiles loads .env style files from the working directory. Missing
// files are skipped; a file that exists but cannot be parsed is an error.
func LoadEnvFiles() error {
	return loadEnvFiles(envFiles...)
}

func loadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "failed to load environment file").
				Fatal().
				WithContext("path", p).
				Build()
		}
		slog.Debug("Loaded environment variables", "path", p)
	}
	return nil
}

// BuildEnvironment distinguishes production builds from everything else.
// It is resolved once per build and passed explicitly to whatever needs it.
type BuildEnvironment string

const (
	EnvProduction    BuildEnvironment = "production"
	EnvNonProduction BuildEnvironment = "non-production"
)

// Environment variables consulted, in order, when no explicit value is given.
const (
	EnvVarBuildEnv = "BOBDOCS_ENV"
	EnvVarNodeEnv  = "NODE_ENV"
)

var buildEnvNormalizer = foundation.NewNormalizer(map[string]BuildEnvironment{
	"production":     EnvProduction,
	"prod":           EnvProduction,
	"non-production": EnvNonProduction,
	"development":    EnvNonProduction,
	"dev":            EnvNonProduction,
}, EnvNonProduction)

// IsProduction reports whether e is the production environment.
func (e BuildEnvironment) IsProduction() bool {
	return e == EnvProduction
}

func (e BuildEnvironment) String() string {
	return string(e)
}

// ResolveEnvironment picks the build environment from an explicit value
// (typically a CLI flag), then BOBDOCS_ENV, then NODE_ENV. Anything that is
// not recognised as production is non-production.
func ResolveEnvironment(explicit string, getenv func(string) string) BuildEnvironment {
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, raw := range []string{explicit, getenv(EnvVarBuildEnv), getenv(EnvVarNodeEnv)} {
		if raw != "" {
			return buildEnvNormalizer.Normalize(raw)
		}
	}
	return EnvNonProduction
}
