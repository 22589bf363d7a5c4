package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/stephenafamo/bobdocs/internal/config"
	"github.com/stephenafamo/bobdocs/internal/logfields"
)

// Global is shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"bobdocs.yaml" env:"BOBDOCS_CONFIG"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text|json)" default:"text" enum:"text,json"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Inject plugin tags into a rendered site and write the build report"`
	Check CheckCmd `cmd:"" help:"Validate the configuration and plugin options without touching the site"`
	Watch WatchCmd `cmd:"" help:"Rebuild whenever the configuration or rendered pages change"`
	Init  InitCmd  `cmd:"" help:"Write the default site configuration"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply(g *Global) error {
	g.init()

	rawLevel := g.Getenv(config.EnvVarLogLevel)
	level, levelErr := config.ParseLogLevel(rawLevel)
	if levelErr != nil {
		level = config.LogLevelInfo
	}
	if c.Verbose {
		level = config.LogLevelDebug
	}
	g.Logger = config.NewLogger(g.stderr(), level, config.NormalizeLogFormat(c.LogFormat))
	slog.SetDefault(g.Logger)
	if levelErr != nil && rawLevel != "" {
		g.Logger.Warn("Ignoring unknown log level", slog.String("env", config.EnvVarLogLevel), slog.String("value", rawLevel))
	}
	return nil
}

func (g *Global) init() {
	if g.Stdout == nil {
		g.Stdout = os.Stdout
	}
	if g.Getenv == nil {
		g.Getenv = os.Getenv
	}
	if g.Logger == nil {
		g.Logger = slog.Default()
	}
}

func (g *Global) stderr() io.Writer {
	if g.Stderr == nil {
		return os.Stderr
	}
	return g.Stderr
}

// loadConfig loads the configuration and resolves the build environment.
// The environment is read here, once, and passed down explicitly.
func loadConfig(g *Global, root *CLI, envFlag string) (*config.Config, config.BuildEnvironment, error) {
	g.init()
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, "", err
	}
	env := config.ResolveEnvironment(envFlag, g.Getenv)
	g.Logger.Debug("Loaded configuration",
		logfields.Config(root.Config),
		logfields.Environment(env.String()),
		slog.Any("plugins", cfg.PluginNames()))
	return cfg, env, nil
}

// ResolveOutputDir picks the rendered site directory: the CLI flag when
// given, otherwise output.directory from the configuration.
func ResolveOutputDir(cliOutput string, cfg *config.Config) string {
	if cliOutput != "" {
		return cliOutput
	}
	return cfg.Output.Directory
}
