package commands

import (
	"fmt"

	"github.com/stephenafamo/bobdocs/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	g.init()
	return RunInit(g, root.Config, i.Force)
}

func RunInit(g *Global, configPath string, force bool) error {
	_, _ = fmt.Fprintf(g.Stdout, "Writing configuration to %s\n", configPath)
	if err := config.WriteDefault(configPath, force); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.Stdout, "Set %s (in the environment or .env) before building\n", "BOBDOCS_WEBSITE_ID")
	return nil
}
