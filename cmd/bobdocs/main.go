package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/stephenafamo/bobdocs/cmd/bobdocs/commands"
	"github.com/stephenafamo/bobdocs/internal/foundation/errors"
	"github.com/stephenafamo/bobdocs/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	var cli commands.CLI
	global := &commands.Global{Stdout: os.Stdout, Stderr: os.Stderr, Getenv: os.Getenv}
	parser := kong.Parse(&cli,
		kong.Name("bobdocs"),
		kong.Description("Build tooling for the Bob documentation site"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	err := parser.Run()
	stop()
	if err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
	}
}
