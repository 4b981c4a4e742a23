package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitekit/cmd/sitekit/commands"
	foundationerrors "git.home.luguber.info/inful/sitekit/internal/foundation/errors"
	_ "git.home.luguber.info/inful/sitekit/internal/plugin/builtin"
	"git.home.luguber.info/inful/sitekit/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("sitekit"),
		kong.Description("Compose a documentation site configuration: validate it, run its plugins and resolve the sidebar."),
		kong.Vars{"version": version.String()},
		kong.UsageOnError(),
	)

	err := parser.Run(&commands.Global{Stdout: os.Stdout}, cli)
	adapter := foundationerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
	os.Exit(adapter.Report(os.Stderr, err))
}
