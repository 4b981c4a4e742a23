package commands

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/sitekit/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitekit/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekit/internal/logfields"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	slog.Info("Initializing configuration", logfields.Path(root.Config), slog.Bool("force", i.Force))
	if err := config.Init(root.Config, i.Force); err != nil {
		return classify(err, root.Config, foundationerrors.ConfigError)
	}
	_, _ = fmt.Fprintf(g.stdout(), "Wrote %s\n", root.Config)
	return nil
}
