package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/sitekit/internal/compose"
	"git.home.luguber.info/inful/sitekit/internal/config"
	"git.home.luguber.info/inful/sitekit/internal/logfields"
	"git.home.luguber.info/inful/sitekit/internal/preview"
)

// DevCmd implements the 'dev' command. The configuration is read once; content edits
// trigger a recomposition.
type DevCmd struct {
	Port     int           `name:"port" help:"Dev server port handed to the generator (overrides server.port)"`
	Output   string        `short:"o" default:".sitekit/resolved.yaml" help:"File the resolved configuration is written to"`
	Format   string        `short:"f" enum:"yaml,json" default:"yaml" help:"Output format (yaml|json)"`
	Debounce time.Duration `default:"300ms" help:"Quiet period after the last change before recomposing"`
}

func (d *DevCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	s := &devSession{cmd: d, global: g, root: root, cfg: cfg}
	if err := s.rebuild(ctx); err != nil {
		// Keep watching: the author can fix the content without restarting.
		slog.Warn("Initial composition failed", logfields.Error(err))
	}
	return preview.Watch(ctx, contentRoot(root, cfg), s.rebuild, preview.WithDebounce(d.Debounce))
}

// devSession holds state carried between recompositions. rebuild is only ever called
// from one goroutine at a time.
type devSession struct {
	cmd    *DevCmd
	global *Global
	root   *CLI
	cfg    *config.Config

	fingerprint string
	writes      int
}

func (s *devSession) rebuild(ctx context.Context) error {
	res, err := composeSite(ctx, s.root, s.cfg, compose.WithPort(s.cmd.Port))
	if err != nil {
		return err
	}
	fp := res.Fingerprint()
	if fp == s.fingerprint {
		slog.Debug("Resolved configuration unchanged", logfields.Path(s.cmd.Output))
		return nil
	}
	data, err := encode(res, s.cmd.Format)
	if err != nil {
		return err
	}
	if err := writeOutput(s.global.stdout(), s.cmd.Output, data); err != nil {
		return err
	}
	s.fingerprint = fp
	s.writes++
	slog.Info("Resolved configuration written", logfields.Path(s.cmd.Output), slog.Int("port", res.Port()))
	return nil
}
