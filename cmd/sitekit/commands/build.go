package commands

import (
	"context"
	"log/slog"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitekit/internal/compose"
	"git.home.luguber.info/inful/sitekit/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitekit/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekit/internal/logfields"
	"git.home.luguber.info/inful/sitekit/internal/metrics"
	"git.home.luguber.info/inful/sitekit/internal/navigation"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Output      string `short:"o" help:"Write the resolved configuration to this file instead of stdout"`
	Format      string `short:"f" enum:"yaml,json" default:"yaml" help:"Output format (yaml|json)"`
	HideEmpty   bool   `name:"hide-empty" help:"Omit every autogenerated section that has no pages"`
	MetricsFile string `name:"metrics-file" help:"Write composition metrics in Prometheus textfile format to this path"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}

	var opts []compose.Option
	if b.HideEmpty {
		opts = append(opts, compose.WithNavigationOptions(navigation.WithHideEmpty()))
	}
	if b.MetricsFile != "" {
		reg := prom.NewRegistry()
		opts = append(opts, compose.WithRecorder(metrics.NewPrometheusRecorder(reg)))
		defer func() {
			if err := metrics.WriteTextfile(b.MetricsFile, reg); err != nil {
				slog.Warn("Failed to write metrics", logfields.Path(b.MetricsFile), logfields.Error(err))
			}
		}()
	}

	res, err := composeSite(context.Background(), root, cfg, opts...)
	if err != nil {
		return err
	}
	data, err := encode(res, b.Format)
	if err != nil {
		return err
	}
	if err := writeOutput(g.stdout(), b.Output, data); err != nil {
		return err
	}
	if b.Output != "" {
		slog.Info("Resolved configuration written", logfields.Path(b.Output), slog.String("fingerprint", res.Fingerprint()))
	}
	return nil
}

// encode marshals res. The format is constrained by the command flags, so a failure
// here is internal.
func encode(res *compose.ResolvedBuildConfig, format string) ([]byte, error) {
	data, err := res.Marshal(compose.Format(format))
	if err != nil {
		return nil, foundationerrors.InternalError("encode resolved configuration").
			WithCause(err).WithContext("format", format).Build()
	}
	return data, nil
}

// composeSite runs the composition pipeline with content resolved next to the
// configuration file.
func composeSite(ctx context.Context, root *CLI, cfg *config.Config, opts ...compose.Option) (*compose.ResolvedBuildConfig, error) {
	opts = append([]compose.Option{compose.WithBaseDir(root.baseDir())}, opts...)
	res, err := compose.Compose(ctx, cfg, opts...)
	if err != nil {
		return nil, classify(err, root.Config, foundationerrors.BuildError)
	}
	return res, nil
}
