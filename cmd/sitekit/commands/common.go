// Package commands implements the sitekit subcommands.
package commands

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitekit/internal/compose"
	"git.home.luguber.info/inful/sitekit/internal/config"
	foundationerrors "git.home.luguber.info/inful/sitekit/internal/foundation/errors"
	"git.home.luguber.info/inful/sitekit/internal/navigation"
)

// Global carries process-level dependencies into every command.
type Global struct {
	Stdout io.Writer
}

func (g *Global) stdout() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitekit.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Lenient bool             `help:"Ignore unknown configuration keys instead of rejecting them"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Compose the site and write the resolved build configuration"`
	Dev     DevCmd     `cmd:"" help:"Compose the site and recompose whenever content changes"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Check   CheckCmd   `cmd:"" help:"Validate configuration and content without writing output"`
	Plugins PluginsCmd `cmd:"" help:"List available plugins and their capabilities"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)})))
	return nil
}

// parseLogLevel honours -v first, then SITEKIT_LOG_LEVEL (debug, info, warn, error).
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("SITEKIT_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// baseDir is the directory relative content paths are resolved against: the directory
// holding the configuration file.
func (c *CLI) baseDir() string {
	return filepath.Dir(c.Config)
}

// loadConfig loads and validates the configuration named by --config.
func (c *CLI) loadConfig() (*config.Config, error) {
	var opts []config.ValidateOption
	if c.Lenient {
		opts = append(opts, config.WithLenient())
	}
	cfg, err := config.Load(c.Config, opts...)
	if err != nil {
		return nil, classify(err, c.Config, foundationerrors.ConfigError)
	}
	return cfg, nil
}

// classify maps component errors onto CLI error categories. Errors of no known kind
// are built with fallback.
func classify(err error, configPath string, fallback func(string) *foundationerrors.ErrorBuilder) error {
	if err == nil {
		return nil
	}
	var (
		schemaErr  *config.SchemaError
		pluginErr  *compose.PluginCompositionError
		pageErr    *navigation.MissingPageError
		dirErr     *navigation.MissingDirectoryError
		docErr     *navigation.DocumentError
		classified *foundationerrors.ClassifiedError
	)
	switch {
	case errors.As(err, &classified):
		return err
	case errors.Is(err, config.ErrConfigNotFound):
		return foundationerrors.NotFoundError("configuration file not found").
			WithCause(err).WithContext("config", configPath).Build()
	// Plugin options may carry schema errors of their own, so plugin attribution wins.
	case errors.As(err, &pluginErr):
		return foundationerrors.PluginError("plugin composition failed").
			WithCause(err).WithContext("plugin", pluginErr.Name).Build()
	case errors.As(err, &schemaErr):
		return foundationerrors.ValidationError("configuration is invalid").
			WithCause(err).WithContext("config", configPath).Build()
	case errors.As(err, &pageErr), errors.As(err, &dirErr), errors.As(err, &docErr):
		return foundationerrors.DocsError("sidebar could not be resolved").WithCause(err).Build()
	case errors.Is(err, os.ErrPermission):
		return foundationerrors.FileSystemError("file access denied").WithCause(err).Build()
	default:
		return fallback("configuration could not be processed").
			WithCause(err).WithContext("config", configPath).Build()
	}
}

// writeOutput writes data to path atomically, or to w when path is empty or "-".
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return foundationerrors.FileSystemError("create output directory").WithCause(err).Build()
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return foundationerrors.FileSystemError("write output").WithCause(err).Build()
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return foundationerrors.FileSystemError("write output").WithCause(err).Build()
	}
	return nil
}
