// Package compose runs the configured plugins in order and merges their contributions
// with the configured sidebar into one ResolvedBuildConfig.
//
// Composition is all-or-nothing: the first plugin that fails stops the pipeline and no
// partial result is returned.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"go.uber.org/multierr"

	"git.home.luguber.info/inful/sitekit/internal/blocks"
	"git.home.luguber.info/inful/sitekit/internal/config"
	"git.home.luguber.info/inful/sitekit/internal/logfields"
	"git.home.luguber.info/inful/sitekit/internal/metrics"
	"git.home.luguber.info/inful/sitekit/internal/navigation"
	"git.home.luguber.info/inful/sitekit/internal/plugin"
)

// ErrThemeConflict is wrapped when a second plugin tries to select the theme.
var ErrThemeConflict = errors.New("theme already selected")

// Option configures Compose.
type Option func(*composer)

// WithCatalog resolves plugin names against c instead of plugin.DefaultCatalog().
func WithCatalog(c *plugin.Catalog) Option {
	return func(cp *composer) {
		if c != nil {
			cp.catalog = c
		}
	}
}

// WithBaseDir resolves a relative content directory against dir.
func WithBaseDir(dir string) Option {
	return func(cp *composer) { cp.baseDir = dir }
}

// WithRecorder sends stage metrics to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(cp *composer) {
		if r != nil {
			cp.recorder = r
		}
	}
}

// WithLogger sets the logger. Every record carries the build id.
func WithLogger(l *slog.Logger) Option {
	return func(cp *composer) {
		if l != nil {
			cp.logger = l
		}
	}
}

// WithNavigationOptions passes extra options to the navigation builder.
func WithNavigationOptions(opts ...navigation.Option) Option {
	return func(cp *composer) { cp.navOpts = append(cp.navOpts, opts...) }
}

// WithPort overrides the configured server port in the result.
func WithPort(port int) Option {
	return func(cp *composer) {
		if port > 0 {
			cp.port = port
		}
	}
}

type composer struct {
	catalog  *plugin.Catalog
	baseDir  string
	recorder metrics.Recorder
	logger   *slog.Logger
	navOpts  []navigation.Option
	port     int
}

// contribution is what the plugin stage accumulates before any registry or tree exists.
type contribution struct {
	theme      *plugin.Theme
	themeOwner int
	palette    []blocks.Color
	defs       []blocks.Definition
	entries    []config.NavEntry
	entryPaths []string
	extensions []goldmark.Extender
	names      []string
}

// Compose executes each plugin of cfg in declared order and assembles the result.
//
// A plugin that is unknown, rejects its options or contributes an invalid block fails
// the build with a *PluginCompositionError. Under the fatal duplicate policy every
// conflicting key is reported, each attributed to the later plugin. Navigation errors
// are collected across all sidebar entries and returned together.
func Compose(ctx context.Context, cfg *config.Config, opts ...Option) (*ResolvedBuildConfig, error) {
	cp := &composer{
		catalog:  plugin.DefaultCatalog(),
		baseDir:  ".",
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(cp)
	}
	if cfg == nil {
		return nil, errors.New("compose: nil configuration")
	}
	cp.logger = cp.logger.With(logfields.BuildID(uuid.NewString()))

	start := time.Now()
	res, err := cp.compose(ctx, cfg)
	cp.recorder.ObserveComposeDuration(time.Since(start))
	switch {
	case err == nil:
		cp.recorder.IncComposeOutcome(metrics.ResultSuccess)
		cp.logger.Info("Composition completed",
			logfields.Count(len(res.plugins)),
			logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		cp.recorder.IncComposeOutcome(metrics.ResultCanceled)
	default:
		cp.recorder.IncComposeOutcome(metrics.ResultFailed)
	}
	return res, err
}

func (cp *composer) compose(ctx context.Context, cfg *config.Config) (*ResolvedBuildConfig, error) {
	var contrib *contribution
	if err := cp.stage(metrics.StagePlugins, func() error {
		var err error
		contrib, err = cp.runPlugins(cfg.Plugins)
		return err
	}); err != nil {
		return nil, err
	}
	cp.recorder.SetPluginCount(len(contrib.names))

	var registry *blocks.Registry
	if err := cp.stage(metrics.StageBlocks, func() error {
		var err error
		registry, err = cp.buildRegistry(cfg.Blocks.OnDuplicate, contrib)
		return err
	}); err != nil {
		return nil, err
	}
	cp.recorder.SetBlockCount(registry.Len())

	var tree *navigation.Tree
	if err := cp.stage(metrics.StageNavigation, func() error {
		var err error
		tree, err = cp.buildNavigation(ctx, cfg, contrib)
		return err
	}); err != nil {
		return nil, err
	}
	cp.recorder.SetNavNodes(tree.Len())

	port := cfg.Server.Port
	if cp.port > 0 {
		port = cp.port
	}
	return &ResolvedBuildConfig{
		title:      cfg.Title,
		social:     append([]config.SocialLink(nil), cfg.Social...),
		port:       port,
		theme:      contrib.theme,
		plugins:    contrib.names,
		tree:       tree,
		registry:   registry,
		extensions: contrib.extensions,
	}, nil
}

// stage times fn and records its outcome under name.
func (cp *composer) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	cp.recorder.ObserveStageDuration(name, d)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultFailed
	}
	cp.recorder.IncStageResult(name, result)
	cp.logger.Debug("Stage finished", logfields.Stage(name), logfields.DurationMS(float64(d.Microseconds())/1000))
	return err
}

func (cp *composer) runPlugins(specs []config.PluginSpec) (*contribution, error) {
	c := &contribution{themeOwner: -1}
	for i, spec := range specs {
		fail := func(err error) (*contribution, error) {
			cp.logger.Error("Plugin failed", logfields.Plugin(spec.Name), logfields.Position(i), logfields.Error(err))
			return nil, &PluginCompositionError{Name: spec.Name, Position: i, Err: err}
		}

		p, err := cp.catalog.New(spec.Name)
		if err != nil {
			return fail(err)
		}
		if err := p.Validate(spec.Options); err != nil {
			return fail(err)
		}

		if tp, ok := p.(plugin.ThemeProvider); ok {
			if c.theme != nil {
				return fail(fmt.Errorf("%w by plugins[%d] (%s)", ErrThemeConflict, c.themeOwner, specs[c.themeOwner].Name))
			}
			t := tp.Theme()
			c.theme, c.themeOwner = &t, i
		}
		if pc, ok := p.(plugin.PaletteContributor); ok {
			c.palette = append(c.palette, pc.Palette()...)
		}
		if bc, ok := p.(plugin.BlockContributor); ok {
			for _, d := range bc.Blocks() {
				d.Source, d.Position = spec.Name, i
				c.defs = append(c.defs, d)
			}
		}
		if nc, ok := p.(plugin.NavContributor); ok {
			for j, e := range nc.NavEntries() {
				c.entries = append(c.entries, e)
				c.entryPaths = append(c.entryPaths, fmt.Sprintf("plugins[%d].options.entries[%d]", i, j))
			}
		}
		if rh, ok := p.(plugin.RendererHook); ok {
			c.extensions = append(c.extensions, rh.Extensions()...)
		}

		c.names = append(c.names, spec.Name)
		cp.logger.Debug("Plugin composed", logfields.Plugin(spec.Name), logfields.Position(i),
			slog.Any("capabilities", plugin.Capabilities(p)))
	}
	return c, nil
}

func (cp *composer) buildRegistry(policy config.DuplicatePolicy, c *contribution) (*blocks.Registry, error) {
	// The palette is final only after every plugin ran, so definitions are checked here
	// rather than in the plugin stage.
	palette := blocks.NewPalette(c.palette...)
	for _, d := range c.defs {
		if err := d.Validate(palette); err != nil {
			return nil, &PluginCompositionError{Name: d.Source, Position: d.Position, Err: err}
		}
	}

	registry, err := blocks.NewRegistry(c.defs, blocks.WithPolicy(policy), blocks.WithPalette(c.palette...))
	if err != nil {
		var errs error
		for _, e := range multierr.Errors(err) {
			var dup *blocks.DuplicateBlockKeyError
			if errors.As(e, &dup) {
				e = &PluginCompositionError{Name: dup.Second, Position: dup.SecondPosition, Err: dup}
			}
			errs = multierr.Append(errs, e)
		}
		return nil, errs
	}
	for _, o := range registry.Overrides() {
		cp.logger.Info("Block definition overridden", logfields.Block(o.Key),
			slog.String("kept", o.Kept), slog.String("dropped", o.Dropped))
	}
	return registry, nil
}

func (cp *composer) buildNavigation(ctx context.Context, cfg *config.Config, c *contribution) (*navigation.Tree, error) {
	entries := make([]config.NavEntry, 0, len(cfg.Sidebar)+len(c.entries))
	paths := make([]string, 0, cap(entries))
	for i, e := range cfg.Sidebar {
		entries = append(entries, e)
		paths = append(paths, fmt.Sprintf("sidebar[%d]", i))
	}
	entries = append(entries, c.entries...)
	paths = append(paths, c.entryPaths...)

	root := cfg.ContentDir
	if !filepath.IsAbs(root) {
		root = filepath.Join(cp.baseDir, filepath.FromSlash(root))
	}
	opts := append([]navigation.Option{navigation.WithLogger(cp.logger)}, cp.navOpts...)
	opts = append(opts, navigation.WithEntryPaths(paths))

	tree, err := navigation.Build(ctx, entries, root, opts...)
	if err != nil {
		for _, e := range multierr.Errors(err) {
			cp.logger.Warn("Sidebar entry failed", logfields.Error(e))
		}
		return nil, err
	}
	return tree, nil
}
