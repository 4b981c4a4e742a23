package compose

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitekit/internal/blocks"
	"git.home.luguber.info/inful/sitekit/internal/config"
	"git.home.luguber.info/inful/sitekit/internal/metrics"
	"git.home.luguber.info/inful/sitekit/internal/navigation"
	"git.home.luguber.info/inful/sitekit/internal/plugin"
	_ "git.home.luguber.info/inful/sitekit/internal/plugin/builtin"
)

// labelPlugin contributes a single block whose label comes from its options.
type labelPlugin struct {
	name string
	def  blocks.Definition
}

func (p *labelPlugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{Name: p.name, Version: "v0.0.1", Type: plugin.PluginTypeIntegration}
}

func (p *labelPlugin) Validate(opts map[string]any) error {
	if label, ok := opts["label"].(string); ok {
		p.def.Label = label
	}
	if bad, _ := opts["fail"].(bool); bad {
		return errors.New("refusing options")
	}
	return nil
}

func (p *labelPlugin) Blocks() []blocks.Definition { return []blocks.Definition{p.def} }

func testCatalog(t *testing.T, names ...string) *plugin.Catalog {
	t.Helper()
	c := plugin.NewCatalog()
	for _, name := range names {
		require.NoError(t, c.Register(func() plugin.Plugin {
			return &labelPlugin{name: name, def: blocks.Definition{Key: "codeblock", Label: name, Color: blocks.Purple}}
		}))
	}
	return c
}

func baseConfig(policy config.DuplicatePolicy, plugins ...config.PluginSpec) *config.Config {
	return &config.Config{
		Title:      "Docs",
		Plugins:    plugins,
		ContentDir: "docs",
		Server:     config.ServerConfig{Port: config.DefaultPort},
		Blocks:     config.BlocksConfig{OnDuplicate: policy},
	}
}

func writeContent(t *testing.T, files map[string]string) string {
	t.Helper()
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "docs"), 0o755))
	for rel, content := range files {
		full := filepath.Join(base, "docs", filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}
	return base
}

func TestCompose_LastWinsKeepsLaterLabel(t *testing.T) {
	cfg := baseConfig(config.DuplicateLastWins,
		config.PluginSpec{Name: "first", Options: map[string]any{"label": "Example"}},
		config.PluginSpec{Name: "second", Options: map[string]any{"label": "Sample"}},
	)

	res, err := Compose(context.Background(), cfg,
		WithCatalog(testCatalog(t, "first", "second")), WithBaseDir(writeContent(t, nil)))
	require.NoError(t, err)

	def, ok := res.Registry().Resolve("codeblock")
	require.True(t, ok)
	assert.Equal(t, "Sample", def.Label)
	assert.Equal(t, "second", def.Source)
	assert.Equal(t, []string{"first", "second"}, res.Plugins())
}

func TestCompose_FirstWinsKeepsEarlierLabel(t *testing.T) {
	cfg := baseConfig(config.DuplicateFirstWins,
		config.PluginSpec{Name: "first", Options: map[string]any{"label": "Example"}},
		config.PluginSpec{Name: "second", Options: map[string]any{"label": "Sample"}},
	)

	res, err := Compose(context.Background(), cfg,
		WithCatalog(testCatalog(t, "first", "second")), WithBaseDir(writeContent(t, nil)))
	require.NoError(t, err)
	assert.Equal(t, "Example", res.Blocks()["codeblock"].Label)
}

func TestCompose_FatalDuplicateNamesBothPlugins(t *testing.T) {
	cfg := baseConfig(config.DuplicateFatal,
		config.PluginSpec{Name: "first"},
		config.PluginSpec{Name: "second"},
	)

	res, err := Compose(context.Background(), cfg,
		WithCatalog(testCatalog(t, "first", "second")), WithBaseDir(writeContent(t, nil)))
	require.Error(t, err)
	assert.Nil(t, res)

	var dup *blocks.DuplicateBlockKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "codeblock", dup.Key)
	assert.Equal(t, "first", dup.First)
	assert.Equal(t, "second", dup.Second)

	var pce *PluginCompositionError
	require.ErrorAs(t, err, &pce)
	assert.Equal(t, 1, pce.Position)
	assert.Equal(t, "second", pce.Name)
}

func TestCompose_FatalDuplicateFromSamePluginTwice(t *testing.T) {
	cfg := baseConfig(config.DuplicateFatal,
		config.PluginSpec{Name: "first"},
		config.PluginSpec{Name: "second", Options: map[string]any{"label": "Other"}},
		config.PluginSpec{Name: "first"},
	)

	_, err := Compose(context.Background(), cfg,
		WithCatalog(testCatalog(t, "first", "second")), WithBaseDir(writeContent(t, nil)))
	require.Error(t, err)

	var dup *blocks.DuplicateBlockKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, 0, dup.FirstPosition)
	assert.Equal(t, 1, dup.SecondPosition)

	pces := 0
	for _, e := range multierr.Errors(err) {
		var pce *PluginCompositionError
		require.ErrorAs(t, e, &pce)
		pces++
		if pce.Position == 2 {
			assert.Equal(t, "first", pce.Name)
			assert.Contains(t, e.Error(), "plugins[0] (first) and plugins[2] (first)")
		}
	}
	assert.Equal(t, 2, pces)
}

func TestCompose_PluginFailureIsAtomic(t *testing.T) {
	cfg := baseConfig(config.DuplicateLastWins,
		config.PluginSpec{Name: "first"},
		config.PluginSpec{Name: "second", Options: map[string]any{"fail": true}},
		config.PluginSpec{Name: "third"},
	)

	res, err := Compose(context.Background(), cfg,
		WithCatalog(testCatalog(t, "first", "second", "third")), WithBaseDir(writeContent(t, nil)))
	require.Error(t, err)
	assert.Nil(t, res)

	var pce *PluginCompositionError
	require.ErrorAs(t, err, &pce)
	assert.Equal(t, 1, pce.Position)
	assert.Equal(t, "second", pce.Name)
	assert.Contains(t, err.Error(), "plugins[1] (second): refusing options")
}

func TestCompose_UnknownPlugin(t *testing.T) {
	cfg := baseConfig(config.DuplicateLastWins, config.PluginSpec{Name: "nope"})

	_, err := Compose(context.Background(), cfg, WithCatalog(plugin.NewCatalog()))
	require.ErrorIs(t, err, plugin.ErrUnknownPlugin)

	var pce *PluginCompositionError
	require.ErrorAs(t, err, &pce)
	assert.Equal(t, 0, pce.Position)
}

func TestCompose_BuiltinPlugins(t *testing.T) {
	base := writeContent(t, map[string]string{
		"index.md":             "---\ntitle: Welcome\n---\n",
		"features/b.md":        "# b\n",
		"features/a.md":        "---\ntitle: Alpha\n---\n",
		"other/aboutus.md":     "---\ntitle: About us\n---\n",
		"advanced/objects.mdx": "---\nsidebar:\n  label: Objects\n---\n",
	})
	cfg := &config.Config{
		Title:      "Eclipselib",
		ContentDir: "docs",
		Server:     config.ServerConfig{Port: config.DefaultPort},
		Blocks:     config.BlocksConfig{OnDuplicate: config.DuplicateLastWins},
		Sidebar: []config.NavEntry{
			{Kind: config.NavSlug, Slug: "index"},
			{Kind: config.NavAutogenerate, Label: "Features", Directory: "features"},
			{Kind: config.NavAutogenerate, Label: "Advanced", Directory: "advanced"},
		},
		Plugins: []config.PluginSpec{
			// Blocks may use theme colors even though the theme is listed later.
			{Name: "markdown-blocks", Options: map[string]any{"blocks": map[string]any{
				"codeblock": map[string]any{"label": "Example", "color": "mauve"},
				"opcblock":  map[string]any{"label": "Op Control Functions", "color": "orange"},
			}}},
			{Name: "catppuccin"},
			{Name: "sidebar-links", Options: map[string]any{"entries": []any{"other/aboutus"}}},
			{Name: "gfm"},
		},
	}

	res, err := Compose(context.Background(), cfg, WithBaseDir(base), WithPort(9000))
	require.NoError(t, err)

	theme, ok := res.Theme()
	require.True(t, ok)
	assert.Equal(t, "catppuccin", theme.Name)
	assert.Equal(t, 9000, res.Port())
	assert.Equal(t, []string{"codeblock", "opcblock"}, res.Registry().Keys())
	assert.Equal(t, []string{"index", "features/a", "features/b", "advanced/objects", "other/aboutus"}, res.Tree().Pages())

	nav := res.Nav()
	require.Len(t, nav, 4)
	assert.Equal(t, "Welcome", nav[0].Label)
	assert.Equal(t, []string{"Alpha", "B"}, []string{nav[1].Items[0].Label, nav[1].Items[1].Label})
	assert.Equal(t, "Objects", nav[2].Items[0].Label)
	assert.Equal(t, "About us", nav[3].Label)

	var out bytes.Buffer
	require.NoError(t, res.Markdown().Convert([]byte(":::codeblock\nhello\n:::\n"), &out))
	assert.Contains(t, out.String(), `data-color="mauve"`)

	out.Reset()
	require.NoError(t, res.Markdown().Convert([]byte("| a |\n|---|\n| 1 |\n"), &out))
	assert.Contains(t, out.String(), "<table>", "renderer hooks from plugins must reach the markdown instance")
}

func TestCompose_SecondThemeFails(t *testing.T) {
	cfg := baseConfig(config.DuplicateLastWins,
		config.PluginSpec{Name: "catppuccin"},
		config.PluginSpec{Name: "catppuccin"},
	)

	_, err := Compose(context.Background(), cfg, WithBaseDir(writeContent(t, nil)))
	require.ErrorIs(t, err, ErrThemeConflict)

	var pce *PluginCompositionError
	require.ErrorAs(t, err, &pce)
	assert.Equal(t, 1, pce.Position)
}

func TestCompose_InvalidBlockColorBlamesPlugin(t *testing.T) {
	cfg := baseConfig(config.DuplicateLastWins,
		config.PluginSpec{Name: "markdown-blocks", Options: map[string]any{"blocks": map[string]any{
			"codeblock": map[string]any{"label": "Example", "color": "mauve"},
		}}},
	)

	_, err := Compose(context.Background(), cfg, WithBaseDir(writeContent(t, nil)))
	var pce *PluginCompositionError
	require.ErrorAs(t, err, &pce)
	assert.Equal(t, "markdown-blocks", pce.Name)
	assert.Contains(t, err.Error(), `color "mauve" is not in the palette`)
}

func TestCompose_CollectsNavigationErrors(t *testing.T) {
	base := writeContent(t, map[string]string{"features/a.md": "# a\n"})
	cfg := baseConfig(config.DuplicateLastWins)
	cfg.Sidebar = []config.NavEntry{
		{Kind: config.NavSlug, Slug: "other/aboutus"},
		{Kind: config.NavAutogenerate, Label: "Features", Directory: "features"},
		{Kind: config.NavAutogenerate, Label: "Simple", Directory: "simple"},
	}

	res, err := Compose(context.Background(), cfg, WithBaseDir(base))
	require.Error(t, err)
	assert.Nil(t, res)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)

	var missingPage *navigation.MissingPageError
	require.ErrorAs(t, errs[0], &missingPage)
	assert.Equal(t, "other/aboutus", missingPage.Slug)
	assert.Equal(t, "sidebar[0]", missingPage.Path)

	var missingDir *navigation.MissingDirectoryError
	require.ErrorAs(t, errs[1], &missingDir)
	assert.Equal(t, "sidebar[2]", missingDir.Path)
}

func TestResolved_MarshalAndFingerprint(t *testing.T) {
	base := writeContent(t, map[string]string{"guide/a.md": "# a\n"})
	cfg := baseConfig(config.DuplicateLastWins, config.PluginSpec{Name: "catppuccin"})
	cfg.Social = []config.SocialLink{{Icon: "github", Label: "GitHub", Href: "https://github.com/example"}}
	cfg.Sidebar = []config.NavEntry{{Kind: config.NavAutogenerate, Label: "Guide", Directory: "guide"}}

	first, err := Compose(context.Background(), cfg, WithBaseDir(base))
	require.NoError(t, err)
	second, err := Compose(context.Background(), cfg, WithBaseDir(base))
	require.NoError(t, err)
	assert.Equal(t, first.Fingerprint(), second.Fingerprint())

	data, err := first.Marshal(FormatYAML)
	require.NoError(t, err)
	var doc Document
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Equal(t, "Docs", doc.Title)
	assert.Equal(t, config.DefaultPort, doc.Server.Port)
	require.Len(t, doc.Nav, 1)
	assert.Equal(t, "guide/a", doc.Nav[0].Items[0].Slug)

	jsonData, err := first.Marshal(FormatJSON)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(jsonData), "{"))

	_, err = first.Marshal("toml")
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(base, "docs", "guide", "a.md"), []byte("# changed\n"), 0o600))
	third, err := Compose(context.Background(), cfg, WithBaseDir(base))
	require.NoError(t, err)
	assert.NotEqual(t, first.Fingerprint(), third.Fingerprint())
}

func TestCompose_RecordsMetrics(t *testing.T) {
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	cfg := baseConfig(config.DuplicateLastWins, config.PluginSpec{Name: "catppuccin"})

	_, err := Compose(context.Background(), cfg, WithBaseDir(writeContent(t, nil)), WithRecorder(rec))
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["sitekit_compose_outcomes_total"])
	assert.True(t, names["sitekit_stage_duration_seconds"])
	assert.True(t, names["sitekit_plugins"])
}
