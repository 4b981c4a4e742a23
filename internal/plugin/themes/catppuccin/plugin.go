// Package catppuccin provides the Catppuccin theme plugin.
package catppuccin

import (
	"slices"
	"strconv"

	"git.home.luguber.info/inful/sitekit/internal/blocks"
	"git.home.luguber.info/inful/sitekit/internal/plugin"
)

// Name is the identifier used in the plugins list.
const Name = "catppuccin"

var (
	flavors = []string{"latte", "frappe", "macchiato", "mocha"}
	accents = []string{
		"rosewater", "flamingo", "pink", "mauve", "red", "maroon", "peach",
		"yellow", "green", "teal", "sky", "sapphire", "blue", "lavender",
	}
)

// Variant selects the flavor and accent for one color scheme.
type Variant struct {
	Flavor string `yaml:"flavor"`
	Accent string `yaml:"accent"`
}

type options struct {
	Dark  Variant `yaml:"dark"`
	Light Variant `yaml:"light"`
}

// Plugin applies the Catppuccin palette to the site.
type Plugin struct {
	opts options
}

// New returns the plugin with its default variants: mocha for dark, latte for light,
// both with the mauve accent.
func New() plugin.Plugin {
	return &Plugin{opts: options{
		Dark:  Variant{Flavor: "mocha", Accent: "mauve"},
		Light: Variant{Flavor: "latte", Accent: "mauve"},
	}}
}

// Metadata returns the plugin metadata for Catppuccin.
func (p *Plugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        Name,
		Version:     "v1.0.0",
		Type:        plugin.PluginTypeTheme,
		Description: "Soothing pastel theme with four flavors and fourteen accents",
	}
}

// Validate accepts `dark` and `light` variants.
func (p *Plugin) Validate(opts map[string]any) error {
	o := p.opts
	if err := plugin.DecodeOptions(opts, &o); err != nil {
		return err
	}
	if err := checkVariant("dark", o.Dark); err != nil {
		return err
	}
	if err := checkVariant("light", o.Light); err != nil {
		return err
	}
	p.opts = o
	return nil
}

// Theme returns the resolved theme selection.
func (p *Plugin) Theme() plugin.Theme {
	return plugin.Theme{
		Name: Name,
		Params: map[string]any{
			"dark":  map[string]any{"flavor": p.opts.Dark.Flavor, "accent": p.opts.Dark.Accent},
			"light": map[string]any{"flavor": p.opts.Light.Flavor, "accent": p.opts.Light.Accent},
		},
	}
}

// Palette exposes the accent names as block colors.
func (p *Plugin) Palette() []blocks.Color {
	colors := make([]blocks.Color, 0, len(accents))
	for _, a := range accents {
		colors = append(colors, blocks.Color(a))
	}
	return colors
}

func checkVariant(key string, v Variant) error {
	if !slices.Contains(flavors, v.Flavor) {
		return &plugin.OptionError{Key: key + ".flavor", Reason: "unknown flavor " + strconv.Quote(v.Flavor)}
	}
	if !slices.Contains(accents, v.Accent) {
		return &plugin.OptionError{Key: key + ".accent", Reason: "unknown accent " + strconv.Quote(v.Accent)}
	}
	return nil
}

func init() {
	plugin.MustRegister(New)
}
