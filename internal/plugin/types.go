package plugin

import (
	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/sitekit/internal/blocks"
	"git.home.luguber.info/inful/sitekit/internal/config"
)

// PluginType identifies the category of plugin.
type PluginType string

const (
	// PluginTypeTheme supplies the site's look and may extend the color palette.
	PluginTypeTheme PluginType = "theme"

	// PluginTypeIntegration contributes content structure: blocks, navigation, renderer hooks.
	PluginTypeIntegration PluginType = "integration"
)

// IsValid returns true if the plugin type is recognized.
func (t PluginType) IsValid() bool {
	switch t {
	case PluginTypeTheme, PluginTypeIntegration:
		return true
	default:
		return false
	}
}

// String returns the string representation of the plugin type.
func (t PluginType) String() string {
	return string(t)
}

// Theme is the theme selection handed to the site generator.
type Theme struct {
	Name   string         `yaml:"name" json:"name"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// ThemeProvider selects the site theme. At most one per build.
type ThemeProvider interface {
	Plugin
	Theme() Theme
}

// PaletteContributor adds colors that block definitions may use.
type PaletteContributor interface {
	Plugin
	Palette() []blocks.Color
}

// BlockContributor registers custom Markdown blocks.
type BlockContributor interface {
	Plugin
	Blocks() []blocks.Definition
}

// NavContributor appends entries after the configured sidebar.
type NavContributor interface {
	Plugin
	NavEntries() []config.NavEntry
}

// RendererHook extends the Markdown renderer.
type RendererHook interface {
	Plugin
	Extensions() []goldmark.Extender
}

// PluginCapability names one capability interface.
type PluginCapability string

const (
	CapabilityTheme    PluginCapability = "theme"
	CapabilityPalette  PluginCapability = "palette"
	CapabilityBlocks   PluginCapability = "blocks"
	CapabilityNav      PluginCapability = "nav"
	CapabilityRenderer PluginCapability = "renderer"
)

// String returns the string representation of the capability.
func (c PluginCapability) String() string {
	return string(c)
}

// Capabilities lists the capability interfaces p implements, in a fixed order.
func Capabilities(p Plugin) []PluginCapability {
	var caps []PluginCapability
	if _, ok := p.(ThemeProvider); ok {
		caps = append(caps, CapabilityTheme)
	}
	if _, ok := p.(PaletteContributor); ok {
		caps = append(caps, CapabilityPalette)
	}
	if _, ok := p.(BlockContributor); ok {
		caps = append(caps, CapabilityBlocks)
	}
	if _, ok := p.(NavContributor); ok {
		caps = append(caps, CapabilityNav)
	}
	if _, ok := p.(RendererHook); ok {
		caps = append(caps, CapabilityRenderer)
	}
	return caps
}
