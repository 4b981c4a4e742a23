// Package gfm provides the gfm plugin, which enables GitHub Flavored Markdown in the
// renderer: tables, strikethrough, task lists and autolinks.
package gfm

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"git.home.luguber.info/inful/sitekit/internal/plugin"
)

// Name is the identifier used in the plugins list.
const Name = "gfm"

// Plugin adds the goldmark GFM extensions.
type Plugin struct {
	plugin.BasePlugin
}

// New returns the plugin.
func New() plugin.Plugin { return &Plugin{} }

// Metadata returns the plugin metadata.
func (p *Plugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        Name,
		Version:     "v1.0.0",
		Type:        plugin.PluginTypeIntegration,
		Description: "GitHub Flavored Markdown: tables, strikethrough, task lists, autolinks",
	}
}

// Extensions implements plugin.RendererHook.
func (p *Plugin) Extensions() []goldmark.Extender {
	return []goldmark.Extender{extension.GFM}
}

func init() {
	plugin.MustRegister(New)
}
