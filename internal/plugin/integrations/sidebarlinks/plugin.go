// Package sidebarlinks provides the sidebar-links plugin, which appends extra sidebar
// entries after the configured sidebar. Entries use the same schema as `sidebar`.
package sidebarlinks

import (
	"git.home.luguber.info/inful/sitekit/internal/config"
	"git.home.luguber.info/inful/sitekit/internal/plugin"
)

// Name is the identifier used in the plugins list.
const Name = "sidebar-links"

// Plugin contributes navigation entries.
type Plugin struct {
	entries []config.NavEntry
}

// New returns an unconfigured plugin.
func New() plugin.Plugin { return &Plugin{} }

// Metadata returns the plugin metadata.
func (p *Plugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        Name,
		Version:     "v1.0.0",
		Type:        plugin.PluginTypeIntegration,
		Description: "Extra sidebar entries appended after the configured sidebar",
	}
}

// Validate requires an `entries` list.
func (p *Plugin) Validate(opts map[string]any) error {
	for key := range opts {
		if key != "entries" {
			return &plugin.OptionError{Key: key, Reason: "unknown option"}
		}
	}
	raw, ok := opts["entries"]
	if !ok {
		return &plugin.OptionError{Key: "entries", Reason: "entries is required"}
	}
	entries, err := config.ValidateNavEntries(raw, "entries")
	if err != nil {
		return err
	}
	p.entries = entries
	return nil
}

// NavEntries returns the validated entries.
func (p *Plugin) NavEntries() []config.NavEntry {
	return append([]config.NavEntry(nil), p.entries...)
}

func init() {
	plugin.MustRegister(New)
}
