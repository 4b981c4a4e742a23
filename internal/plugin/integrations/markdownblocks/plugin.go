// Package markdownblocks provides the markdown-blocks plugin, which turns the `blocks`
// option into custom block definitions.
//
//	plugins:
//	  - name: markdown-blocks
//	    options:
//	      blocks:
//	        codeblock: {label: Example, color: purple}
package markdownblocks

import (
	"sort"

	"git.home.luguber.info/inful/sitekit/internal/blocks"
	"git.home.luguber.info/inful/sitekit/internal/plugin"
)

// Name is the identifier used in the plugins list.
const Name = "markdown-blocks"

type blockOptions struct {
	Label string `yaml:"label"`
	Color string `yaml:"color"`
	Icon  string `yaml:"icon"`
}

type options struct {
	Blocks map[string]blockOptions `yaml:"blocks"`
}

// Plugin registers the configured blocks.
type Plugin struct {
	defs []blocks.Definition
}

// New returns an unconfigured plugin.
func New() plugin.Plugin { return &Plugin{} }

// Metadata returns the plugin metadata.
func (p *Plugin) Metadata() plugin.PluginMetadata {
	return plugin.PluginMetadata{
		Name:        Name,
		Version:     "v1.0.0",
		Type:        plugin.PluginTypeIntegration,
		Description: "Custom admonition-style blocks written as :::key directives",
	}
}

// Validate decodes the block table. Keys and colors are checked by the block registry,
// which also knows the palette contributed by the theme.
func (p *Plugin) Validate(opts map[string]any) error {
	var o options
	if err := plugin.DecodeOptions(opts, &o); err != nil {
		return err
	}
	keys := make([]string, 0, len(o.Blocks))
	for key := range o.Blocks {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	defs := make([]blocks.Definition, 0, len(keys))
	for _, key := range keys {
		b := o.Blocks[key]
		if b.Label == "" {
			return &plugin.OptionError{Key: "blocks." + key + ".label", Reason: "label is required"}
		}
		if b.Color == "" {
			return &plugin.OptionError{Key: "blocks." + key + ".color", Reason: "color is required"}
		}
		defs = append(defs, blocks.Definition{
			Key:   key,
			Label: b.Label,
			Color: blocks.Color(b.Color),
			Icon:  b.Icon,
		})
	}
	p.defs = defs
	return nil
}

// Blocks returns the definitions in key order.
func (p *Plugin) Blocks() []blocks.Definition {
	return append([]blocks.Definition(nil), p.defs...)
}

func init() {
	plugin.MustRegister(New)
}
