package compose

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitekit/internal/blocks"
	"git.home.luguber.info/inful/sitekit/internal/config"
	"git.home.luguber.info/inful/sitekit/internal/markdown"
	"git.home.luguber.info/inful/sitekit/internal/navigation"
	"git.home.luguber.info/inful/sitekit/internal/plugin"
)

// Format selects the encoding of a resolved configuration.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ResolvedBuildConfig is the outcome of one composition. It is never modified after
// Compose returns; accessors hand out copies.
type ResolvedBuildConfig struct {
	title      string
	social     []config.SocialLink
	port       int
	theme      *plugin.Theme
	plugins    []string
	tree       *navigation.Tree
	registry   *blocks.Registry
	extensions []goldmark.Extender
}

// Title returns the site title.
func (r *ResolvedBuildConfig) Title() string { return r.title }

// Social returns the header links in declared order.
func (r *ResolvedBuildConfig) Social() []config.SocialLink {
	return append([]config.SocialLink(nil), r.social...)
}

// Port returns the dev server port handed to the generator.
func (r *ResolvedBuildConfig) Port() int { return r.port }

// Theme returns the theme selected by a theme plugin, if any.
func (r *ResolvedBuildConfig) Theme() (plugin.Theme, bool) {
	if r.theme == nil {
		return plugin.Theme{}, false
	}
	return *r.theme, true
}

// Plugins returns the names of the composed plugins in activation order.
func (r *ResolvedBuildConfig) Plugins() []string {
	return append([]string(nil), r.plugins...)
}

// Tree returns the navigation tree.
func (r *ResolvedBuildConfig) Tree() *navigation.Tree { return r.tree }

// Nav returns the nested sidebar consumed by the site generator.
func (r *ResolvedBuildConfig) Nav() []navigation.Item { return r.tree.Items() }

// Registry returns the block registry.
func (r *ResolvedBuildConfig) Registry() *blocks.Registry { return r.registry }

// Blocks returns the key to definition mapping.
func (r *ResolvedBuildConfig) Blocks() map[string]blocks.Definition { return r.registry.Map() }

// Markdown returns a goldmark instance that renders the registered blocks and every
// renderer extension contributed by plugins.
func (r *ResolvedBuildConfig) Markdown() goldmark.Markdown {
	return markdown.New(r.registry, r.extensions...)
}

// Server is the serialized server section.
type Server struct {
	Port int `yaml:"port" json:"port"`
}

// Document is the serialized form of a ResolvedBuildConfig.
type Document struct {
	Title   string                       `yaml:"title" json:"title"`
	Social  []config.SocialLink          `yaml:"social,omitempty" json:"social,omitempty"`
	Server  Server                       `yaml:"server" json:"server"`
	Theme   *plugin.Theme                `yaml:"theme,omitempty" json:"theme,omitempty"`
	Plugins []string                     `yaml:"plugins,omitempty" json:"plugins,omitempty"`
	Nav     []navigation.Item            `yaml:"nav" json:"nav"`
	Blocks  map[string]blocks.Definition `yaml:"blocks" json:"blocks"`
}

// Document returns the serializable view.
func (r *ResolvedBuildConfig) Document() Document {
	doc := Document{
		Title:   r.title,
		Social:  r.Social(),
		Server:  Server{Port: r.port},
		Plugins: r.Plugins(),
		Nav:     r.Nav(),
		Blocks:  r.Blocks(),
	}
	if doc.Nav == nil {
		doc.Nav = []navigation.Item{}
	}
	if t, ok := r.Theme(); ok {
		doc.Theme = &t
	}
	return doc
}

// Marshal encodes the resolved configuration. Map keys are emitted in sorted order by
// both encoders, so equal configurations encode to equal bytes.
func (r *ResolvedBuildConfig) Marshal(format Format) ([]byte, error) {
	doc := r.Document()
	switch format {
	case FormatYAML, "":
		out, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return out, nil
	case FormatJSON:
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return append(out, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// Fingerprint digests the serialized configuration together with the content
// fingerprint of every page, so an edit to any referenced document changes it.
func (r *ResolvedBuildConfig) Fingerprint() string {
	h := sha256.New()
	data, err := json.Marshal(r.Document())
	if err == nil {
		_, _ = h.Write(data)
	}
	r.tree.Walk(func(id navigation.NodeID, _ int) {
		n := r.tree.Node(id)
		if n.Kind == navigation.KindPage {
			_, _ = h.Write([]byte(n.Source + "\x00" + n.Fingerprint + "\x00"))
		}
	})
	return hex.EncodeToString(h.Sum(nil))
}
