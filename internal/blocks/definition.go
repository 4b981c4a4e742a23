// Package blocks holds the registry of custom Markdown block directives.
//
// Each definition maps a directive key used in content (`:::codeblock`) to the
// admonition it renders as: a label, a color from the build palette and an optional icon.
// The registry is assembled once per build and is read-only afterwards.
package blocks

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Color is a palette entry name.
type Color string

// Base palette available to every build. Theme plugins may add more.
const (
	Gray   Color = "gray"
	Red    Color = "red"
	Orange Color = "orange"
	Yellow Color = "yellow"
	Green  Color = "green"
	Blue   Color = "blue"
	Purple Color = "purple"
	Pink   Color = "pink"
)

// BasePalette lists the colors every build accepts.
var BasePalette = []Color{Gray, Red, Orange, Yellow, Green, Blue, Purple, Pink}

// Definition describes one custom block directive.
type Definition struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
	Color Color  `yaml:"color" json:"color"`
	Icon  string `yaml:"icon,omitempty" json:"icon,omitempty"`
	// Source names the plugin that contributed the definition.
	Source string `yaml:"source,omitempty" json:"source,omitempty"`
	// Position is the index of that plugin in the plugins list. Two instances of the
	// same plugin differ only here.
	Position int `yaml:"-" json:"-"`
}

// Origin names the contributing plugin and its position, e.g. "plugins[1] (markdown-blocks)".
func (d Definition) Origin() string {
	return fmt.Sprintf("plugins[%d] (%s)", d.Position, d.Source)
}

var keyPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// Validate checks the definition against palette.
func (d Definition) Validate(palette Palette) error {
	if !keyPattern.MatchString(d.Key) {
		return fmt.Errorf("invalid block key %q: must match %s", d.Key, keyPattern)
	}
	if strings.TrimSpace(d.Label) == "" {
		return fmt.Errorf("block %q: label is required", d.Key)
	}
	if !palette.Has(d.Color) {
		return fmt.Errorf("block %q: color %q is not in the palette (%s)", d.Key, d.Color, palette)
	}
	return nil
}

// Palette is the closed set of colors accepted in a build.
type Palette map[Color]struct{}

// NewPalette builds a palette from the base colors plus extra.
func NewPalette(extra ...Color) Palette {
	p := make(Palette, len(BasePalette)+len(extra))
	for _, c := range BasePalette {
		p[c] = struct{}{}
	}
	for _, c := range extra {
		p[c] = struct{}{}
	}
	return p
}

// Has reports whether c is in the palette.
func (p Palette) Has(c Color) bool {
	_, ok := p[c]
	return ok
}

// Colors returns the palette sorted by name.
func (p Palette) Colors() []Color {
	out := make([]Color, 0, len(p))
	for c := range p {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p Palette) String() string {
	names := make([]string, 0, len(p))
	for _, c := range p.Colors() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}
