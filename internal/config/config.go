package config

// Config is the normalized site configuration produced by Validate.
// A Config is never mutated after validation; each build starts from a fresh one.
type Config struct {
	Title      string
	Social     []SocialLink
	Sidebar    []NavEntry
	Plugins    []PluginSpec
	ContentDir string
	Server     ServerConfig
	Blocks     BlocksConfig
}

// SocialLink is an icon link rendered in the site header.
type SocialLink struct {
	Icon  string `yaml:"icon" json:"icon"`
	Label string `yaml:"label" json:"label"`
	Href  string `yaml:"href" json:"href"`
}

// ServerConfig carries settings handed through to the generator's dev server.
type ServerConfig struct {
	Port int
}

// BlocksConfig controls how the markdown block registry is assembled.
type BlocksConfig struct {
	OnDuplicate DuplicatePolicy
}

// NavEntryKind tags the variant held by a NavEntry.
type NavEntryKind string

const (
	// NavSlug references a single content document.
	NavSlug NavEntryKind = "slug"
	// NavAutogenerate derives a section from a content directory.
	NavAutogenerate NavEntryKind = "autogenerate"
	// NavLink is an external or absolute link with no backing document.
	NavLink NavEntryKind = "link"
	// NavGroup is a manually declared section with explicit items.
	NavGroup NavEntryKind = "group"
)

// NavEntry is a user-declared sidebar item. Which fields are meaningful depends on Kind.
type NavEntry struct {
	Kind      NavEntryKind
	Label     string
	Slug      string
	Link      string
	Directory string
	HideEmpty bool
	Items     []NavEntry
}

// PluginSpec names a plugin and the options passed to it.
// The activation position of a plugin is its index in Config.Plugins.
type PluginSpec struct {
	Name    string
	Options map[string]any
}

// DuplicatePolicy decides what happens when two block definitions share a key.
type DuplicatePolicy string

const (
	// DuplicateLastWins keeps the definition registered last.
	DuplicateLastWins DuplicatePolicy = "last-wins"
	// DuplicateFirstWins keeps the definition registered first.
	DuplicateFirstWins DuplicatePolicy = "first-wins"
	// DuplicateFatal fails the build on any duplicate.
	DuplicateFatal DuplicatePolicy = "fatal"
)

// IsValid reports whether p is one of the known policies.
func (p DuplicatePolicy) IsValid() bool {
	switch p {
	case DuplicateLastWins, DuplicateFirstWins, DuplicateFatal:
		return true
	default:
		return false
	}
}

const (
	// DefaultContentDir matches the conventional Starlight content location.
	DefaultContentDir = "src/content/docs"
	// DefaultPort is the dev server port handed to the generator.
	DefaultPort = 4322
	// DefaultDuplicatePolicy is applied when blocks.onDuplicate is omitted.
	DefaultDuplicatePolicy = DuplicateLastWins
)

// Raw converts the config back into the generic shape accepted by Validate.
// Validate(c.Raw()) yields a Config equal to c.
func (c *Config) Raw() map[string]any {
	raw := map[string]any{
		"title":      c.Title,
		"contentDir": c.ContentDir,
		"server":     map[string]any{"port": c.Server.Port},
		"blocks":     map[string]any{"onDuplicate": string(c.Blocks.OnDuplicate)},
	}
	if len(c.Social) > 0 {
		social := make([]any, 0, len(c.Social))
		for _, s := range c.Social {
			social = append(social, map[string]any{"icon": s.Icon, "label": s.Label, "href": s.Href})
		}
		raw["social"] = social
	}
	if len(c.Sidebar) > 0 {
		raw["sidebar"] = rawEntries(c.Sidebar)
	}
	if len(c.Plugins) > 0 {
		plugins := make([]any, 0, len(c.Plugins))
		for _, p := range c.Plugins {
			m := map[string]any{"name": p.Name}
			if len(p.Options) > 0 {
				m["options"] = p.Options
			}
			plugins = append(plugins, m)
		}
		raw["plugins"] = plugins
	}
	return raw
}

func rawEntries(entries []NavEntry) []any {
	out := make([]any, 0, len(entries))
	for _, e := range entries {
		m := map[string]any{}
		if e.Label != "" {
			m["label"] = e.Label
		}
		switch e.Kind {
		case NavSlug:
			m["slug"] = e.Slug
		case NavLink:
			m["link"] = e.Link
		case NavAutogenerate:
			auto := map[string]any{"directory": e.Directory}
			if e.HideEmpty {
				auto["hideEmpty"] = true
			}
			m["autogenerate"] = auto
		case NavGroup:
			m["items"] = rawEntries(e.Items)
		}
		out = append(out, m)
	}
	return out
}
