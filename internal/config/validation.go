package config

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"net/url"
	"path"
	"regexp"
	"slices"
	"strings"

	"go.uber.org/multierr"

	"git.home.luguber.info/inful/sitekit/internal/logfields"
)

// SchemaError reports one invalid value, addressed by its key path
// (for example "sidebar[2].autogenerate.directory").
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// ValidateOption tunes schema validation.
type ValidateOption func(*validator)

// WithLenient ignores unknown keys instead of rejecting them.
func WithLenient() ValidateOption {
	return func(v *validator) { v.strict = false }
}

var pluginNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// Validate checks raw against the configuration schema and returns the normalized Config.
//
// Validation is strict by default: unknown keys at any level are reported. Every problem
// found is reported; the returned error combines one *SchemaError per problem and can be
// split with multierr.Errors.
func Validate(raw map[string]any, opts ...ValidateOption) (*Config, error) {
	v := &validator{strict: true}
	for _, opt := range opts {
		opt(v)
	}
	cfg := v.config(raw)
	if v.errs != nil {
		return nil, v.errs
	}
	return cfg, nil
}

// ValidateNavEntries checks a list of sidebar entries outside of a full configuration,
// as plugins do for entries they contribute. p prefixes every reported path.
func ValidateNavEntries(raw any, p string, opts ...ValidateOption) ([]NavEntry, error) {
	v := &validator{strict: true}
	for _, opt := range opts {
		opt(v)
	}
	entries := v.entries(raw, p)
	if v.errs != nil {
		return nil, v.errs
	}
	return entries, nil
}

type validator struct {
	strict bool
	errs   error
}

func (v *validator) fail(p, format string, args ...any) {
	v.errs = multierr.Append(v.errs, &SchemaError{Path: p, Reason: fmt.Sprintf(format, args...)})
}

func (v *validator) config(raw map[string]any) *Config {
	if raw == nil {
		v.fail("", "configuration is empty")
		return nil
	}
	v.checkKeys(raw, "", "title", "social", "sidebar", "plugins", "contentDir", "server", "blocks")

	cfg := &Config{
		ContentDir: DefaultContentDir,
		Server:     ServerConfig{Port: DefaultPort},
		Blocks:     BlocksConfig{OnDuplicate: DefaultDuplicatePolicy},
	}

	if title, ok := v.requiredString(raw, "", "title"); ok {
		if strings.TrimSpace(title) == "" {
			v.fail("title", "must not be empty")
		}
		cfg.Title = title
	}

	if dir, ok := v.optionalString(raw, "", "contentDir"); ok {
		if strings.TrimSpace(dir) == "" {
			v.fail("contentDir", "must not be empty")
		} else {
			cfg.ContentDir = path.Clean(dir)
		}
	}

	if val, ok := raw["social"]; ok {
		cfg.Social = v.social(val, "social")
	}
	if val, ok := raw["sidebar"]; ok {
		cfg.Sidebar = v.entries(val, "sidebar")
	}
	if val, ok := raw["plugins"]; ok {
		cfg.Plugins = v.plugins(val, "plugins")
	}
	if val, ok := raw["server"]; ok {
		v.server(val, "server", &cfg.Server)
	}
	if val, ok := raw["blocks"]; ok {
		v.blocks(val, "blocks", &cfg.Blocks)
	}
	return cfg
}

func (v *validator) social(val any, p string) []SocialLink {
	items, ok := v.list(val, p)
	if !ok {
		return nil
	}
	var links []SocialLink
	for i, item := range items {
		ip := fmt.Sprintf("%s[%d]", p, i)
		obj, ok := v.object(item, ip)
		if !ok {
			continue
		}
		v.checkKeys(obj, ip, "icon", "label", "href")
		var link SocialLink
		link.Icon, _ = v.requiredString(obj, ip, "icon")
		link.Label, _ = v.requiredString(obj, ip, "label")
		if href, ok := v.requiredString(obj, ip, "href"); ok {
			if err := checkAbsoluteURL(href); err != nil {
				v.fail(join(ip, "href"), "%v", err)
			}
			link.Href = href
		}
		links = append(links, link)
	}
	return links
}

func (v *validator) entries(val any, p string) []NavEntry {
	items, ok := v.list(val, p)
	if !ok {
		return nil
	}
	var entries []NavEntry
	for i, item := range items {
		if e, ok := v.entry(item, fmt.Sprintf("%s[%d]", p, i)); ok {
			entries = append(entries, e)
		}
	}
	return entries
}

func (v *validator) entry(val any, p string) (NavEntry, bool) {
	// A bare string is shorthand for a slug entry.
	if s, ok := val.(string); ok {
		slug, ok := v.slug(s, p)
		return NavEntry{Kind: NavSlug, Slug: slug}, ok
	}

	obj, ok := v.object(val, p)
	if !ok {
		return NavEntry{}, false
	}

	var kinds []string
	for _, k := range []string{"slug", "autogenerate", "link", "items"} {
		if _, present := obj[k]; present {
			kinds = append(kinds, k)
		}
	}
	switch len(kinds) {
	case 0:
		v.fail(p, "entry must declare one of slug, autogenerate, link or items")
		return NavEntry{}, false
	case 1:
	default:
		v.fail(p, "entry declares more than one of %s", strings.Join(kinds, ", "))
		return NavEntry{}, false
	}

	e := NavEntry{}
	switch kinds[0] {
	case "slug":
		v.checkKeys(obj, p, "slug", "label")
		e.Kind = NavSlug
		e.Label, _ = v.optionalString(obj, p, "label")
		if s, ok := v.requiredString(obj, p, "slug"); ok {
			e.Slug, _ = v.slug(s, join(p, "slug"))
		}
	case "autogenerate":
		v.checkKeys(obj, p, "autogenerate", "label")
		e.Kind = NavAutogenerate
		e.Label, _ = v.requiredString(obj, p, "label")
		ap := join(p, "autogenerate")
		if auto, ok := v.object(obj["autogenerate"], ap); ok {
			v.checkKeys(auto, ap, "directory", "hideEmpty")
			if dir, ok := v.requiredString(auto, ap, "directory"); ok {
				e.Directory, _ = v.directory(dir, join(ap, "directory"))
			}
			e.HideEmpty, _ = v.optionalBool(auto, ap, "hideEmpty")
		}
	case "link":
		v.checkKeys(obj, p, "link", "label")
		e.Kind = NavLink
		e.Label, _ = v.requiredString(obj, p, "label")
		if link, ok := v.requiredString(obj, p, "link"); ok {
			if !strings.HasPrefix(link, "/") {
				if err := checkAbsoluteURL(link); err != nil {
					v.fail(join(p, "link"), "%v", err)
				}
			}
			e.Link = link
		}
	case "items":
		v.checkKeys(obj, p, "items", "label")
		e.Kind = NavGroup
		e.Label, _ = v.requiredString(obj, p, "label")
		e.Items = v.entries(obj["items"], join(p, "items"))
	}
	return e, true
}

func (v *validator) slug(s, p string) (string, bool) {
	slug := strings.Trim(strings.TrimSpace(s), "/")
	if slug == "" {
		v.fail(p, "slug must not be empty")
		return "", false
	}
	if cleaned := path.Clean(slug); cleaned != slug || strings.HasPrefix(slug, "..") {
		v.fail(p, "slug %q is not a clean relative path", s)
		return "", false
	}
	return slug, true
}

func (v *validator) directory(dir, p string) (string, bool) {
	d := strings.Trim(strings.TrimSpace(dir), "/")
	if d == "" {
		v.fail(p, "directory must not be empty")
		return "", false
	}
	d = path.Clean(d)
	if d == ".." || strings.HasPrefix(d, "../") {
		v.fail(p, "directory %q escapes the content root", dir)
		return "", false
	}
	return d, true
}

func (v *validator) plugins(val any, p string) []PluginSpec {
	items, ok := v.list(val, p)
	if !ok {
		return nil
	}
	var specs []PluginSpec
	for i, item := range items {
		ip := fmt.Sprintf("%s[%d]", p, i)
		if name, ok := item.(string); ok {
			if v.pluginName(name, ip) {
				specs = append(specs, PluginSpec{Name: name})
			}
			continue
		}
		obj, ok := v.object(item, ip)
		if !ok {
			continue
		}
		v.checkKeys(obj, ip, "name", "options")
		spec := PluginSpec{}
		if name, ok := v.requiredString(obj, ip, "name"); ok && v.pluginName(name, join(ip, "name")) {
			spec.Name = name
		}
		if rawOpts, present := obj["options"]; present && rawOpts != nil {
			if opts, ok := v.object(rawOpts, join(ip, "options")); ok && len(opts) > 0 {
				spec.Options = make(map[string]any, len(opts))
				for k, val := range opts {
					spec.Options[k] = val
				}
			}
		}
		specs = append(specs, spec)
	}
	return specs
}

func (v *validator) pluginName(name, p string) bool {
	if !pluginNamePattern.MatchString(name) {
		v.fail(p, "invalid plugin name %q", name)
		return false
	}
	return true
}

func (v *validator) server(val any, p string, out *ServerConfig) {
	obj, ok := v.object(val, p)
	if !ok {
		return
	}
	v.checkKeys(obj, p, "port")
	raw, present := obj["port"]
	if !present {
		return
	}
	port, ok := asInt(raw)
	if !ok {
		v.fail(join(p, "port"), "expected integer, got %s", typeName(raw))
		return
	}
	if port < 1 || port > 65535 {
		v.fail(join(p, "port"), "port %d out of range 1-65535", port)
		return
	}
	out.Port = port
}

func (v *validator) blocks(val any, p string, out *BlocksConfig) {
	obj, ok := v.object(val, p)
	if !ok {
		return
	}
	v.checkKeys(obj, p, "onDuplicate")
	if s, ok := v.optionalString(obj, p, "onDuplicate"); ok {
		policy := DuplicatePolicy(strings.ToLower(strings.TrimSpace(s)))
		if !policy.IsValid() {
			v.fail(join(p, "onDuplicate"), "unknown policy %q (want last-wins, first-wins or fatal)", s)
			return
		}
		out.OnDuplicate = policy
	}
}

func (v *validator) checkKeys(obj map[string]any, p string, allowed ...string) {
	for _, k := range slices.Sorted(maps.Keys(obj)) {
		if slices.Contains(allowed, k) {
			continue
		}
		if !v.strict {
			slog.Debug("Ignoring unknown configuration key", logfields.Path(join(p, k)))
			continue
		}
		v.fail(join(p, k), "unknown key")
	}
}

func (v *validator) object(val any, p string) (map[string]any, bool) {
	obj, ok := val.(map[string]any)
	if !ok {
		v.fail(p, "expected object, got %s", typeName(val))
		return nil, false
	}
	return obj, true
}

func (v *validator) list(val any, p string) ([]any, bool) {
	items, ok := val.([]any)
	if !ok {
		v.fail(p, "expected list, got %s", typeName(val))
		return nil, false
	}
	return items, true
}

func (v *validator) requiredString(obj map[string]any, p, key string) (string, bool) {
	if _, present := obj[key]; !present {
		v.fail(join(p, key), "required")
		return "", false
	}
	return v.optionalString(obj, p, key)
}

func (v *validator) optionalString(obj map[string]any, p, key string) (string, bool) {
	raw, present := obj[key]
	if !present {
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		v.fail(join(p, key), "expected string, got %s", typeName(raw))
		return "", false
	}
	return s, true
}

func (v *validator) optionalBool(obj map[string]any, p, key string) (bool, bool) {
	raw, present := obj[key]
	if !present {
		return false, false
	}
	b, ok := raw.(bool)
	if !ok {
		v.fail(join(p, key), "expected boolean, got %s", typeName(raw))
		return false, false
	}
	return b, true
}

func checkAbsoluteURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("malformed URL %q", s)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL %q must use http or https", s)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", s)
	}
	return nil
}

func asInt(raw any) (int, bool) {
	switch n := raw.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func typeName(val any) string {
	switch val.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", val)
	}
}

func join(p, key string) string {
	if p == "" {
		return key
	}
	return p + "." + key
}
