package blocks

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"git.home.luguber.info/inful/sitekit/internal/config"
)

// DuplicateBlockKeyError is returned under the fatal policy when two definitions share a key.
type DuplicateBlockKeyError struct {
	Key            string
	First          string
	FirstPosition  int
	Second         string
	SecondPosition int
}

func (e *DuplicateBlockKeyError) Error() string {
	return fmt.Sprintf("block key %q registered by both plugins[%d] (%s) and plugins[%d] (%s)",
		e.Key, e.FirstPosition, e.First, e.SecondPosition, e.Second)
}

// Override records a duplicate that was resolved by policy instead of failing. Kept
// and Dropped are definition origins.
type Override struct {
	Key     string
	Kept    string
	Dropped string
}

// Option configures NewRegistry.
type Option func(*options)

type options struct {
	policy config.DuplicatePolicy
	extra  []Color
}

// WithPolicy selects the duplicate key policy. The default is last-wins.
func WithPolicy(p config.DuplicatePolicy) Option {
	return func(o *options) {
		if p != "" {
			o.policy = p
		}
	}
}

// WithPalette extends the base palette with extra colors.
func WithPalette(colors ...Color) Option {
	return func(o *options) { o.extra = append(o.extra, colors...) }
}

// Registry is an immutable lookup table of block definitions.
type Registry struct {
	defs      map[string]Definition
	palette   Palette
	overrides []Override
}

// NewRegistry registers defs in order and applies the duplicate policy uniformly.
//
// Invalid definitions and, under the fatal policy, every duplicate key are reported
// together. On error no registry is returned.
func NewRegistry(defs []Definition, opts ...Option) (*Registry, error) {
	o := options{policy: config.DefaultDuplicatePolicy}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.policy.IsValid() {
		return nil, fmt.Errorf("unknown duplicate policy %q", o.policy)
	}

	r := &Registry{defs: make(map[string]Definition, len(defs)), palette: NewPalette(o.extra...)}
	var errs error
	for _, d := range defs {
		if err := d.Validate(r.palette); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		prev, exists := r.defs[d.Key]
		if !exists {
			r.defs[d.Key] = d
			continue
		}
		switch o.policy {
		case config.DuplicateFatal:
			errs = multierr.Append(errs, &DuplicateBlockKeyError{
				Key:   d.Key,
				First: prev.Source, FirstPosition: prev.Position,
				Second: d.Source, SecondPosition: d.Position,
			})
		case config.DuplicateFirstWins:
			r.overrides = append(r.overrides, Override{Key: d.Key, Kept: prev.Origin(), Dropped: d.Origin()})
		case config.DuplicateLastWins:
			r.overrides = append(r.overrides, Override{Key: d.Key, Kept: d.Origin(), Dropped: prev.Origin()})
			r.defs[d.Key] = d
		}
	}
	if errs != nil {
		return nil, errs
	}
	return r, nil
}

// Resolve returns the definition registered for key.
func (r *Registry) Resolve(key string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	d, ok := r.defs[key]
	return d, ok
}

// Len returns the number of registered keys.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.defs)
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, 0, len(r.defs))
	for k := range r.defs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Definitions returns every definition sorted by key.
func (r *Registry) Definitions() []Definition {
	keys := r.Keys()
	out := make([]Definition, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.defs[k])
	}
	return out
}

// Map returns a copy of the key to definition mapping.
func (r *Registry) Map() map[string]Definition {
	out := make(map[string]Definition, r.Len())
	if r == nil {
		return out
	}
	for k, d := range r.defs {
		out[k] = d
	}
	return out
}

// Palette returns the palette the registry was validated against.
func (r *Registry) Palette() Palette { return r.palette }

// Overrides lists duplicates resolved by the first-wins or last-wins policy, in registration order.
func (r *Registry) Overrides() []Override {
	return append([]Override(nil), r.overrides...)
}
