package plugin

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownPlugin is returned when a configured plugin name has no registered factory.
var ErrUnknownPlugin = errors.New("unknown plugin")

// Factory returns a fresh, unconfigured plugin instance.
type Factory func() Plugin

// Catalog maps plugin names to factories. Every build gets its own instances, so
// plugins may keep per-build state from Validate.
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
	metadata  map[string]PluginMetadata
}

// NewCatalog creates a new empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		factories: make(map[string]Factory),
		metadata:  make(map[string]PluginMetadata),
	}
}

// Register adds a factory to the catalog.
// Returns an error if a plugin with the same name already exists.
func (c *Catalog) Register(f Factory) error {
	if f == nil {
		return errors.New("cannot register nil plugin factory")
	}
	p := f()
	if p == nil {
		return errors.New("plugin factory returned nil")
	}

	metadata := p.Metadata()
	if err := metadata.Validate(); err != nil {
		return fmt.Errorf("invalid plugin metadata: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.factories[metadata.Name]; exists {
		return fmt.Errorf("plugin %s already registered", metadata.Name)
	}
	c.factories[metadata.Name] = f
	c.metadata[metadata.Name] = metadata
	return nil
}

// New instantiates the plugin registered under name.
func (c *Catalog) New(name string) (Plugin, error) {
	c.mu.RLock()
	f, ok := c.factories[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, name)
	}
	return f(), nil
}

// Has checks if a plugin is registered under name.
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.factories[name]
	return ok
}

// List returns the metadata of every registered plugin, sorted by name.
func (c *Catalog) List() []PluginMetadata {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]PluginMetadata, 0, len(c.metadata))
	for _, m := range c.metadata {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Count returns the number of registered plugins.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.factories)
}

// defaultCatalog holds the bundled plugins; they register themselves from init.
var defaultCatalog = NewCatalog()

// DefaultCatalog returns the catalog of bundled plugins.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

// Register adds a factory to the default catalog.
func Register(f Factory) error {
	return defaultCatalog.Register(f)
}

// MustRegister is Register for use from init; it panics on error.
func MustRegister(f Factory) {
	if err := Register(f); err != nil {
		panic(err)
	}
}
