// Package plugin defines how plugins contribute to a site build.
// A plugin implements Plugin plus any of the capability interfaces in types.go; the
// composition pipeline discovers capabilities with type assertions.
package plugin

import (
	"errors"
	"fmt"
)

// Plugin is the contract every site plugin satisfies.
type Plugin interface {
	// Metadata returns the plugin's identity.
	Metadata() PluginMetadata

	// Validate checks the options given to the plugin in the configuration and retains
	// them for the capability methods. It is called exactly once, before any capability.
	Validate(options map[string]any) error
}

// PluginMetadata describes a plugin's identity.
type PluginMetadata struct {
	// Name is the identifier used in the plugins list (e.g., "catppuccin").
	Name string

	// Version is the semantic version (e.g., "v1.0.0").
	Version string

	// Type identifies the plugin category.
	Type PluginType

	// Description provides a human-readable summary of the plugin's purpose.
	Description string
}

// String returns a human-readable representation of the plugin metadata.
func (m PluginMetadata) String() string {
	return fmt.Sprintf("%s@%s (%s)", m.Name, m.Version, m.Type)
}

// Validate checks if the plugin metadata is valid.
func (m PluginMetadata) Validate() error {
	if m.Name == "" {
		return errors.New("plugin name is required")
	}
	if m.Version == "" {
		return errors.New("plugin version is required")
	}
	if !m.Type.IsValid() {
		return fmt.Errorf("invalid plugin type: %s", m.Type)
	}
	return nil
}

// BasePlugin accepts an empty option set. Plugins without options can embed it.
type BasePlugin struct{}

// Validate rejects any option, since the embedding plugin declares none.
func (b *BasePlugin) Validate(options map[string]any) error {
	for key := range options {
		return &OptionError{Key: key, Reason: "unknown option"}
	}
	return nil
}
