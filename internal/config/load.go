package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned by Load when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// Load reads a YAML configuration file, expands environment variables in it and validates it.
//
// Variables from .env and .env.local are loaded first; variables already present in the
// process environment are never overridden.
func Load(configPath string, opts ...ValidateOption) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	raw, err := Decode([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	return Validate(raw, opts...)
}

// Decode parses YAML configuration text into the generic shape accepted by Validate.
func Decode(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func loadEnvFiles() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			slog.Warn("Failed to load env file", "path", envPath, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", envPath)
	}
}

// Init writes an example configuration file to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	data, err := yaml.Marshal(Example().Raw())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Example returns a complete sample configuration.
func Example() *Config {
	return &Config{
		Title: "Eclipselib",
		Social: []SocialLink{
			{Icon: "github", Label: "GitHub", Href: "https://github.com/example/eclipselib"},
		},
		Sidebar: []NavEntry{
			{Kind: NavAutogenerate, Label: "Features", Directory: "features"},
			{Kind: NavAutogenerate, Label: "Simple Objects", Directory: "simple"},
			{Kind: NavAutogenerate, Label: "Advanced Objects", Directory: "advanced"},
		},
		Plugins: []PluginSpec{
			{Name: "catppuccin"},
			{Name: "markdown-blocks", Options: map[string]any{
				"blocks": map[string]any{
					"opcblock":  map[string]any{"label": "Op Control Functions", "color": "orange"},
					"autoblock": map[string]any{"label": "Autonomous Functions", "color": "blue"},
					"codeblock": map[string]any{"label": "Example", "color": "purple"},
				},
			}},
		},
		ContentDir: DefaultContentDir,
		Server:     ServerConfig{Port: DefaultPort},
		Blocks:     BlocksConfig{OnDuplicate: DefaultDuplicatePolicy},
	}
}
