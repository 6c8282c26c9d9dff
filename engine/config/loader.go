package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Default returns the embedded default configuration.
func Default() *Config {
	cfg := &Config{}
	if err := toml.Unmarshal(defaultConfig, cfg); err != nil {
		// the embedded file is part of the build
		panic(fmt.Sprintf("embedded default config is invalid: %s", err))
	}
	return cfg
}

// Load reads the TOML file at path on top of the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over cfg and validates the result.
func Parse(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return cfg.Validate()
}
