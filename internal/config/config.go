package config

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/mitchellh/mapstructure"
)

type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

type Config struct {
	ShowTree    bool      `mapstructure:"show_tree"`
	Color       ColorMode `mapstructure:"color"`
	Prompt      string    `mapstructure:"prompt"`
	Parallelism int       `mapstructure:"parallelism"`
	LogLevel    string    `mapstructure:"log_level"`
	Listen      string    `mapstructure:"listen"`
	Audience    string    `mapstructure:"audience"`
}

func Default() *Config {
	return &Config{
		Color:    ColorAuto,
		Prompt:   "> ",
		LogLevel: "info",
	}
}

func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%q): %w", path, err)
	}
	defer f.Close()

	cfg, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Load reads YAML from r on top of the defaults. Unknown keys are rejected.
func Load(r io.Reader) (*Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}

	var raw map[string]any
	if err = yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal: %w", err)
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("mapstructure.NewDecoder: %w", err)
	}
	if err = decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("mapstructure.Decode: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color mode %q: must be one of auto, always or never", c.Color)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("invalid parallelism %d: must not be negative", c.Parallelism)
	}
	return nil
}
