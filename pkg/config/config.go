// Package config loads the YAML configuration file cmd/shparse reads its
// settings from: the default IFS and glob behavior word expansion runs
// with, and a diagnostics section (format and width). cmd/shparse applies
// IFS and nullglob; the diagnostics section is loaded but not consulted.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root of a posh config file (conventionally
// ~/.config/posh/config.yaml).
type Config struct {
	IFS         string      `yaml:"ifs"`
	NullGlob    bool        `yaml:"nullglob"`
	Diagnostics Diagnostics `yaml:"diagnostics"`
}

// Diagnostics controls how parse/expand errors are reported.
type Diagnostics struct {
	Format string `yaml:"format"` // "plain" or "json"
	Width  int    `yaml:"width"`  // 0 means "detect from the terminal"
}

// UnmarshalYAML lets diagnostics be written as a bare scalar format name
// ("diagnostics: json") in addition to the full mapping form, the way
// go-task's Var accepts either a scalar or a {sh: ...} mapping for the
// same field.
func (d *Diagnostics) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var format string
		if err := node.Decode(&format); err != nil {
			return err
		}
		d.Format = format
		return nil
	case yaml.MappingNode:
		var full struct {
			Format string `yaml:"format"`
			Width  int    `yaml:"width"`
		}
		if err := node.Decode(&full); err != nil {
			return err
		}
		d.Format, d.Width = full.Format, full.Width
		return nil
	}
	return fmt.Errorf("config: line %d: cannot unmarshal %s into diagnostics", node.Line, node.ShortTag())
}

// Default returns the configuration used when no config file is present.
func Default() Config {
	return Config{
		IFS:         " \t\n",
		Diagnostics: Diagnostics{Format: "plain"},
	}
}

// Load reads and parses the config file at path, starting from Default()
// so a partial file only overrides the fields it mentions.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %s: %w", path, err)
	}
	if cfg.IFS == "" {
		cfg.IFS = " \t\n"
	}
	if cfg.Diagnostics.Format == "" {
		cfg.Diagnostics.Format = "plain"
	}
	return cfg, nil
}
