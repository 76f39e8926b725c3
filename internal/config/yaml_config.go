package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultProfiles are the built-in extractor flag profiles.
var DefaultProfiles = map[string][]string{
	"json":     {"-j"},
	"grouped":  {"-j", "-G", "-all"},
	"exif":     {"-j", "-G", "-EXIF:*"},
	"iptc_xmp": {"-j", "-G", "-IPTC:*", "-XMP:*"},
	"families": {"-j", "-G", "-EXIF:*", "-IPTC:*", "-XMP:*"},
}

// YAMLConfig represents the structure of the config.yaml file.
// Flag lists are easier to manage in YAML than in env vars.
type YAMLConfig struct {
	Profiles map[string][]string `yaml:"profiles"` // profile name -> extractor flags
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "config.yaml".
// A missing file yields the built-in profiles.
func LoadYAMLConfig() (*YAMLConfig, error) {
	return LoadYAMLConfigFile(getEnv("CONFIG_FILE", "config.yaml"))
}

// LoadYAMLConfigFile loads path and merges its profiles over the defaults.
func LoadYAMLConfigFile(path string) (*YAMLConfig, error) {
	cfg := &YAMLConfig{Profiles: make(map[string][]string, len(DefaultProfiles))}
	for name, flags := range DefaultProfiles {
		cfg.Profiles[name] = append([]string(nil), flags...)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return cfg, nil
		}
		return nil, err
	}

	var file YAMLConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for name, flags := range file.Profiles {
		cfg.Profiles[name] = flags
	}

	return cfg, nil
}

// ProfileFlags returns the extractor flags for a named profile.
func (c *YAMLConfig) ProfileFlags(name string) ([]string, error) {
	if c == nil {
		return nil, fmt.Errorf("unknown extractor profile %q", name)
	}
	flags, ok := c.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown extractor profile %q (known: %v)", name, c.ProfileNames())
	}
	return flags, nil
}

// ProfileNames returns the sorted profile names.
func (c *YAMLConfig) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
