// Package config loads the debuginfod-find configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath overrides the default config file location.
	EnvConfigPath = "DEBUGINFOD_FIND_CONFIG"

	// EnvURLs overrides the configured server list.
	EnvURLs = "DEBUGINFOD_FIND_URLS"

	// EnvLibrary overrides the configured engine library path.
	EnvLibrary = "DEBUGINFOD_FIND_LIBRARY"

	configDir  = "debuginfod-find"
	configFile = "config.yaml"
)

// Config holds the persistent defaults of the debuginfod-find CLI. Flags
// override everything here; the engine-facing DEBUGINFOD_URLS variable is
// separate and read by the engine itself.
type Config struct {
	// URLs is the server list installed for queries, overriding whatever
	// DEBUGINFOD_URLS carries.
	URLs []string `yaml:"urls"`

	// Headers are custom HTTP headers attached to every outgoing request,
	// each in "Name: value" form.
	Headers []string `yaml:"headers"`

	// Progress enables the transfer progress meter by default.
	Progress bool `yaml:"progress"`

	// Verbose enables engine diagnostics by default.
	Verbose bool `yaml:"verbose"`

	// LibraryPath points at a nonstandard libdebuginfod location.
	LibraryPath string `yaml:"library_path"`
}

// Path returns the config file location: the EnvConfigPath override when
// set, otherwise config.yaml under the user's config directory. The second
// return is false when no location can be resolved (no override and no home
// directory), which callers treat as "defaults only".
func Path() (string, bool) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, true
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(base, configDir, configFile), true
}

// Load reads the config file at path, or the resolved default location when
// path is empty. A missing file is not an error: defaults are returned, with
// environment overrides applied on top either way.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		resolved, ok := Path()
		if !ok {
			MergeFromEnv(cfg)
			return cfg, nil
		}
		path = resolved
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		MergeFromEnv(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	MergeFromEnv(cfg)
	return cfg, nil
}

// MergeFromEnv applies environment variable overrides onto cfg.
func MergeFromEnv(cfg *Config) {
	if v := os.Getenv(EnvURLs); v != "" {
		cfg.URLs = strings.Fields(v)
	}
	if v := os.Getenv(EnvLibrary); v != "" {
		cfg.LibraryPath = v
	}
}
