package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPaths returns the search order for config files. Workspace
// files win over the per-user one so a repo can carry its own pipeline.
func DefaultConfigPaths() []string {
	paths := []string{"gauntlet.yaml", ".gauntlet.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "gauntlet", "config.yaml"))
	}
	return paths
}

// Resolve loads the config from the given explicit path, or searches the
// default locations. It fills in a hostname global if none is configured.
func Resolve(explicit string) (*Config, error) {
	path, err := findConfig(explicit)
	if err != nil {
		return nil, err
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if cfg.Globals == nil {
		cfg.Globals = make(map[string]any)
	}
	if _, ok := cfg.Globals["hostname"]; !ok {
		h, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("resolving hostname: %w", err)
		}
		cfg.Globals["hostname"] = h
	}

	return cfg, nil
}

func findConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultConfigPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched %v)", DefaultConfigPaths())
}
