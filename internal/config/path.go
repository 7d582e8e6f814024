package config

import (
	"os"
	"path/filepath"
)

// DefaultConfigPath returns the first existing config file among the
// conventional locations, or "" when none exists (defaults apply).
func DefaultConfigPath() string {
	var candidates []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, "serialflo", "config.yaml"))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		candidates = append(candidates, filepath.Join(home, ".serialflo", "config.yaml"))
	}
	candidates = append(candidates, "/etc/serialflo/config.yaml")
	for _, c := range candidates {
		if isFile(c) {
			return c
		}
	}
	return ""
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
