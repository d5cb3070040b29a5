package conf

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "filetools"

// GetDefaultConfigPaths returns the directories searched for config.yaml, most specific first
func GetDefaultConfigPaths() []string {
	paths := []string{"."}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, appName))
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", appName))
	}
	if runtime.GOOS != "windows" {
		paths = append(paths, filepath.Join("/etc", appName))
	}

	return dedupe(paths)
}

// DefaultConfigFile returns where `config init` writes when no path is given
func DefaultConfigFile() string {
	paths := GetDefaultConfigPaths()
	if len(paths) > 1 {
		return filepath.Join(paths[1], "config.yaml")
	}
	return "config.yaml"
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := paths[:0]
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
