// Package config loads docmatch settings from defaults, a YAML file, flags and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AppName names the configuration directory and file.
const AppName = "docmatch"

// ExpandPath resolves a leading ~ and $VAR references in a document or config path.
func ExpandPath(path string) string {
	switch {
	case path == "":
		return path
	case path == "~", strings.HasPrefix(path, "~/"):
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}

// SearchPaths lists the directories scanned for config.yaml, most specific first:
// $XDG_CONFIG_HOME/docmatch, ~/.config/docmatch, then the working directory.
func SearchPaths() ([]string, error) {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, AppName))
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	home = filepath.Join(home, ".config", AppName)
	if len(paths) == 0 || paths[0] != home {
		paths = append(paths, home)
	}

	return append(paths, "."), nil
}
