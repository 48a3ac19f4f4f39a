package config

import (
	"os"
	"path/filepath"
	"strings"
)

// EnvVar names the environment variable holding the config path list.
const EnvVar = "ANY_SCRIPT_MCP_CONFIG"

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// Paths returns the ordered config paths. A set EnvVar is split on the
// platform list separator, dropping empty segments; an unset EnvVar yields
// the single default path.
func Paths(lookup LookupEnv) []string {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	list, ok := lookup(EnvVar)
	if !ok {
		list = DefaultPath(lookup)
	}

	return SplitList(list)
}

// SplitList splits a path list on the platform separator and drops empty
// segments.
func SplitList(list string) []string {
	var paths []string

	for _, p := range strings.Split(list, string(filepath.ListSeparator)) {
		if p != "" {
			paths = append(paths, p)
		}
	}

	return paths
}

// DefaultPath returns <config dir>/any-script-mcp/config.yaml, where the
// config dir is $XDG_CONFIG_HOME or <home>/.config.
func DefaultPath(lookup LookupEnv) string {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	dir, _ := lookup("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = ""
		}

		dir = filepath.Join(home, ".config")
	}

	return filepath.Join(dir, "any-script-mcp", "config.yaml")
}
