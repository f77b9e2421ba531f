// Package pathutil resolves user-supplied paths.
package pathutil

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// Expand resolves environment variables and "~/" home shortcuts.
func Expand(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}

	expanded := os.ExpandEnv(trimmed)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") {
		home, err := Home()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		expanded = filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(expanded, "~"), "/"))
	}

	return filepath.Clean(expanded), nil
}

// InHome joins name onto the user's home directory.
func InHome(name string) (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, name), nil
}

// Home returns a fully resolved home directory, trying $HOME, the user
// database and finally the raw environment.
func Home() (string, error) {
	resolved := func(p string) bool {
		return p != "" && p != "~" && !strings.HasPrefix(p, "~/")
	}

	if home, err := os.UserHomeDir(); err == nil && resolved(strings.TrimSpace(home)) {
		return strings.TrimSpace(home), nil
	}
	if current, err := user.Current(); err == nil && resolved(strings.TrimSpace(current.HomeDir)) {
		return strings.TrimSpace(current.HomeDir), nil
	}

	envHome := strings.TrimSpace(os.Getenv("HOME"))
	if envHome == "" {
		return "", fmt.Errorf("HOME is not set")
	}
	if !resolved(envHome) {
		return "", fmt.Errorf("HOME is not fully resolved: %s", envHome)
	}
	return envHome, nil
}
