package config

import (
	"os"
	"path/filepath"

	"github.com/subosito/gotenv"
)

// DefaultEnvFiles returns ./.env and the .env beside the running executable.
func DefaultEnvFiles() []string {
	paths := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exe), ".env"))
	}
	return paths
}

// LoadEnvFiles exports KEY=VALUE pairs from each existing file. Variables
// already present in the environment are never overwritten, so earlier files
// win over later ones. Missing files are ignored and a file reachable through
// several paths is read once.
func LoadEnvFiles(paths ...string) error {
	seen := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			continue
		}
		if seen[resolved] {
			continue
		}
		seen[resolved] = true

		if info, err := os.Stat(resolved); err != nil || info.IsDir() {
			continue
		}
		if err := gotenv.Load(resolved); err != nil {
			return err
		}
	}
	return nil
}
