package index

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const dbFileName = "index.db"

// DefaultDir returns the per-user cache directory for the index database.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "prsentry"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "prsentry"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "prsentry", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "prsentry", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "prsentry"), nil
	}
}

// DBPath returns the index database path inside dir, creating dir.
func DBPath(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating index directory: %w", err)
	}
	return filepath.Join(dir, dbFileName), nil
}

// Remove deletes the index database in dir. A missing database is not an
// error.
func Remove(dir string) error {
	base := filepath.Join(dir, dbFileName)
	for _, p := range []string{base, base + "-wal", base + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}
	return nil
}
