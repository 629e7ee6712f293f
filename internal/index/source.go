package index

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const maxSourceFileBytes = 1 << 20

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"__pycache__":  true,
}

// LoadSource reads the codebase text at path. A regular file is read as is
// (a pre-built codebase dump); a directory is walked and every text file is
// concatenated under a "File:" header in lexical order.
func LoadSource(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("reading codebase: %w", err)
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading codebase: %w", err)
		}
		return string(data), nil
	}

	var b strings.Builder
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil || fi.Size() > maxSourceFileBytes {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("reading %s: %w", p, err)
		}
		if bytes.IndexByte(data, 0) >= 0 {
			return nil
		}
		rel, _ := filepath.Rel(path, p)
		fmt.Fprintf(&b, "File: %s\n%s\n\n", filepath.ToSlash(rel), data)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walking codebase: %w", err)
	}
	return b.String(), nil
}

// Fingerprint identifies a codebase text together with its split parameters.
func Fingerprint(text string, size, overlap int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d:%d:", size, overlap)
	h.Write([]byte(text))
	return fmt.Sprintf("%x", h.Sum(nil))
}
