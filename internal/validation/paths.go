package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PrepareDataFile cleans path, expands a leading ~/ and makes sure the parent
// directory exists with owner-only permissions. The credential store lives in
// such a file, so group and world access is never granted.
func PrepareDataFile(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("path contains a NUL byte")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	path = filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}

	return path, nil
}
