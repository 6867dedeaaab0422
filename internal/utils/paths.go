package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ResolvePaths resolves a list of paths relative to a base directory.
// Absolute paths are returned unchanged, relative paths are resolved
// relative to the base directory.
func ResolvePaths(paths []string, baseDir string) []string {
	if len(paths) == 0 {
		return nil
	}

	resolved := make([]string, 0, len(paths))
	for _, path := range paths {
		if filepath.IsAbs(path) {
			resolved = append(resolved, path)
		} else {
			resolved = append(resolved, filepath.Join(baseDir, path))
		}
	}
	return resolved
}

// ResolveLatest maps a directory to its lexicographically latest
// "<prefix>-*.json" file. Any other path is returned unchanged.
func ResolveLatest(path, prefix string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path, nil
	}
	matches, err := filepath.Glob(filepath.Join(path, prefix+"-*.json"))
	if err != nil {
		return "", fmt.Errorf("listing %s artifacts in %s: %w", prefix, path, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no %s-*.json in %s: %w", prefix, path, fs.ErrNotExist)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}
