package utils

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxImportPathLength bounds file paths accepted for import
const MaxImportPathLength = 1024

// ResolveImportPath returns the absolute form of path after checking that it
// lies inside root. An empty root disables path imports.
func ResolveImportPath(root, path string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("importing from file paths is disabled")
	}
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if len(path) > MaxImportPathLength {
		return "", fmt.Errorf("path exceeds maximum length of %d characters", MaxImportPathLength)
	}
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("path contains invalid characters")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid import root: %w", err)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(absRoot, path)
	}
	resolved := filepath.Clean(path)

	rel, err := filepath.Rel(absRoot, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the import root", path)
	}
	return resolved, nil
}
