package fileutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/giantswarm/demoup/internal/sentinel"
)

// ErrNotDirectory is returned by RequireDir when the path exists but is not a directory.
const ErrNotDirectory = sentinel.Error("not a directory")

// ErrIsDirectory is returned by RequireFile when the path is a directory.
const ErrIsDirectory = sentinel.Error("is a directory")

// EnsureDir creates a directory and all parent directories if they don't exist.
// Uses mode 0755. Returns nil if directory already exists.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// EnsureDirForFile creates the parent directory of filePath if it does not
// already exist.
func EnsureDirForFile(filePath string) error {
	if err := EnsureDir(filepath.Dir(filePath)); err != nil {
		return fmt.Errorf("ensure dir for %s: %w", filePath, err)
	}
	return nil
}

// RequireDir reports whether path is an existing directory. A missing path
// yields an error matching os.ErrNotExist; a regular file yields ErrNotDirectory.
func RequireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}
	return nil
}

// RequireFile reports whether path is an existing non-directory file. A
// missing path yields an error matching os.ErrNotExist; a directory yields
// ErrIsDirectory.
func RequireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s: %w", path, ErrIsDirectory)
	}
	return nil
}
