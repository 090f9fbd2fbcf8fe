// Package adapter contains infrastructure adapters for the covmut CLI.
package adapter

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	m "gooze.dev/pkg/covmut/internal/model"
)

// FSAdapter abstracts the filesystem operations the domain layer relies on so
// the workflow logic can be tested without touching the real layout.
type FSAdapter interface {
	// ReadFile loads a file from disk and returns its contents.
	ReadFile(ctx context.Context, path m.Path) ([]byte, error)

	// WriteFile writes content to a file, creating parent directories.
	WriteFile(ctx context.Context, path m.Path, content []byte, perm os.FileMode) error

	// Exists reports whether path exists.
	Exists(ctx context.Context, path m.Path) (bool, error)

	// Remove deletes a file. A missing file is not an error.
	Remove(ctx context.Context, path m.Path) error

	// MkdirAll creates a directory and all missing parents.
	MkdirAll(ctx context.Context, path m.Path) error

	// ListDirs returns the immediate subdirectories of root, sorted by name.
	ListDirs(ctx context.Context, root m.Path) ([]m.Path, error)

	// JoinPath joins path elements into a single path.
	JoinPath(elem ...string) m.Path
}

// LocalFSAdapter is the os-backed FSAdapter.
type LocalFSAdapter struct{}

// NewLocalFSAdapter constructs a LocalFSAdapter.
func NewLocalFSAdapter() *LocalFSAdapter {
	return &LocalFSAdapter{}
}

// ReadFile loads file contents from disk.
func (a *LocalFSAdapter) ReadFile(ctx context.Context, path m.Path) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// #nosec G304 - paths come from CLI configuration
	return os.ReadFile(string(path))
}

// WriteFile writes content to a file with the given permissions.
func (a *LocalFSAdapter) WriteFile(ctx context.Context, path m.Path, content []byte, perm os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if dir := filepath.Dir(string(path)); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}

	return os.WriteFile(string(path), content, perm)
}

// Exists reports whether the path exists.
func (a *LocalFSAdapter) Exists(ctx context.Context, path m.Path) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(string(path))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return false, err
}

// Remove deletes a file, ignoring files that are already gone.
func (a *LocalFSAdapter) Remove(ctx context.Context, path m.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(string(path))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// MkdirAll creates the directory tree.
func (a *LocalFSAdapter) MkdirAll(ctx context.Context, path m.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return os.MkdirAll(string(path), 0o750)
}

// ListDirs returns the immediate subdirectories of root.
func (a *LocalFSAdapter) ListDirs(ctx context.Context, root m.Path) ([]m.Path, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(string(root))
	if err != nil {
		return nil, err
	}

	dirs := make([]m.Path, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, m.Path(filepath.Join(string(root), entry.Name())))
		}
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i] < dirs[j] })

	return dirs, nil
}

// JoinPath joins path elements into a single path.
func (a *LocalFSAdapter) JoinPath(elem ...string) m.Path {
	return m.Path(filepath.Join(elem...))
}
