package adapter

import (
	"context"
	"fmt"
	"log/slog"

	m "gooze.dev/pkg/covmut/internal/model"
)

// SelectorFile is the single-class handoff file read by the external tool.
// It is process-wide state: one writer, overwritten before every invocation
// and released once the run ends.
type SelectorFile interface {
	Path() m.Path
	Write(ctx context.Context, class m.ClassID) error
	Release(ctx context.Context) error
}

type selectorFile struct {
	fs   FSAdapter
	path m.Path
}

// NewSelectorFile binds a selector file to path.
func NewSelectorFile(fs FSAdapter, path m.Path) SelectorFile {
	return &selectorFile{fs: fs, path: path}
}

func (s *selectorFile) Path() m.Path {
	return s.path
}

// Write replaces the file content with class.
func (s *selectorFile) Write(ctx context.Context, class m.ClassID) error {
	if err := s.fs.WriteFile(ctx, s.path, []byte(class), 0o600); err != nil {
		return fmt.Errorf("write selector file %s: %w", s.path, err)
	}

	return nil
}

// Release deletes the file if present.
func (s *selectorFile) Release(ctx context.Context) error {
	if err := s.fs.Remove(ctx, s.path); err != nil {
		slog.Error("Failed to remove selector file", "path", s.path, "error", err)
		return fmt.Errorf("remove selector file %s: %w", s.path, err)
	}

	slog.Debug("Released selector file", "path", s.path)

	return nil
}
