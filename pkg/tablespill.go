// Package pkg is a package that provides utilities for covmut.
package pkg

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// RowCodec converts items of type T to and from CSV rows.
type RowCodec[T any] interface {
	Header() []string
	Encode(item T) []string
	Decode(row []string) (T, error)
}

// TableSpill is an append-only CSV table with a fixed header. Every appended
// row is flushed and synced before Append returns, so a crash after row N
// leaves rows 1..N intact.
type TableSpill[T any] interface {
	// Len returns the number of rows appended through this handle.
	Len() uint64
	Path() string
	Append(item T) error
	Close() error
}

type tableSpillImpl[T any] struct {
	path   string
	file   *os.File
	codec  RowCodec[T]
	mu     sync.Mutex
	length uint64
}

// OpenTableSpill opens (or creates) the table at path. The header row is
// written only when the file is absent or empty.
func OpenTableSpill[T any](path string, codec RowCodec[T]) (TableSpill[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		slog.Error("failed to create table directory", "path", path, "error", err)
		return nil, fmt.Errorf("failed to create table directory: %w", err)
	}

	// #nosec G304 - path comes from the output layout configuration
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		slog.Error("failed to open table", "path", path, "error", err)
		return nil, fmt.Errorf("failed to open table: %w", err)
	}

	spill := &tableSpillImpl[T]{
		path:  path,
		file:  file,
		codec: codec,
	}

	if err := spill.prepare(); err != nil {
		_ = file.Close()
		return nil, err
	}

	slog.Debug("opened tablespill", "path", path)

	return spill, nil
}

// prepare writes the header into an empty file, or terminates a torn last
// row so the next append starts on a fresh line.
func (f *tableSpillImpl[T]) prepare() error {
	info, err := f.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat table: %w", err)
	}

	if info.Size() == 0 {
		return f.writeRow(f.codec.Header())
	}

	last := make([]byte, 1)
	if _, err := f.file.ReadAt(last, info.Size()-1); err != nil {
		return fmt.Errorf("failed to read table tail: %w", err)
	}

	if last[0] != '\n' {
		slog.Warn("table does not end with a newline, terminating last row", "path", f.path)

		if _, err := f.file.WriteString("\n"); err != nil {
			return fmt.Errorf("failed to terminate last row: %w", err)
		}
	}

	return nil
}

func (f *tableSpillImpl[T]) writeRow(row []string) error {
	writer := csv.NewWriter(f.file)

	if err := writer.Write(row); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush row: %w", err)
	}

	if err := f.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync table: %w", err)
	}

	return nil
}

// Append implements TableSpill.
func (f *tableSpillImpl[T]) Append(item T) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return fmt.Errorf("table %s is closed", f.path)
	}

	if err := f.writeRow(f.codec.Encode(item)); err != nil {
		slog.Error("failed to append row", "path", f.path, "index", f.length, "error", err)
		return err
	}

	f.length++
	slog.Debug("appended row", "path", f.path, "index", f.length-1)

	return nil
}

// Path implements TableSpill.
func (f *tableSpillImpl[T]) Path() string {
	return f.path
}

// Len implements TableSpill.
func (f *tableSpillImpl[T]) Len() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.length
}

// RangeTable decodes the data rows of the table at path in file order. It
// only reads, so it works on tables no spill has opened. Rows the codec
// rejects are logged and left out; their number is returned. index is the
// position of the row among the data rows.
func RangeTable[T any](path string, codec RowCodec[T], fn func(index uint64, item T) error) (int, error) {
	table, err := ReadTable(path)
	if err != nil {
		return 0, err
	}

	dropped := 0

	for i, row := range table.Rows {
		item, err := codec.Decode(row)
		if err != nil {
			slog.Warn("dropping undecodable row", "path", path, "index", i, "row", row, "error", err)
			dropped++

			continue
		}

		if err := fn(uint64(i), item); err != nil {
			slog.Warn("range callback error", "path", path, "index", i, "error", err)
			return dropped, err
		}
	}

	slog.Debug("range completed", "path", path, "count", len(table.Rows), "dropped", dropped)

	return dropped, nil
}

// Close implements TableSpill.
func (f *tableSpillImpl[T]) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	err := f.file.Close()
	f.file = nil

	if err != nil {
		slog.Error("failed to close table", "path", f.path, "error", err)
		return err
	}

	slog.Debug("closed tablespill", "path", f.path, "length", f.length)

	return nil
}

// Table is a CSV file split into its header and data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the named header column.
func (t *Table) Column(name string) (int, bool) {
	for i, col := range t.Header {
		if col == name {
			return i, true
		}
	}

	return -1, false
}

// ReadTable loads a whole CSV file. A missing file yields an error wrapping
// fs.ErrNotExist; an empty file yields an empty table.
func ReadTable(path string) (*Table, error) {
	// #nosec G304 - path comes from the output layout configuration
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close table", "path", path, "error", err)
		}
	}()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	table := &Table{}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return table, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	table.Header = header

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
