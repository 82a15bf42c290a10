// Package sink persists match records: CSV and JSON files, optionally
// zstd-compressed, and SQLite databases.
package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/gnolang/tgrep/internal/match"
)

// ErrUnsupported is returned by Open for paths it has no sink for.
var ErrUnsupported = errors.New("unsupported output format")

// Sink receives match records in batches. Write may be called any number
// of times before Close.
type Sink interface {
	Write(records []match.Record) error
	Close() error
}

// NewRunID returns a fresh identifier for one search run.
func NewRunID() string {
	return uuid.New().String()
}

// Open creates the sink matching the extension of path. A trailing .zst
// compresses CSV and JSON output. runID is only recorded by SQLite sinks.
func Open(path, runID string) (Sink, error) {
	name, compress := strings.CutSuffix(path, ".zst")
	ext := strings.ToLower(filepath.Ext(name))

	switch ext {
	case ".db", ".sqlite":
		if compress {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
		}
		return OpenSQLite(path, runID)
	case ".csv", ".json":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	var w io.Writer = f
	closers := []io.Closer{f}
	if compress {
		enc, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		w = enc
		closers = []io.Closer{enc, f}
	}

	if ext == ".csv" {
		s, err := NewCSV(w)
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		s.closers = closers
		return s, nil
	}
	s := NewJSON(w)
	s.closers = closers
	return s, nil
}

// closeAll closes in order and returns the first error.
func closeAll(closers []io.Closer) error {
	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
