package sink

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gnolang/tgrep/internal/match"
)

// CSV writes one row per record under a header row.
type CSV struct {
	w       *csv.Writer
	closers []io.Closer
}

// NewCSV writes the header to w immediately.
func NewCSV(w io.Writer) (*CSV, error) {
	s := &CSV{w: csv.NewWriter(w)}
	if err := s.w.Write(match.Header()); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	return s, nil
}

func (s *CSV) Write(records []match.Record) error {
	for _, r := range records {
		if err := s.w.Write(r.Row()); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	s.w.Flush()
	return s.w.Error()
}

// Close flushes pending rows and closes the underlying writers.
func (s *CSV) Close() error {
	s.w.Flush()
	err := s.w.Error()
	if cerr := closeAll(s.closers); err == nil {
		err = cerr
	}
	return err
}
