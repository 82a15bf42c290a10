// Package match captures match records from a cursor positioned on a hit.
package match

import (
	"strconv"
	"strings"

	"github.com/gnolang/tgrep/internal/query"
)

// DefaultContext is the number of tokens kept on each side of a match.
const DefaultContext = 10

// Position locates a token inside a document. Both fields are zero-based.
type Position struct {
	Page   int `json:"page" yaml:"page"`
	Offset int `json:"offset" yaml:"offset"`
}

// Record is an immutable snapshot of one match.
type Record struct {
	Source        string   `json:"source"`
	Position      Position `json:"position"`
	MatchedToken  string   `json:"matched_token"`
	ContextBefore string   `json:"context_before"`
	ContextAfter  string   `json:"context_after"`
}

var header = []string{"source", "page", "offset", "matched_token", "context_before", "context_after"}

// Header returns the column names used by tabular sinks, in Row order.
func Header() []string {
	out := make([]string, len(header))
	copy(out, header)
	return out
}

// Row flattens the record into Header order.
func (r Record) Row() []string {
	return []string{
		r.Source,
		strconv.Itoa(r.Position.Page),
		strconv.Itoa(r.Position.Offset),
		r.MatchedToken,
		r.ContextBefore,
		r.ContextAfter,
	}
}

// Recorder builds records with a fixed amount of context.
type Recorder struct {
	context int
}

// NewRecorder returns a recorder keeping up to n tokens on each side.
// A negative n is treated as zero.
func NewRecorder(n int) *Recorder {
	return &Recorder{context: max(n, 0)}
}

// Context returns the number of context tokens kept on each side.
func (r *Recorder) Context() int {
	return r.context
}

// Capture snapshots the window's current state.
func (r *Recorder) Capture(source string, pos Position, w query.Window) Record {
	return Record{
		Source:        source,
		Position:      pos,
		MatchedToken:  w.Current(),
		ContextBefore: strings.Join(w.Behind(r.context), " "),
		ContextAfter:  strings.Join(w.Ahead(r.context), " "),
	}
}
