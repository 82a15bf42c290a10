package internal

import "fmt"

// Stats counts the work done by a scan. It is owned by the caller and
// updated in place by the evaluation loop; the engine keeps no counters
// of its own.
type Stats struct {
	Documents int `json:"documents"`
	Pages     int `json:"pages"`
	Tokens    int `json:"tokens"`
	Matches   int `json:"matches"`
	Faults    int `json:"faults"`

	// position of the token evaluated last
	Source string `json:"source,omitempty"`
	Page   int    `json:"page"`
	Offset int    `json:"offset"`
}

// Add accumulates the counters of other. The position fields take
// other's values.
func (s *Stats) Add(other Stats) {
	s.Documents += other.Documents
	s.Pages += other.Pages
	s.Tokens += other.Tokens
	s.Matches += other.Matches
	s.Faults += other.Faults
	s.Source = other.Source
	s.Page = other.Page
	s.Offset = other.Offset
}

func (s Stats) String() string {
	return fmt.Sprintf("%d document(s), %d page(s), %d token(s), %d match(es), %d fault(s)",
		s.Documents, s.Pages, s.Tokens, s.Matches, s.Faults)
}
