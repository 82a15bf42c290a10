// Package cursor implements a one-directional window over a token stream.
package cursor

import (
	"errors"

	"github.com/edwingeng/deque"
)

// ErrExhausted is returned by Advance when no upcoming tokens are left.
var ErrExhausted = errors.New("cursor: no upcoming tokens")

// Cursor holds the current token, every token consumed before it and the
// tokens still to come. previous, current and upcoming concatenated always
// equal the tokens fed to the cursor, minus any history cleared or
// upcoming tokens replaced by Reset.
//
// A Cursor is owned by a single evaluation loop and is not safe for
// concurrent use.
type Cursor struct {
	current  string
	started  bool
	previous []string
	upcoming deque.Deque
	consumed int
}

// New returns a cursor positioned before the first of tokens.
func New(tokens ...string) *Cursor {
	c := &Cursor{upcoming: deque.NewDeque()}
	c.push(tokens)
	return c
}

func (c *Cursor) push(tokens []string) {
	for _, t := range tokens {
		c.upcoming.PushBack(t)
	}
}

// Advance moves the current token into the history and makes the next
// upcoming token current.
func (c *Cursor) Advance() error {
	if c.upcoming.Empty() {
		return ErrExhausted
	}
	if c.started {
		c.previous = append(c.previous, c.current)
	}
	c.current = c.upcoming.PopFront().(string)
	c.started = true
	c.consumed++
	return nil
}

// HasNext reports whether Advance would succeed.
func (c *Cursor) HasNext() bool {
	return !c.upcoming.Empty()
}

// Started reports whether Advance has succeeded at least once. Before
// that Current returns the empty string.
func (c *Cursor) Started() bool {
	return c.started
}

// Current returns the token under the cursor.
func (c *Cursor) Current() string {
	return c.current
}

// Consumed returns how many tokens Advance has moved onto since the
// cursor was created.
func (c *Cursor) Consumed() int {
	return c.consumed
}

// Behind returns up to n tokens before the current one, oldest first.
func (c *Cursor) Behind(n int) []string {
	if n <= 0 || len(c.previous) == 0 {
		return nil
	}
	start := max(len(c.previous)-n, 0)
	out := make([]string, len(c.previous)-start)
	copy(out, c.previous[start:])
	return out
}

// Ahead returns up to n tokens after the current one.
func (c *Cursor) Ahead(n int) []string {
	if n <= 0 || c.upcoming.Empty() {
		return nil
	}
	out := make([]string, 0, min(n, c.upcoming.Len()))
	c.upcoming.Range(func(i int, v deque.Elem) bool {
		if i >= n {
			return false
		}
		out = append(out, v.(string))
		return true
	})
	return out
}

// Previous returns a copy of the whole history.
func (c *Cursor) Previous() []string {
	out := make([]string, len(c.previous))
	copy(out, c.previous)
	return out
}

// Upcoming returns a copy of every token not yet visited.
func (c *Cursor) Upcoming() []string {
	out := make([]string, 0, c.upcoming.Len())
	c.upcoming.Range(func(_ int, v deque.Elem) bool {
		out = append(out, v.(string))
		return true
	})
	return out
}

// Reset replaces the upcoming tokens, keeping the current token and the
// history. This is how a new page of the same document is fed in.
func (c *Cursor) Reset(tokens []string) {
	c.upcoming = deque.NewDeque()
	c.push(tokens)
}

// ClearHistory forgets every token before the current one. Upcoming
// tokens are kept.
func (c *Cursor) ClearHistory() {
	c.previous = nil
}
