package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func concat(c *Cursor) []string {
	out := c.Previous()
	if c.Started() {
		out = append(out, c.Current())
	}
	return append(out, c.Upcoming()...)
}

func TestCursor_BeforeFirstAdvance(t *testing.T) {
	t.Parallel()
	c := New("a", "b")
	assert.False(t, c.Started())
	assert.Equal(t, "", c.Current())
	assert.Nil(t, c.Behind(3))
	assert.Equal(t, []string{"a", "b"}, c.Ahead(5))
	assert.Equal(t, 0, c.Consumed())
}

func TestCursor_AdvanceKeepsInvariant(t *testing.T) {
	t.Parallel()
	input := []string{"the", "quick", "brown", "fox", "jumps"}
	c := New(input...)

	for i := range input {
		require.True(t, c.HasNext())
		require.NoError(t, c.Advance())
		assert.Equal(t, input[i], c.Current())
		assert.Equal(t, input[:i], c.Previous())
		assert.Equal(t, input[i+1:], c.Upcoming())
		assert.Equal(t, input, concat(c))
		assert.Equal(t, i+1, c.Consumed())
	}

	assert.False(t, c.HasNext())
	assert.ErrorIs(t, c.Advance(), ErrExhausted)
	assert.Equal(t, "jumps", c.Current(), "a failed advance leaves the cursor unchanged")
	assert.Equal(t, input, concat(c))
}

func TestCursor_EmptyInput(t *testing.T) {
	t.Parallel()
	c := New()
	assert.False(t, c.HasNext())
	assert.ErrorIs(t, c.Advance(), ErrExhausted)
	assert.Empty(t, concat(c))
}

func TestCursor_Windows(t *testing.T) {
	t.Parallel()
	c := New("a", "b", "c", "d", "e", "f")
	for i := 0; i < 4; i++ {
		require.NoError(t, c.Advance())
	}
	require.Equal(t, "d", c.Current())

	tests := []struct {
		n      int
		behind []string
		ahead  []string
	}{
		{0, nil, nil},
		{-1, nil, nil},
		{1, []string{"c"}, []string{"e"}},
		{2, []string{"b", "c"}, []string{"e", "f"}},
		{10, []string{"a", "b", "c"}, []string{"e", "f"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.behind, c.Behind(tt.n), "behind %d", tt.n)
		assert.Equal(t, tt.ahead, c.Ahead(tt.n), "ahead %d", tt.n)
	}
}

func TestCursor_WindowsAreCopies(t *testing.T) {
	t.Parallel()
	c := New("a", "b", "c")
	require.NoError(t, c.Advance())
	require.NoError(t, c.Advance())

	behind := c.Behind(1)
	behind[0] = "mutated"
	ahead := c.Ahead(1)
	ahead[0] = "mutated"

	assert.Equal(t, []string{"a"}, c.Behind(1))
	assert.Equal(t, []string{"c"}, c.Ahead(1))
}

func TestCursor_ResetContinuesAcrossPages(t *testing.T) {
	t.Parallel()
	c := New("p1a", "p1b")
	for c.HasNext() {
		require.NoError(t, c.Advance())
	}

	c.Reset([]string{"p2a", "p2b"})
	assert.Equal(t, "p1b", c.Current(), "reset keeps the current token")
	assert.Equal(t, []string{"p1a"}, c.Previous())

	require.NoError(t, c.Advance())
	assert.Equal(t, "p2a", c.Current())
	assert.Equal(t, []string{"p1a", "p1b"}, c.Behind(5))
	assert.Equal(t, []string{"p2b"}, c.Ahead(5))
}

func TestCursor_ResetDiscardsUnvisited(t *testing.T) {
	t.Parallel()
	c := New("a", "b", "c")
	require.NoError(t, c.Advance())
	c.Reset([]string{"x"})
	assert.Equal(t, []string{"x"}, c.Upcoming())

	require.NoError(t, c.Advance())
	assert.Equal(t, "x", c.Current())
	assert.Equal(t, []string{"a"}, c.Previous())
	assert.Equal(t, 2, c.Consumed(), "consumed counts across resets")

	c.Reset(nil)
	assert.False(t, c.HasNext())
	assert.ErrorIs(t, c.Advance(), ErrExhausted)
}

func TestCursor_ClearHistory(t *testing.T) {
	t.Parallel()
	c := New("a", "b", "c", "d")
	require.NoError(t, c.Advance())
	require.NoError(t, c.Advance())

	c.ClearHistory()
	assert.Nil(t, c.Behind(5))
	assert.Equal(t, "b", c.Current())
	assert.Equal(t, []string{"c", "d"}, c.Ahead(5), "look-ahead survives a history clear")

	require.NoError(t, c.Advance())
	assert.Equal(t, []string{"b"}, c.Behind(5))
}
