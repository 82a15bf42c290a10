package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Watch(t *testing.T) {
	dir := t.TempDir()
	engine, err := NewEngine("(= fox)")
	require.NoError(t, err)

	type event struct {
		path string
		res  Result
		err  error
	}
	events := make(chan event, 16)
	require.NoError(t, engine.StartWatching([]string{dir}, func(path string, res Result, err error) {
		events <- event{path, res, err}
	}))
	assert.True(t, engine.IsWatching())
	assert.Error(t, engine.StartWatching([]string{dir}, nil), "second start must fail")

	// unsupported files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte("fox"), 0o644))
	path := filepath.Join(dir, "fox.txt")
	require.NoError(t, os.WriteFile(path, []byte("the quick brown fox"), 0o644))

	select {
	case ev := <-events:
		require.NoError(t, ev.err)
		assert.Equal(t, path, ev.path)
		require.Len(t, ev.res.Records, 1)
		assert.Equal(t, "fox", ev.res.Records[0].MatchedToken)
	case <-time.After(5 * time.Second):
		t.Fatal("no rescan after write")
	}

	require.NoError(t, engine.StopWatching())
	assert.False(t, engine.IsWatching())
	assert.Error(t, engine.StopWatching())
}

func TestEngine_WatchCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	engine, err := NewEngine("(= fox)")
	require.NoError(t, err)

	const delay = 300 * time.Millisecond
	events := make(chan Result, 16)
	require.NoError(t, engine.startWatching([]string{dir}, delay, func(_ string, res Result, err error) {
		assert.NoError(t, err)
		events <- res
	}))
	defer engine.StopWatching()

	path := filepath.Join(dir, "burst.txt")
	for i := 1; i <= 5; i++ {
		body := strings.Repeat("fox ", i)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}

	select {
	case res := <-events:
		assert.Len(t, res.Records, 5, "the rescan sees the last write")
	case <-time.After(5 * time.Second):
		t.Fatal("no rescan after burst")
	}

	select {
	case <-events:
		t.Fatal("burst produced more than one rescan")
	case <-time.After(3 * delay):
	}
}

func TestEngine_StopDropsPendingRescans(t *testing.T) {
	dir := t.TempDir()
	engine, err := NewEngine("(= fox)")
	require.NoError(t, err)

	events := make(chan string, 4)
	require.NoError(t, engine.startWatching([]string{dir}, time.Hour, func(path string, _ Result, _ error) {
		events <- path
	}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "late.txt"), []byte("fox"), 0o644))

	require.NoError(t, engine.StopWatching())
	assert.False(t, engine.IsWatching())
	assert.Empty(t, events)

	// the engine can watch again once stopped
	require.NoError(t, engine.StartWatching([]string{dir}, nil))
	require.NoError(t, engine.StopWatching())
}
