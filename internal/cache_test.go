package internal

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/tgrep/internal/match"
)

func sampleResult(filename string) Result {
	return Result{
		Records: []match.Record{{
			Source:        filename,
			Position:      match.Position{Page: 0, Offset: 1},
			MatchedToken:  "quick",
			ContextBefore: "the",
			ContextAfter:  "brown fox",
		}},
		Stats: Stats{Documents: 1, Pages: 1, Tokens: 4, Matches: 1, Source: filename, Offset: 3},
	}
}

func TestCache(t *testing.T) {
	tmpDir := t.TempDir()
	cacheDir := filepath.Join(tmpDir, "cache")
	cache, err := NewCache(cacheDir)
	require.NoError(t, err)

	t.Run("SaveAndLoad", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "fox.txt")
		require.NoError(t, os.WriteFile(filename, []byte("the quick brown fox"), 0o644))

		res := sampleResult(filename)
		require.NoError(t, cache.Set(filename, "(= quick)", res))

		loaded, found := cache.Get(filename, "(= quick)")
		assert.True(t, found)
		assert.Equal(t, res, loaded)

		// entries survive a reload from disk
		reopened, err := NewCache(cacheDir)
		require.NoError(t, err)
		loaded, found = reopened.Get(filename, "(= quick)")
		assert.True(t, found)
		assert.Equal(t, res, loaded)
	})

	t.Run("KeyedByQuery", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "keyed.txt")
		require.NoError(t, os.WriteFile(filename, []byte("the quick brown fox"), 0o644))
		require.NoError(t, cache.Set(filename, "(= quick)", sampleResult(filename)))

		_, found := cache.Get(filename, "(= fox)")
		assert.False(t, found)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, found := cache.Get("nonexistent.txt", "(= a)")
		assert.False(t, found)
	})

	t.Run("FileModified", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "modified.txt")
		require.NoError(t, os.WriteFile(filename, []byte("the quick brown fox"), 0o644))
		require.NoError(t, cache.Set(filename, "(= quick)", sampleResult(filename)))

		require.NoError(t, os.WriteFile(filename, []byte("the slow brown fox"), 0o644))
		later := time.Now().Add(2 * time.Second)
		require.NoError(t, os.Chtimes(filename, later, later))

		_, found := cache.Get(filename, "(= quick)")
		assert.False(t, found)
	})

	t.Run("Expired", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "expired.txt")
		require.NoError(t, os.WriteFile(filename, []byte("the quick brown fox"), 0o644))
		require.NoError(t, cache.Set(filename, "(= quick)", sampleResult(filename)))

		cache.SetMaxAge(time.Nanosecond)
		defer cache.SetMaxAge(defaultMaxAge)
		time.Sleep(time.Millisecond)

		_, found := cache.Get(filename, "(= quick)")
		assert.False(t, found)
	})

	t.Run("InvalidateAll", func(t *testing.T) {
		require.NoError(t, cache.InvalidateAll())
		assert.Equal(t, 0, cache.Len())
	})
}

func TestCache_DroppedEntriesStayDropped(t *testing.T) {
	tmpDir := t.TempDir()
	cacheDir := filepath.Join(tmpDir, "cache")
	cache, err := NewCache(cacheDir)
	require.NoError(t, err)

	kept := filepath.Join(tmpDir, "kept.txt")
	stale := filepath.Join(tmpDir, "stale.txt")
	require.NoError(t, os.WriteFile(kept, []byte("the quick brown fox"), 0o644))
	require.NoError(t, os.WriteFile(stale, []byte("the quick brown fox"), 0o644))
	require.NoError(t, cache.Set(kept, "(= quick)", sampleResult(kept)))
	require.NoError(t, cache.Set(stale, "(= quick)", sampleResult(stale)))

	require.NoError(t, os.Remove(stale))
	_, found := cache.Get(stale, "(= quick)")
	assert.False(t, found)
	assert.Equal(t, 1, cache.Len())

	reopened, err := NewCache(cacheDir)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Len(), "the dropped entry is gone from disk")
	_, found = reopened.Get(kept, "(= quick)")
	assert.True(t, found)
}

func TestCacheWithEngine(t *testing.T) {
	tmpDir := t.TempDir()
	cache, err := NewCache(filepath.Join(tmpDir, "cache"))
	require.NoError(t, err)

	engine, err := NewEngine("(= quick)", WithCache(cache))
	require.NoError(t, err)

	filename := filepath.Join(tmpDir, "fox.txt")
	require.NoError(t, os.WriteFile(filename, []byte("the quick brown fox"), 0o644))

	t.Run("CacheHit", func(t *testing.T) {
		first, err := engine.Run(filename)
		require.NoError(t, err)
		require.Len(t, first.Records, 1)
		assert.Equal(t, 1, cache.Len())

		second, err := engine.Run(filename)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("CacheMiss", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filename, []byte("quick quick"), 0o644))
		later := time.Now().Add(2 * time.Second)
		require.NoError(t, os.Chtimes(filename, later, later))

		res, err := engine.Run(filename)
		require.NoError(t, err)
		assert.Len(t, res.Records, 2)
	})

	t.Run("ContextChangesKey", func(t *testing.T) {
		wide, err := NewEngine("(= quick)", WithCache(cache), WithContext(1))
		require.NoError(t, err)
		assert.NotEqual(t, engine.cacheKey(), wide.cacheKey())
	})
}

func TestCacheConcurrency(t *testing.T) {
	tmpDir := t.TempDir()
	cache, err := NewCache(filepath.Join(tmpDir, "cache"))
	require.NoError(t, err)

	filename := filepath.Join(tmpDir, "fox.txt")
	require.NoError(t, os.WriteFile(filename, []byte("the quick brown fox"), 0o644))
	res := sampleResult(filename)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, cache.Set(filename, "(= quick)", res))
		}()
		go func() {
			defer wg.Done()
			_, _ = cache.Get(filename, "(= quick)")
		}()
	}
	wg.Wait()

	loaded, found := cache.Get(filename, "(= quick)")
	assert.True(t, found)
	assert.Equal(t, res, loaded)
}
