package internal

import (
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/segmentio/fasthash/fnv1a"
	"github.com/zeebo/blake3"
)

const (
	cacheFileName = "tgrep_cache.gob"
	defaultMaxAge = 24 * time.Hour
)

type fileMetadata struct {
	Hash         string
	LastModified time.Time
}

type CacheEntry struct {
	Filename     string
	Metadata     fileMetadata
	Result       Result
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Cache stores scan results per (document, query) pair on disk. An entry
// is dropped when the document's content hash or modification time
// changes, or when it is older than the maximum age.
type Cache struct {
	CacheDir string
	entries  map[uint64]CacheEntry
	mutex    sync.Mutex
	maxAge   time.Duration
}

func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cache := &Cache{
		CacheDir: cacheDir,
		entries:  make(map[uint64]CacheEntry),
		maxAge:   defaultMaxAge,
	}

	if err := cache.load(); err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}

	return cache, nil
}

func entryKey(filename, queryKey string) uint64 {
	h := fnv1a.HashString64(filename)
	h = fnv1a.AddString64(h, "\x00")
	return fnv1a.AddString64(h, queryKey)
}

func (c *Cache) load() error {
	cacheFile := filepath.Join(c.CacheDir, cacheFileName)
	file, err := os.Open(cacheFile)
	if os.IsNotExist(err) {
		return nil // first run
	}
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&c.entries); err != nil {
		return fmt.Errorf("failed to decode cache file: %w", err)
	}

	return nil
}

func (c *Cache) save() error {
	cacheFile := filepath.Join(c.CacheDir, cacheFileName)
	file, err := os.Create(cacheFile)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(c.entries); err != nil {
		return fmt.Errorf("failed to encode cache file: %w", err)
	}

	return nil
}

func (c *Cache) Set(filename, queryKey string, res Result) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	metadata, err := getFileMetadata(filename)
	if err != nil {
		return fmt.Errorf("failed to get file metadata: %w", err)
	}

	now := time.Now()
	c.entries[entryKey(filename, queryKey)] = CacheEntry{
		Filename:     filename,
		Metadata:     metadata,
		Result:       res,
		CreatedAt:    now,
		LastAccessed: now,
	}

	return c.save()
}

func (c *Cache) Get(filename, queryKey string) (Result, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	key := entryKey(filename, queryKey)
	entry, exists := c.entries[key]
	if !exists || entry.Filename != filename {
		return Result{}, false
	}

	if c.isEntryInvalid(filename, entry) {
		delete(c.entries, key)
		// on failure the stale entry is simply dropped again next time
		_ = c.save()
		return Result{}, false
	}

	entry.LastAccessed = time.Now()
	c.entries[key] = entry

	return entry.Result, true
}

// Len returns the number of entries, valid or not.
func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}

func (c *Cache) isEntryInvalid(filename string, entry CacheEntry) bool {
	if c.maxAge > 0 && time.Since(entry.CreatedAt) > c.maxAge {
		return true
	}

	currentMetadata, err := getFileMetadata(filename)
	if err != nil || !currentMetadata.LastModified.Equal(entry.Metadata.LastModified) ||
		currentMetadata.Hash != entry.Metadata.Hash {
		return true
	}

	return false
}

// SetMaxAge bounds the age of reused entries. Zero disables the bound.
func (c *Cache) SetMaxAge(duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.maxAge = duration
}

func (c *Cache) InvalidateAll() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[uint64]CacheEntry)
	return c.save()
}

func getFileMetadata(filename string) (fileMetadata, error) {
	file, err := os.Open(filename)
	if err != nil {
		return fileMetadata{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := blake3.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fileMetadata{}, fmt.Errorf("failed to calculate hash: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		return fileMetadata{}, fmt.Errorf("failed to get file info: %w", err)
	}

	return fileMetadata{
		Hash:         hex.EncodeToString(hash.Sum(nil)),
		LastModified: info.ModTime(),
	}, nil
}
