// Package scanner discovers documents under a directory tree.
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

type Scanner struct {
	rootDir    string
	extensions []string
	match      func(path string) bool
}

// New creates a scanner over rootDir. Only files ending in one of
// extensions are reported; with no extensions every regular file is.
func New(rootDir string, extensions ...string) *Scanner {
	return &Scanner{
		rootDir:    rootDir,
		extensions: extensions,
	}
}

// WithFilter adds a predicate every reported path must also satisfy.
func (s *Scanner) WithFilter(match func(path string) bool) *Scanner {
	s.match = match
	return s
}

// Scan walks the tree and returns matching files sorted by path. Hidden
// directories are skipped.
func (s *Scanner) Scan() ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.Walk(s.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != s.rootDir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isTargetFile(path) {
			files = append(files, FileInfo{
				Path:    path,
				Size:    info.Size(),
				ModTime: info.ModTime(),
			})
		}
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}

// Paths returns only the paths of files.
func Paths(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func (s *Scanner) isTargetFile(path string) bool {
	if s.match != nil && !s.match(path) {
		return false
	}
	if len(s.extensions) == 0 {
		return true
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, targetExt := range s.extensions {
		if ext == strings.ToLower(targetExt) {
			return true
		}
	}
	return false
}
