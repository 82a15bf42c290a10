// Package source loads documents from disk and splits them into pages of
// whitespace-separated tokens.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// ErrUnsupported is returned for files whose extension has no decoder.
var ErrUnsupported = errors.New("unsupported document type")

// pageBreak separates pages in plain text documents.
const pageBreak = "\f"

// Extensions lists every extension Load understands. A ".zst" file is
// decompressed and decoded by the extension in front of it.
var Extensions = []string{".txt", ".text", ".md", ".json", ".zst"}

var textExtensions = map[string]bool{
	".txt":  true,
	".text": true,
	".md":   true,
}

// Document is the token content of one source file.
type Document struct {
	Source string
	Pages  [][]string
}

// Tokens returns the number of tokens over all pages.
func (d Document) Tokens() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p)
	}
	return n
}

// Supported reports whether Load can decode path.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".zst" {
		ext = strings.ToLower(filepath.Ext(strings.TrimSuffix(path, filepath.Ext(path))))
	}
	return textExtensions[ext] || ext == ".json"
}

// Load reads and decodes the document at path.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	pages, err := decode(path, data)
	if err != nil {
		return Document{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return Document{Source: path, Pages: pages}, nil
}

// Decode decodes data as if it had been read from a file called name.
func Decode(name string, data []byte) (Document, error) {
	pages, err := decode(name, data)
	if err != nil {
		return Document{}, err
	}
	return Document{Source: name, Pages: pages}, nil
}

func decode(name string, data []byte) ([][]string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == ".zst":
		raw, err := decompress(data)
		if err != nil {
			return nil, err
		}
		return decode(strings.TrimSuffix(name, filepath.Ext(name)), raw)
	case ext == ".json":
		return parseJSON(data)
	case textExtensions[ext]:
		return SplitPages(string(data)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return raw, nil
}

// SplitPages splits text on form feeds and tokenizes every page. Empty
// pages are kept so page numbers stay aligned with the source.
func SplitPages(text string) [][]string {
	parts := strings.Split(text, pageBreak)
	pages := make([][]string, len(parts))
	for i, p := range parts {
		pages[i] = Tokenize(p)
	}
	return pages
}

// Tokenize splits text on whitespace. It never returns empty tokens.
func Tokenize(text string) []string {
	return strings.Fields(text)
}
