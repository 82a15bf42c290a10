package internal

import (
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/tevino/abool/v2"
	"go.uber.org/zap"

	"github.com/gnolang/tgrep/internal/cursor"
	"github.com/gnolang/tgrep/internal/match"
	"github.com/gnolang/tgrep/internal/query"
	"github.com/gnolang/tgrep/internal/source"
)

var _ query.Window = (*cursor.Cursor)(nil)

// ErrInvalidToken marks a token that is not valid UTF-8.
var ErrInvalidToken = errors.New("token is not valid UTF-8")

// Result is what a scan of one document produces.
type Result struct {
	Records []match.Record
	Stats   Stats
}

// Engine evaluates one compiled query over documents. The predicate and
// recorder are immutable, so Run and ScanPages may be called from
// several goroutines; each call owns its cursor.
type Engine struct {
	expr      string
	predicate query.Predicate
	recorder  *match.Recorder
	logger    *zap.Logger
	cache     *Cache

	watchMu  sync.Mutex
	watching *abool.AtomicBool
	watch    *watchState
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for evaluation faults and watch events.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithContext sets how many tokens each record keeps on either side.
func WithContext(n int) Option {
	return func(e *Engine) { e.recorder = match.NewRecorder(n) }
}

// WithCache reuses results for documents that did not change.
func WithCache(c *Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// NewEngine compiles expr. Compile errors are returned as is and no
// engine is created.
func NewEngine(expr string, opts ...Option) (*Engine, error) {
	pred, err := query.Compile(expr)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		expr:      expr,
		predicate: pred,
		recorder:  match.NewRecorder(match.DefaultContext),
		logger:    zap.NewNop(),
		watching:  abool.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Expression returns the source text of the query.
func (e *Engine) Expression() string { return e.expr }

// Predicate returns the compiled query.
func (e *Engine) Predicate() query.Predicate { return e.predicate }

// Context returns the number of context tokens per side.
func (e *Engine) Context() int { return e.recorder.Context() }

// cacheKey identifies this query in the result cache.
func (e *Engine) cacheKey() string {
	return fmt.Sprintf("%s\x00%d", e.predicate.String(), e.recorder.Context())
}

// Run loads the document at path and scans it.
func (e *Engine) Run(path string) (Result, error) {
	if e.cache != nil {
		if res, ok := e.cache.Get(path, e.cacheKey()); ok {
			e.logger.Debug("cache hit", zap.String("path", path))
			return res, nil
		}
	}

	doc, err := source.Load(path)
	if err != nil {
		return Result{}, err
	}

	res := e.RunDocument(doc)

	if e.cache != nil {
		if err := e.cache.Set(path, e.cacheKey(), res); err != nil {
			e.logger.Warn("failed to cache result", zap.String("path", path), zap.Error(err))
		}
	}
	return res, nil
}

// RunDocument scans an already loaded document.
func (e *Engine) RunDocument(doc source.Document) Result {
	var stats Stats
	records := e.ScanPages(doc.Source, doc.Pages, &stats)
	return Result{Records: records, Stats: stats}
}

// ScanPages is the evaluation loop for one document. A fresh cursor is
// fed one page at a time; history carries over from page to page. The
// predicate is evaluated once per advance and every hit is captured.
// stats, when not nil, is updated as the scan progresses.
func (e *Engine) ScanPages(src string, pages [][]string, stats *Stats) []match.Record {
	if stats == nil {
		stats = &Stats{}
	}
	stats.Documents++
	stats.Source = src

	var records []match.Record
	c := cursor.New()
	for page, tokens := range pages {
		c.Reset(tokens)
		stats.Pages++
		stats.Page = page

		base := c.Consumed()
		for c.HasNext() {
			if err := c.Advance(); err != nil {
				break
			}
			offset := c.Consumed() - base - 1
			stats.Tokens++
			stats.Offset = offset

			ok, err := e.eval(c)
			if err != nil {
				stats.Faults++
				e.logger.Warn("token skipped",
					zap.String("source", src),
					zap.Int("page", page),
					zap.Int("offset", offset),
					zap.Error(err))
				continue
			}
			if !ok {
				continue
			}

			pos := match.Position{Page: page, Offset: offset}
			records = append(records, e.recorder.Capture(src, pos, c))
			stats.Matches++
		}
	}
	return records
}

// eval runs the predicate for the cursor's current token. A fault while
// evaluating one token is reported as an error and never escapes the loop.
func (e *Engine) eval(c *cursor.Cursor) (ok bool, err error) {
	if !utf8.ValidString(c.Current()) {
		return false, ErrInvalidToken
	}
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("evaluation failed: %v", r)
		}
	}()
	return e.predicate.Eval(c), nil
}
