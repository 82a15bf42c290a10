package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/gnolang/tgrep/internal"
	"github.com/gnolang/tgrep/internal/match"
	"github.com/gnolang/tgrep/internal/source"
	"github.com/gnolang/tgrep/scanner"
)

type SearchEngine interface {
	Run(path string) (internal.Result, error)
	RunDocument(doc source.Document) internal.Result
}

// Options tune a directory search.
type Options struct {
	// Workers bounds concurrent documents; zero means runtime.NumCPU().
	Workers int
	// Extensions restricts discovery; empty means every supported type.
	Extensions []string
	// Progress receives the progress bar. Nil disables it.
	Progress io.Writer
}

// Report is the merged outcome of a search over many documents. Records
// are ordered by document path, then page, then offset.
type Report struct {
	Records []match.Record
	Stats   internal.Stats
	Elapsed time.Duration
}

func (r *Report) add(res internal.Result) {
	r.Records = append(r.Records, res.Records...)
	r.Stats.Add(res.Stats)
}

// New compiles expr into an engine configured from config.
func New(expr string, config Config, logger *zap.Logger) (*internal.Engine, error) {
	opts := []internal.Option{
		internal.WithLogger(logger),
		internal.WithContext(config.Context),
	}
	if config.CacheDir != "" {
		cache, err := internal.NewCache(config.CacheDir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, internal.WithCache(cache))
	}
	return internal.NewEngine(expr, opts...)
}

// ProcessDocuments searches documents that are already in memory, in order.
func ProcessDocuments(
	ctx context.Context,
	engine SearchEngine,
	docs []source.Document,
) (Report, error) {
	start := time.Now()
	var report Report
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			report.Elapsed = time.Since(start)
			return report, err
		}
		report.add(engine.RunDocument(doc))
	}
	report.Elapsed = time.Since(start)
	return report, nil
}

func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine SearchEngine,
	paths []string,
	opts Options,
	processor func(SearchEngine, string) (internal.Result, error),
) (Report, error) {
	start := time.Now()
	var report Report
	var errs []error
	for _, path := range paths {
		r, err := ProcessPath(ctx, logger, engine, path, opts, processor)
		report.Records = append(report.Records, r.Records...)
		report.Stats.Add(r.Stats)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			if ctx.Err() != nil {
				report.Elapsed = time.Since(start)
				return report, err
			}
			errs = append(errs, err)
		}
	}
	report.Elapsed = time.Since(start)
	return report, errors.Join(errs...)
}

// ProcessPath searches a single document or every supported document under
// a directory. Documents are processed by a bounded pool of workers; a
// failing document is logged and reported in the returned error while the
// others are still merged into the report.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine SearchEngine,
	path string,
	opts Options,
	processor func(SearchEngine, string) (internal.Result, error),
) (Report, error) {
	start := time.Now()
	report := Report{Records: []match.Record{}}

	info, err := os.Stat(path)
	if err != nil {
		return report, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		res, err := processor(engine, path)
		if err != nil {
			return report, err
		}
		report.add(res)
		report.Elapsed = time.Since(start)
		return report, nil
	}

	extensions := opts.Extensions
	if len(extensions) == 0 {
		extensions = source.Extensions
	}
	found, err := scanner.New(path, extensions...).WithFilter(source.Supported).Scan()
	if err != nil {
		return report, fmt.Errorf("error walking %s: %w", path, err)
	}
	files := scanner.Paths(found)

	out := opts.Progress
	if out == nil {
		out = io.Discard
	}
	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(path),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	// mutex for progress state
	var progressMutex sync.Mutex
	var progress internal.Stats

	// update the bar description with the running totals
	updateProgress := func(filename string, stats internal.Stats) {
		progressMutex.Lock()
		defer progressMutex.Unlock()

		progress.Add(stats)
		bar.Describe(fmt.Sprintf("%s (%d page(s), %d match(es)) %s",
			path, progress.Pages, progress.Matches, filepath.Base(filename)))
		_ = bar.Add(1)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	sem := make(chan struct{}, workers)

	// one slot per file keeps the merge in path order
	results := make([]internal.Result, len(files))
	fileErrs := make([]error, len(files))
	var wg sync.WaitGroup

dispatch:
	for i, filePath := range files {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, fp string) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := processor(engine, fp)
			if err != nil {
				if logger != nil {
					logger.Error("Error processing file", zap.String("file", fp), zap.Error(err))
				}
				fileErrs[i] = fmt.Errorf("%s: %w", fp, err)
			} else {
				results[i] = res
			}
			updateProgress(fp, res.Stats)
		}(i, filePath)
	}
	wg.Wait()
	_ = bar.Finish()

	for _, res := range results {
		report.add(res)
	}
	report.Elapsed = time.Since(start)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, errors.Join(fileErrs...)
}

func ProcessFile(engine SearchEngine, filePath string) (internal.Result, error) {
	return engine.Run(filePath)
}
