package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/gnolang/tgrep/formatter"
	"github.com/gnolang/tgrep/internal/match"
	"github.com/gnolang/tgrep/internal/sink"
	"github.com/gnolang/tgrep/search"
)

const defaultCSVName = "matches.csv"

var (
	queryExpr   string
	contextSize int
	outPath     string
	jsonOutput  bool
	csvOutput   bool
	compact     bool
	workers     int
	cacheDir    string
	extensions  []string
)

var searchCmd = &cobra.Command{
	Use:   "search [paths...]",
	Short: "Search documents for tokens matching a query",
	Long: `Evaluates the query at every token of every document and prints each match
with its surrounding context.
Example) tgrep search -q "(within 5 command line)" ./manuals`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(2)
		}

		config, err := search.LoadConfig(cfgFile)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		applySearchFlags(cmd, &config)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		out := searchOutput{
			path:     config.Output,
			json:     jsonOutput,
			csv:      csvOutput,
			compact:  compact,
			w:        os.Stdout,
			progress: os.Stderr,
		}
		matches, err := runSearch(ctx, logger, config, args, out)
		if err != nil {
			logger.Error("Search failed", zap.Error(err))
			cancel()
			os.Exit(2)
		}
		if matches == 0 {
			cancel()
			os.Exit(1)
		}
	},
}

func init() {
	addSearchFlags(searchCmd.Flags())
}

// addSearchFlags registers the search flags on fs. The root command
// carries them too so that "tgrep -q ... paths" works without the
// subcommand.
func addSearchFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&queryExpr, "query", "q", "", "Query expression, e.g. \"(= Unix)\"")
	fs.IntVar(&contextSize, "context", match.DefaultContext, "Number of context tokens on each side of a match")
	fs.StringVarP(&outPath, "output", "o", "", "Write matches to a .csv, .json, .db or .sqlite file (.zst compresses)")
	fs.BoolVar(&jsonOutput, "json", false, "Print matches as JSON")
	fs.BoolVar(&csvOutput, "csv", false, "Write matches.csv next to the searched documents")
	fs.BoolVar(&compact, "compact", false, "Print one line per match")
	fs.IntVar(&workers, "workers", 0, "Number of documents searched in parallel (0 = number of CPUs)")
	fs.StringVar(&cacheDir, "cache-dir", "", "Reuse results for unchanged documents from this directory")
	fs.StringSliceVar(&extensions, "ext", nil, "Only search files with these extensions")
}

// applySearchFlags lets explicitly given flags override the configuration.
func applySearchFlags(cmd *cobra.Command, config *search.Config) {
	flags := cmd.Flags()
	if flags.Changed("query") {
		config.Query = queryExpr
	}
	if flags.Changed("context") {
		config.Context = contextSize
	}
	if flags.Changed("output") {
		config.Output = outPath
	}
	if flags.Changed("workers") {
		config.Workers = workers
	}
	if flags.Changed("cache-dir") {
		config.CacheDir = cacheDir
	}
	if flags.Changed("ext") {
		config.Extensions = extensions
	}
}

type searchOutput struct {
	path     string
	json     bool
	csv      bool
	compact  bool
	w        io.Writer
	progress io.Writer
}

// runSearch returns the number of matches. Documents that failed are
// reported in the error after the remaining matches have been written.
func runSearch(ctx context.Context, logger *zap.Logger, config search.Config, paths []string, out searchOutput) (int, error) {
	if config.Query == "" {
		return 0, errors.New("no query given: use --query or set query in the configuration file")
	}

	engine, err := search.New(config.Query, config, logger)
	if err != nil {
		return 0, fmt.Errorf("invalid query: %w", err)
	}
	logger.Debug("Compiled query", zap.String("predicate", engine.Predicate().String()))

	opts := search.Options{
		Workers:    config.Workers,
		Extensions: config.Extensions,
		Progress:   out.progress,
	}
	report, searchErr := search.ProcessFiles(ctx, logger, engine, paths, opts, search.ProcessFile)
	if searchErr != nil && ctx.Err() != nil {
		return report.Stats.Matches, searchErr
	}

	if err := writeRecords(logger, paths, report.Records, out); err != nil {
		return report.Stats.Matches, err
	}

	logger.Info("Search finished",
		zap.Int("documents", report.Stats.Documents),
		zap.Int("pages", report.Stats.Pages),
		zap.Int("tokens", report.Stats.Tokens),
		zap.Int("matches", report.Stats.Matches),
		zap.Int("faults", report.Stats.Faults),
		zap.Duration("elapsed", report.Elapsed))

	return report.Stats.Matches, searchErr
}

func writeRecords(logger *zap.Logger, paths []string, records []match.Record, out searchOutput) error {
	path := out.path
	if path == "" && out.csv {
		path = defaultCSVPath(paths[0])
	}

	switch {
	case path != "":
		s, err := sink.Open(path, sink.NewRunID())
		if err != nil {
			return err
		}
		if err := s.Write(records); err != nil {
			s.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		if err := s.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", path, err)
		}
		logger.Info("Matches written", zap.String("path", path), zap.Int("records", len(records)))
		return nil
	case out.json:
		s := sink.NewJSON(out.w)
		if err := s.Write(records); err != nil {
			return err
		}
		if err := s.Close(); err != nil {
			return err
		}
		_, err := fmt.Fprintln(out.w)
		return err
	default:
		style := formatter.StyleDefault
		if out.compact {
			style = formatter.StyleCompact
		}
		_, err := fmt.Fprint(out.w, formatter.GenerateFormattedMatches(records, style))
		return err
	}
}

// defaultCSVPath places the table inside the searched folder, or next to
// the searched file.
func defaultCSVPath(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, defaultCSVName)
	}
	return filepath.Join(filepath.Dir(path), defaultCSVName)
}
