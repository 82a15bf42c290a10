package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/tgrep/formatter"
	"github.com/gnolang/tgrep/internal"
	"github.com/gnolang/tgrep/internal/match"
	"github.com/gnolang/tgrep/search"
)

var rescanInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Search documents again whenever they change",
	Long: `Runs the query over every changed document under the given directories and
prints new matches. With --rescan the whole tree is also searched periodically.
Example) tgrep watch -q "(= Unix)" --rescan 10m ./manuals`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide directory paths")
			os.Exit(2)
		}

		config, err := search.LoadConfig(cfgFile)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		applySearchFlags(cmd, &config)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runWatch(ctx, logger, config, args, rescanInterval); err != nil {
			logger.Error("Watch failed", zap.Error(err))
			stop()
			os.Exit(2)
		}
	},
}

func init() {
	watchCmd.Flags().StringVarP(&queryExpr, "query", "q", "", "Query expression, e.g. \"(= Unix)\"")
	watchCmd.Flags().IntVar(&contextSize, "context", match.DefaultContext, "Number of context tokens on each side of a match")
	watchCmd.Flags().DurationVar(&rescanInterval, "rescan", 0, "Also search every directory at this interval (0 disables)")
}

// runWatch blocks until ctx is done.
func runWatch(ctx context.Context, logger *zap.Logger, config search.Config, dirs []string, rescan time.Duration) error {
	if config.Query == "" {
		return fmt.Errorf("no query given: use --query or set query in the configuration file")
	}
	engine, err := search.New(config.Query, config, logger)
	if err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}

	printResult := func(path string, res internal.Result, err error) {
		if err != nil {
			return
		}
		fmt.Print(formatter.GenerateFormattedMatches(res.Records, formatter.StyleDefault))
	}
	if err := engine.StartWatching(dirs, printResult); err != nil {
		return err
	}
	defer engine.StopWatching()
	logger.Info("Watching for changes", zap.Strings("dirs", dirs))

	if rescan > 0 {
		scheduler, err := newRescanScheduler(ctx, logger, engine, dirs, config, rescan)
		if err != nil {
			return err
		}
		defer scheduler.Shutdown()
	}

	<-ctx.Done()
	return nil
}

// newRescanScheduler starts a job that searches every directory at each
// interval and logs the totals.
func newRescanScheduler(
	ctx context.Context,
	logger *zap.Logger,
	engine search.SearchEngine,
	dirs []string,
	config search.Config,
	interval time.Duration,
) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	rescan := func() {
		opts := search.Options{Workers: config.Workers, Extensions: config.Extensions}
		report, err := search.ProcessFiles(ctx, logger, engine, dirs, opts, search.ProcessFile)
		if err != nil {
			logger.Warn("Rescan incomplete", zap.Error(err))
		}
		logger.Info("Rescan finished",
			zap.Int("documents", report.Stats.Documents),
			zap.Int("matches", report.Stats.Matches),
			zap.Duration("elapsed", report.Elapsed))
	}

	if _, err := scheduler.NewJob(gocron.DurationJob(interval), gocron.NewTask(rescan)); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	scheduler.Start()
	return scheduler, nil
}
