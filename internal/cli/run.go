package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"logsweep/config"
	"logsweep/internal/adapter/compress"
	"logsweep/internal/adapter/fs"
	"logsweep/internal/adapter/metrics"
	"logsweep/internal/domain"
	"logsweep/internal/usecase"
)

var (
	runDays        int
	runRecursive   bool
	runDryRun      bool
	runProgress    bool
	runMetricsFile string
)

var runCmd = &cobra.Command{
	Use:   "run <directory>",
	Short: "Compress old files once",
	Long: `Scan a directory once and compress every file older than the threshold.
Files already carrying the compressed suffix are never touched. The command
exits with status 1 when any error was recorded.

An existing archive is never overwritten. If a run is killed mid-write it can
leave a partial <file>.gz behind, and later runs report that file as failed
until the stale archive is removed.

Examples:
  logsweep run /var/log/myapp
  logsweep run /var/log/myapp -d 7 -r
  logsweep run /var/log/myapp --dry-run -v`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addSweepFlags(runCmd)
	runCmd.Flags().BoolVar(&runProgress, "progress", false, "show a progress spinner")
}

// addSweepFlags registers the flags shared by run and schedule.
func addSweepFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&runDays, "days", "d", 5, "compress files older than this many days")
	cmd.Flags().BoolVarP(&runRecursive, "recursive", "r", false, "process subdirectories recursively")
	cmd.Flags().BoolVarP(&runDryRun, "dry-run", "n", false, "show what would be done without making changes")
	cmd.Flags().StringVar(&runMetricsFile, "metrics-file", "", "write Prometheus textfile metrics here after each run")
}

// applySweepFlags overrides config values with flags the user set.
func applySweepFlags(cmd *cobra.Command, c *config.Config) {
	if cmd.Flags().Changed("days") {
		c.Sweep.Days = runDays
	}
	if cmd.Flags().Changed("recursive") {
		c.Sweep.Recursive = runRecursive
	}
	if cmd.Flags().Changed("dry-run") {
		c.Sweep.DryRun = runDryRun
	}
	if cmd.Flags().Changed("metrics-file") {
		c.Metrics.Textfile = runMetricsFile
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	cfg := GetConfig()
	applySweepFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Close()

	var opts []usecase.Option
	if runProgress {
		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetDescription("[cyan]Sweeping[reset]"),
		)
		defer bar.Finish()
		opts = append(opts, usecase.WithProgress(func(string) {
			bar.Add(1)
		}))
	}

	stats, err := sweep(cfg, dir, afero.NewOsFs(), logger.Logger, opts...)
	if err != nil {
		return err
	}
	return report(cmd, stats)
}

// sweep builds the walker and compressor for c and runs one pass over dir.
func sweep(c *config.Config, dir string, fsys afero.Fs, logger *slog.Logger, opts ...usecase.Option) (*domain.ProcessingStats, error) {
	compressor, err := compress.NewGzipCompressor(fsys, c.Sweep.CompressionLevel, c.Sweep.Suffix, logger)
	if err != nil {
		return nil, err
	}
	walker := fs.NewWalker(fsys, c.Sweep.Includes, c.Sweep.Excludes)
	sweepUC := usecase.NewSweepUseCase(fsys, walker, compressor, logger, opts...)

	if c.Sweep.DryRun {
		logger.Info("=== DRY RUN MODE - no changes will be made ===")
	}

	stats := sweepUC.Run(dir, c.Sweep.Days, c.Sweep.Recursive, c.Sweep.DryRun)

	if c.Metrics.Textfile != "" {
		if err := metrics.NewTextfile(c.Metrics.Textfile).Record(stats); err != nil {
			logger.Warn("metrics not written", "error", err)
		}
	}
	return stats, nil
}

// report prints the summary and turns recorded errors into a command error.
func report(cmd *cobra.Command, stats *domain.ProcessingStats) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Completed: %s\n", stats)
	if stats.BytesSaved > 0 {
		fmt.Fprintf(out, "Reclaimed %s\n", humanize.IBytes(uint64(stats.BytesSaved)))
	}

	if stats.HasErrors() {
		fmt.Fprintf(out, "\nErrors:\n")
		for _, e := range stats.Errors {
			fmt.Fprintf(out, "  - %s\n", e)
		}
		return fmt.Errorf("encountered %d error(s)", len(stats.Errors))
	}
	return nil
}
