package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"logsweep/config"
	"logsweep/internal/adapter/logging"
)

var (
	cfgFile  string
	cfgPath  string
	cfg      *config.Config
	verbose  bool
	logFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "logsweep",
	Short: "Compress files older than a specified number of days",
	Long: `logsweep scans a directory for files whose last modification is older
than an age threshold, gzips each one in place (app.log -> app.log.gz) and
removes the original once the compressed copy is verified.

Example usage:
  logsweep run /var/log/myapp              # Compress files older than 5 days
  logsweep run /var/log/myapp -d 7         # Compress files older than 7 days
  logsweep run /var/log/myapp --dry-run    # Show what would be compressed
  logsweep run /var/log/myapp -r           # Include subdirectories
  logsweep schedule /var/log/myapp --cron "0 3 * * *"`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if cfgFile != "" {
			cfgPath = cfgFile
			cfg, err = config.Load(cfgFile)
		} else {
			wd, wdErr := os.Getwd()
			if wdErr != nil {
				return fmt.Errorf("failed to get working directory: %w", wdErr)
			}
			cfgPath = config.Find(wd)
			cfg, err = config.LoadFromDir(wd)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if cmd.Flags().Changed("log-file") {
			cfg.Logging.File = logFile
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Logging.Level = logLevel
		}
		return nil
	},
}

// Execute runs the CLI and exits non-zero on any error, including a sweep
// that recorded errors.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./logsweep.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
	rootCmd.PersistentFlags().StringVarP(&logFile, "log-file", "l", "", "also append logs to this file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func GetConfig() *config.Config {
	return cfg
}

// newLogger builds the run logger on w, tagged with a fresh run id.
func newLogger(w io.Writer, lc config.LoggingConfig) (*logging.Logger, error) {
	l, err := logging.New(lc, verbose, w)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	l.Logger = l.With("run_id", uuid.NewString())
	return l, nil
}
