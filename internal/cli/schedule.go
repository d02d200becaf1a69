package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"logsweep/config"
	"logsweep/internal/adapter/scheduler"
)

var (
	scheduleCron  string
	scheduleNow   bool
	scheduleWatch bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule <directory>",
	Short: "Compress old files periodically",
	Long: `Run the sweep on a cron schedule until interrupted. Each run is an
independent pass; a run that is still going when the next tick fires causes
that tick to be skipped.

Examples:
  logsweep schedule /var/log/myapp --cron "0 3 * * *"
  logsweep schedule /var/log/myapp --cron "@every 6h" --now --watch-config`,
	Args: cobra.ExactArgs(1),
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	addSweepFlags(scheduleCmd)
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "cron expression (default from config)")
	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "also run once immediately")
	scheduleCmd.Flags().BoolVar(&scheduleWatch, "watch-config", false, "reload the config file when it changes")
}

// sweepJob owns the live configuration of a scheduled sweep.
type sweepJob struct {
	mu     sync.Mutex
	cfg    *config.Config
	dir    string
	fsys   afero.Fs
	apply  func(*config.Config)
	runLog func(c *config.Config)
}

func (j *sweepJob) current() *config.Config {
	j.mu.Lock()
	defer j.mu.Unlock()
	c := *j.cfg
	return &c
}

// reload replaces the configuration, keeping the old one if the file no
// longer loads or validates.
func (j *sweepJob) reload(path string) error {
	next, err := config.Load(path)
	if err != nil {
		return err
	}
	j.apply(next)
	if err := next.Validate(); err != nil {
		return err
	}
	j.mu.Lock()
	j.cfg = next
	j.mu.Unlock()
	return nil
}

func (j *sweepJob) run() {
	j.runLog(j.current())
}

func runSchedule(cmd *cobra.Command, args []string) error {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	apply := func(c *config.Config) {
		applySweepFlags(cmd, c)
		if cmd.Flags().Changed("cron") {
			c.Schedule.Cron = scheduleCron
		}
		if cmd.Flags().Changed("watch-config") {
			c.Schedule.WatchConfig = scheduleWatch
		}
	}

	cfg := GetConfig()
	apply(cfg)
	if cfg.Schedule.Cron == "" {
		return fmt.Errorf("no schedule: pass --cron or set schedule.cron in the config file")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	base, err := newLogger(cmd.ErrOrStderr(), cfg.Logging)
	if err != nil {
		return err
	}
	defer base.Close()

	job := &sweepJob{
		cfg:   cfg,
		dir:   dir,
		fsys:  afero.NewOsFs(),
		apply: apply,
	}
	job.runLog = func(c *config.Config) {
		logger, err := newLogger(cmd.ErrOrStderr(), c.Logging)
		if err != nil {
			base.Error("cannot start run", "error", err)
			return
		}
		defer logger.Close()
		if _, err := sweep(c, job.dir, job.fsys, logger.Logger); err != nil {
			logger.Error("sweep not started", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, err := scheduler.New(cfg.Schedule.Cron, job.run, base.Logger)
	if err != nil {
		return err
	}

	if cfg.Schedule.WatchConfig {
		if cfgPath == "" {
			base.Warn("no config file to watch")
		} else {
			watcher, err := scheduler.NewConfigWatcher(cfgPath, func() {
				if err := job.reload(cfgPath); err != nil {
					base.Error("config reload failed, keeping previous config", "path", cfgPath, "error", err)
					return
				}
				base.Info("config reloaded", "path", cfgPath)
			}, base.Logger)
			if err != nil {
				return err
			}
			go func() {
				if err := watcher.Run(ctx); err != nil {
					base.Error("config watcher stopped", "error", err)
				}
			}()
		}
	}

	if scheduleNow {
		job.run()
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	sched.Stop()
	return nil
}
