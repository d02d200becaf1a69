package usecase

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"

	"logsweep/internal/domain"
	"logsweep/internal/port"
)

// SweepUseCase compresses files older than an age threshold.
type SweepUseCase struct {
	fs         afero.Fs
	walker     port.FileWalker
	compressor port.Compressor
	logger     *slog.Logger
	now        func() time.Time
	progress   func(path string)
}

// Option configures a SweepUseCase.
type Option func(*SweepUseCase)

// WithClock replaces time.Now as the source of the run's reference time.
func WithClock(now func() time.Time) Option {
	return func(u *SweepUseCase) {
		u.now = now
	}
}

// WithProgress registers a callback invoked once for every scanned file.
func WithProgress(fn func(path string)) Option {
	return func(u *SweepUseCase) {
		u.progress = fn
	}
}

// NewSweepUseCase creates a new sweep use case.
func NewSweepUseCase(
	fs afero.Fs,
	walker port.FileWalker,
	compressor port.Compressor,
	logger *slog.Logger,
	opts ...Option,
) *SweepUseCase {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	u := &SweepUseCase{
		fs:         fs,
		walker:     walker,
		compressor: compressor,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Run scans root and compresses every file whose age is strictly greater
// than days. The reference time is sampled once per run. Run never fails:
// setup and per-file problems are recorded in the returned stats.
func (u *SweepUseCase) Run(root string, days int, recursive, simulate bool) *domain.ProcessingStats {
	stats := &domain.ProcessingStats{}
	now := u.now()
	threshold := domain.AgeThreshold(days)

	u.logger.Info("starting sweep",
		"directory", root,
		"days", days,
		"recursive", recursive,
		"dry_run", simulate,
	)

	if err := u.validateRoot(root); err != nil {
		u.logger.Error("invalid target", "error", err)
		stats.AddError(err.Error())
		return stats
	}

	suffix := u.compressor.Suffix()
	err := u.walker.Walk(root, recursive, func(c domain.Candidate) {
		if c.Dir {
			msg := fmt.Sprintf("Error reading %s: %v", c.Path, c.Err)
			u.logger.Error("cannot read directory", "path", c.Path, "error", c.Err)
			stats.AddError(msg)
			return
		}
		if strings.HasSuffix(c.Path, suffix) {
			return
		}
		u.processFile(c, now, threshold, simulate, stats)
	})
	if err != nil {
		u.logger.Error("scan aborted", "directory", root, "error", err)
		stats.AddError(fmt.Sprintf("Error scanning %s: %v", root, err))
	}

	u.logger.Info("completed",
		"files_scanned", stats.FilesScanned,
		"files_compressed", stats.FilesCompressed,
		"files_skipped", stats.FilesSkipped,
		"files_failed", stats.FilesFailed,
		"bytes_saved", stats.BytesSaved,
	)
	if stats.HasErrors() {
		u.logger.Warn("sweep recorded errors", "count", len(stats.Errors))
	}
	return stats
}

func (u *SweepUseCase) validateRoot(root string) error {
	info, err := u.fs.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrDirectoryNotFound, root)
		}
		return fmt.Errorf("cannot access %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", domain.ErrNotDirectory, root)
	}
	return nil
}

// processFile classifies one candidate and, if it is old enough, hands it to
// the compressor.
func (u *SweepUseCase) processFile(
	c domain.Candidate,
	now time.Time,
	threshold time.Duration,
	simulate bool,
	stats *domain.ProcessingStats,
) {
	stats.RecordScanned()
	if u.progress != nil {
		u.progress(c.Path)
	}

	if c.Err != nil {
		u.fail(stats, c.Path, c.Err)
		return
	}

	info, err := u.fs.Stat(c.Path)
	if err != nil {
		u.fail(stats, c.Path, err)
		return
	}

	age := now.Sub(info.ModTime())
	if age <= threshold {
		stats.RecordSkipped()
		u.logger.Debug("skipped (too recent)", "path", c.Path, "age", age.Round(time.Second))
		return
	}

	result := u.compressor.Compress(c.Path, simulate)
	if !result.Success() {
		stats.RecordFailed(fmt.Sprintf("Failed to compress %s: %v", c.Path, result.Err))
		return
	}
	stats.RecordCompressed(result.BytesSaved)
}

func (u *SweepUseCase) fail(stats *domain.ProcessingStats, path string, err error) {
	u.logger.Error("error processing file", "path", path, "error", err)
	stats.RecordFailed(fmt.Sprintf("Error processing %s: %v", path, err))
}
