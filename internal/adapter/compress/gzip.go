package compress

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"

	"logsweep/internal/domain"
)

const (
	// DefaultSuffix is appended after the original extension: app.log -> app.log.gz.
	DefaultSuffix = ".gz"

	copyBufferSize = 64 * 1024
)

// GzipCompressor replaces a file with a gzip artifact next to it. It holds
// no per-file state and may be reused across files.
type GzipCompressor struct {
	fs     afero.Fs
	level  int
	suffix string
	logger *slog.Logger
}

// NewGzipCompressor creates a compressor. A level of 0 selects the gzip
// default; an empty suffix selects DefaultSuffix.
func NewGzipCompressor(fs afero.Fs, level int, suffix string, logger *slog.Logger) (*GzipCompressor, error) {
	if level == 0 {
		level = gzip.DefaultCompression
	}
	if level != gzip.DefaultCompression && (level < gzip.BestSpeed || level > gzip.BestCompression) {
		return nil, fmt.Errorf("invalid gzip level %d", level)
	}
	if suffix == "" {
		suffix = DefaultSuffix
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &GzipCompressor{
		fs:     fs,
		level:  level,
		suffix: suffix,
		logger: logger,
	}, nil
}

// Suffix returns the marker appended to artifact names.
func (c *GzipCompressor) Suffix() string {
	return c.suffix
}

// ArtifactPath returns the path the compressed output is written to.
func (c *GzipCompressor) ArtifactPath(path string) string {
	return path + c.suffix
}

// Compress runs the compress, verify, delete-original transaction. The
// original is removed only after the artifact has been written, synced and
// found non-empty; on any failure the artifact is removed and the original
// is left as it was.
func (c *GzipCompressor) Compress(path string, simulate bool) domain.CompressionResult {
	result := domain.CompressionResult{
		Path:         path,
		ArtifactPath: c.ArtifactPath(path),
		Simulated:    simulate,
	}

	if simulate {
		c.logger.Info("[DRY-RUN] would compress", "path", path, "artifact", result.ArtifactPath)
		return result
	}

	if err := c.compress(&result); err != nil {
		result.Err = err
		result.CompressedSize = 0
		result.BytesSaved = 0
		c.logger.Error("failed to compress", "path", path, "error", err)
		return result
	}

	c.logger.Info("compressed",
		"path", path,
		"artifact", result.ArtifactPath,
		"bytes_saved", result.BytesSaved,
	)
	return result
}

func (c *GzipCompressor) compress(res *domain.CompressionResult) error {
	info, err := c.fs.Stat(res.Path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: not a regular file", res.Path)
	}
	res.OriginalSize = info.Size()

	dst, err := c.fs.OpenFile(res.ArtifactPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s (if left by an interrupted run, remove it and retry)",
				domain.ErrArtifactExists, res.ArtifactPath)
		}
		return fmt.Errorf("create artifact: %w", err)
	}

	if err := c.encode(dst, res.Path, info); err != nil {
		c.discard(res.ArtifactPath)
		return err
	}

	size, err := c.verify(res.ArtifactPath)
	if err != nil {
		c.discard(res.ArtifactPath)
		return err
	}
	res.CompressedSize = size

	if err := c.fs.Chtimes(res.ArtifactPath, info.ModTime(), info.ModTime()); err != nil {
		c.logger.Debug("could not preserve modification time", "artifact", res.ArtifactPath, "error", err)
	}

	if err := c.fs.Remove(res.Path); err != nil {
		c.discard(res.ArtifactPath)
		return fmt.Errorf("remove original: %w", err)
	}

	res.BytesSaved = res.OriginalSize - res.CompressedSize
	return nil
}

// encode streams path through gzip into dst. dst is closed on every return.
func (c *GzipCompressor) encode(dst afero.File, path string, info os.FileInfo) (err error) {
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close artifact: %w", cerr)
		}
	}()

	src, err := c.fs.Open(path)
	if err != nil {
		return fmt.Errorf("open original: %w", err)
	}
	defer src.Close()

	zw, err := gzip.NewWriterLevel(dst, c.level)
	if err != nil {
		return fmt.Errorf("create gzip writer: %w", err)
	}
	zw.Name = filepath.Base(path)
	zw.ModTime = info.ModTime()

	if _, err := io.CopyBuffer(zw, src, make([]byte, copyBufferSize)); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush artifact: %w", err)
	}
	if err := dst.Sync(); err != nil {
		return fmt.Errorf("sync artifact: %w", err)
	}
	return nil
}

func (c *GzipCompressor) verify(artifact string) (int64, error) {
	info, err := c.fs.Stat(artifact)
	if err != nil {
		return 0, fmt.Errorf("compressed file not created: %w", err)
	}
	if info.Size() == 0 {
		return 0, fmt.Errorf("%w: %s", domain.ErrEmptyArtifact, artifact)
	}
	return info.Size(), nil
}

// discard removes a partial artifact. Its own failure is only logged.
func (c *GzipCompressor) discard(artifact string) {
	if err := c.fs.Remove(artifact); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Debug("could not remove partial artifact", "artifact", artifact, "error", err)
	}
}
