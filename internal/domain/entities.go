package domain

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

var (
	ErrDirectoryNotFound = errors.New("directory does not exist")
	ErrNotDirectory      = errors.New("path is not a directory")
	ErrEmptyArtifact     = errors.New("compressed file is empty")
	ErrArtifactExists    = errors.New("compressed file already exists")
)

// MaxDays is the largest age threshold, in days, that fits a time.Duration.
const MaxDays = int(math.MaxInt64 / int64(24*time.Hour))

// AgeThreshold converts days to a duration. Values above MaxDays saturate
// to the largest duration, so no modification time is ever old enough.
func AgeThreshold(days int) time.Duration {
	if days > MaxDays {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(days) * 24 * time.Hour
}

// Candidate is a path yielded by a directory walk. Err is set when the entry
// could not be read during enumeration (for example it vanished mid-scan).
// Dir marks a subdirectory whose listing failed; it is never a counted file.
type Candidate struct {
	Path string
	Dir  bool
	Err  error
}

// CompressionResult is the outcome of one compress transaction.
type CompressionResult struct {
	Path           string
	ArtifactPath   string
	OriginalSize   int64
	CompressedSize int64
	BytesSaved     int64
	Simulated      bool
	Err            error
}

// Success reports whether the transaction completed.
func (r CompressionResult) Success() bool {
	return r.Err == nil
}

// ProcessingStats aggregates the outcome of one sweep. Every update is an
// increment or an append, so the final values do not depend on file order.
type ProcessingStats struct {
	FilesScanned    int
	FilesCompressed int
	FilesSkipped    int
	FilesFailed     int
	BytesSaved      int64
	Errors          []string
}

func (s *ProcessingStats) RecordScanned() {
	s.FilesScanned++
}

// RecordCompressed counts a compressed file. bytesSaved may be negative.
func (s *ProcessingStats) RecordCompressed(bytesSaved int64) {
	s.FilesCompressed++
	s.BytesSaved += bytesSaved
}

func (s *ProcessingStats) RecordSkipped() {
	s.FilesSkipped++
}

// RecordFailed counts a failed file and keeps its message.
func (s *ProcessingStats) RecordFailed(msg string) {
	s.FilesFailed++
	s.AddError(msg)
}

// AddError appends an error that is not tied to a counted file.
func (s *ProcessingStats) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

func (s *ProcessingStats) HasErrors() bool {
	return len(s.Errors) > 0
}

func (s *ProcessingStats) String() string {
	return fmt.Sprintf("Scanned: %d, Compressed: %d, Skipped: %d, Failed: %d, Bytes saved: %s",
		s.FilesScanned, s.FilesCompressed, s.FilesSkipped, s.FilesFailed, humanize.Comma(s.BytesSaved))
}
