package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProcessingStats_ZeroValue(t *testing.T) {
	var stats ProcessingStats

	assert.Zero(t, stats.FilesScanned)
	assert.Zero(t, stats.FilesCompressed)
	assert.Zero(t, stats.FilesSkipped)
	assert.Zero(t, stats.FilesFailed)
	assert.Zero(t, stats.BytesSaved)
	assert.Empty(t, stats.Errors)
	assert.False(t, stats.HasErrors())
}

func TestProcessingStats_Record(t *testing.T) {
	var stats ProcessingStats

	for i := 0; i < 4; i++ {
		stats.RecordScanned()
	}
	stats.RecordCompressed(100)
	stats.RecordCompressed(-20)
	stats.RecordSkipped()
	stats.RecordFailed("Failed to compress /var/log/a.log")

	assert.Equal(t, 4, stats.FilesScanned)
	assert.Equal(t, 2, stats.FilesCompressed)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Equal(t, 1, stats.FilesFailed)
	assert.Equal(t, int64(80), stats.BytesSaved)
	assert.Equal(t, stats.FilesScanned, stats.FilesCompressed+stats.FilesSkipped+stats.FilesFailed)
	assert.Equal(t, []string{"Failed to compress /var/log/a.log"}, stats.Errors)
	assert.True(t, stats.HasErrors())
}

func TestProcessingStats_AddErrorDoesNotCount(t *testing.T) {
	var stats ProcessingStats
	stats.AddError("directory does not exist: /nope")

	assert.Zero(t, stats.FilesFailed)
	assert.True(t, stats.HasErrors())
}

func TestProcessingStats_String(t *testing.T) {
	stats := ProcessingStats{
		FilesScanned:    10,
		FilesCompressed: 5,
		FilesSkipped:    4,
		FilesFailed:     1,
		BytesSaved:      1024,
	}
	got := stats.String()

	assert.Contains(t, got, "Scanned: 10")
	assert.Contains(t, got, "Compressed: 5")
	assert.Contains(t, got, "Skipped: 4")
	assert.Contains(t, got, "Failed: 1")
	assert.Contains(t, got, "1,024")
}

func TestCompressionResult_Success(t *testing.T) {
	assert.True(t, CompressionResult{BytesSaved: 10}.Success())
	assert.False(t, CompressionResult{Err: errors.New("disk full")}.Success())
}

func TestAgeThreshold(t *testing.T) {
	assert.Equal(t, time.Duration(0), AgeThreshold(0))
	assert.Equal(t, 5*24*time.Hour, AgeThreshold(5))
	assert.Equal(t, time.Duration(MaxDays)*24*time.Hour, AgeThreshold(MaxDays))
	assert.Positive(t, AgeThreshold(MaxDays))
	assert.Equal(t, time.Duration(math.MaxInt64), AgeThreshold(MaxDays+1))
	assert.Equal(t, time.Duration(math.MaxInt64), AgeThreshold(200000))
}
