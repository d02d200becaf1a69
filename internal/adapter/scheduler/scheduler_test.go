package scheduler

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_InvalidSpec(t *testing.T) {
	_, err := New("every morning", func() {}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron schedule")
}

func TestScheduler_RunsJobUntilCancelled(t *testing.T) {
	var runs atomic.Int32
	s, err := New("@every 1s", func() { runs.Add(1) }, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())
	assert.False(t, s.Next().IsZero())

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 5*time.Second, 50*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 20*time.Millisecond)
	assert.True(t, s.Next().IsZero())
}

// lockedBuffer is read by the test while cron goroutines write to it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestScheduler_LogsPanickingJob(t *testing.T) {
	var out lockedBuffer
	logger := slog.New(slog.NewTextHandler(&out, nil))

	var runs atomic.Int32
	s, err := New("@every 1s", func() {
		runs.Add(1)
		panic("sweep exploded")
	}, logger)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "sweep exploded")
	}, 5*time.Second, 50*time.Millisecond)
	assert.Contains(t, out.String(), "level=ERROR")
	assert.Contains(t, out.String(), "cron: panic")
	assert.True(t, s.IsRunning())

	s.Stop()
	assert.GreaterOrEqual(t, runs.Load(), int32(1))
}

func TestScheduler_StartTwice(t *testing.T) {
	s, err := New("0 3 * * *", func() {}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.Error(t, s.Start(ctx))
	s.Stop()
	assert.False(t, s.IsRunning())
}

func TestConfigWatcher_TriggersOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logsweep.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sweep:\n  days: 5\n"), 0644))

	var changes atomic.Int32
	cw, err := NewConfigWatcher(path, func() { changes.Add(1) }, nil)
	require.NoError(t, err)
	cw.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cw.Run(ctx) }()

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x"), 0644))

	require.NoError(t, os.WriteFile(path, []byte("sweep:\n  days: 9\n"), 0644))
	require.Eventually(t, func() bool { return changes.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
