package watcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/stoker/internal/logging"
	"github.com/conneroisu/stoker/internal/pool"
)

func testLogger() logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LevelFatal,
		Output: io.Discard,
	})
}

func TestIgnoreFilter(t *testing.T) {
	filter := IgnoreFilter([]string{".git", "vendor", "node_modules"})

	tests := []struct {
		path    string
		allowed bool
	}{
		{"main.go", true},
		{"src/app/main.go", true},
		{".git/config", false},
		{"src/.git/config", false},
		{"vendor/lib/lib.go", false},
		{"src/vendor/lib.go", false},
		{"node_modules", false},
		{"vendored/file.go", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.allowed, filter(tt.path))
		})
	}
}

func TestNoHiddenFilter(t *testing.T) {
	assert.True(t, NoHiddenFilter("main.go"))
	assert.True(t, NoHiddenFilter("src/main.go"))
	assert.False(t, NoHiddenFilter(".env"))
	assert.False(t, NoHiddenFilter("src/.hidden"))
	assert.True(t, NoHiddenFilter("."))
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "created", EventTypeCreated.String())
	assert.Equal(t, "modified", EventTypeModified.String())
	assert.Equal(t, "deleted", EventTypeDeleted.String())
	assert.Equal(t, "renamed", EventTypeRenamed.String())
	assert.Equal(t, "unknown", EventType(42).String())
}

func TestDebouncer(t *testing.T) {
	t.Run("groups rapid events into one batch", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		d := NewDebouncer(20 * time.Millisecond)
		go d.start(ctx)

		for i := 0; i < 3; i++ {
			d.events <- ChangeEvent{Type: EventTypeModified, Path: "a.go"}
			d.events <- ChangeEvent{Type: EventTypeModified, Path: "b.go"}
		}

		select {
		case batch := <-d.output:
			// Deduplicated by path
			assert.Len(t, batch, 2)
		case <-time.After(2 * time.Second):
			t.Fatal("debouncer never flushed")
		}
	})

	t.Run("separate bursts flush separately", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		d := NewDebouncer(10 * time.Millisecond)
		go d.start(ctx)

		d.events <- ChangeEvent{Type: EventTypeCreated, Path: "first.go"}
		first := <-d.output
		require.Len(t, first, 1)
		assert.Equal(t, "first.go", first[0].Path)

		d.events <- ChangeEvent{Type: EventTypeCreated, Path: "second.go"}
		second := <-d.output
		require.Len(t, second, 1)
		assert.Equal(t, "second.go", second[0].Path)
	})
}

func TestJobSource(t *testing.T) {
	t.Run("turns a batch into one pool job", func(t *testing.T) {
		p := pool.New(1)
		defer p.Close()

		var ran atomic.Int64
		var seen atomic.Int64
		source := NewJobSource(p, func(events []ChangeEvent) pool.Job {
			seen.Store(int64(len(events)))
			return func() { ran.Add(1) }
		}, testLogger())

		handler := source.Handler()
		require.NoError(t, handler([]ChangeEvent{
			{Type: EventTypeModified, Path: "a.go"},
			{Type: EventTypeModified, Path: "b.go"},
		}))

		require.Eventually(t, func() bool {
			return ran.Load() == 1
		}, 2*time.Second, 5*time.Millisecond)
		assert.Equal(t, int64(2), seen.Load())
	})

	t.Run("empty batches are dropped", func(t *testing.T) {
		p := pool.New(1)
		defer p.Close()

		source := NewJobSource(p, func(events []ChangeEvent) pool.Job {
			t.Fatal("builder called for empty batch")
			return nil
		}, testLogger())

		require.NoError(t, source.Handler()(nil))
	})

	t.Run("nil jobs are not submitted", func(t *testing.T) {
		p := pool.New(1)
		defer p.Close()

		source := NewJobSource(p, func(events []ChangeEvent) pool.Job {
			return nil
		}, testLogger())

		require.NoError(t, source.Handler()([]ChangeEvent{{Path: "a.go"}}))
	})

	t.Run("closed pool surfaces the submission error", func(t *testing.T) {
		p := pool.New(1)
		require.NoError(t, p.Close())

		source := NewJobSource(p, func(events []ChangeEvent) pool.Job {
			return func() {}
		}, testLogger())

		err := source.Handler()([]ChangeEvent{{Path: "a.go"}})
		require.ErrorIs(t, err, pool.ErrPoolClosed)
	})
}

func TestFileWatcher(t *testing.T) {
	t.Run("delivers debounced batches for file writes", func(t *testing.T) {
		dir := t.TempDir()

		fw, err := NewFileWatcher(20*time.Millisecond, testLogger())
		require.NoError(t, err)
		defer fw.Stop()

		var batches atomic.Int64
		fw.AddHandler(func(events []ChangeEvent) error {
			batches.Add(1)
			return nil
		})

		require.NoError(t, fw.AddRecursive(dir))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		require.NoError(t, fw.Start(ctx))

		require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("change"), 0644))

		require.Eventually(t, func() bool {
			return batches.Load() >= 1
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("filtered paths produce no events", func(t *testing.T) {
		dir := t.TempDir()

		fw, err := NewFileWatcher(10*time.Millisecond, testLogger())
		require.NoError(t, err)
		defer fw.Stop()

		fw.AddFilter(func(path string) bool { return false })

		var batches atomic.Int64
		fw.AddHandler(func(events []ChangeEvent) error {
			batches.Add(1)
			return nil
		})

		require.NoError(t, fw.AddPath(dir))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		require.NoError(t, fw.Start(ctx))

		require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("x"), 0644))

		time.Sleep(100 * time.Millisecond)
		assert.Equal(t, int64(0), batches.Load())
	})

	t.Run("rejects missing paths", func(t *testing.T) {
		fw, err := NewFileWatcher(10*time.Millisecond, testLogger())
		require.NoError(t, err)
		defer fw.Stop()

		require.Error(t, fw.AddPath("/does/not/exist"))
	})
}
