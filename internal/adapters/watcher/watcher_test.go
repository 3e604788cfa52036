package watcher_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mkd/internal/adapters/watcher"
	"go.trai.ch/mkd/internal/core/domain"
	"go.trai.ch/mkd/internal/core/ports"
	"go.trai.ch/mkd/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const eventTimeout = 2 * time.Second

func newWatcher(t *testing.T) *watcher.Watcher {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Debug(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Warn(gomock.Any()).AnyTimes()
	return watcher.NewWatcher(mockLogger)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), domain.PrivateFilePerm))
}

// collect forwards watcher events to a channel.
func collect(w *watcher.Watcher) <-chan ports.WatchEvent {
	ch := make(chan ports.WatchEvent, 64)
	go func() {
		defer close(ch)
		for ev := range w.Events() {
			ch <- ev
		}
	}()
	return ch
}

func waitEvent(t *testing.T, ch <-chan ports.WatchEvent) ports.WatchEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "event stream closed")
		return ev
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for watch event")
		return ports.WatchEvent{}
	}
}

// drain discards events until the stream is quiet for d.
func drain(ch <-chan ports.WatchEvent, d time.Duration) {
	for {
		select {
		case <-ch:
		case <-time.After(d):
			return
		}
	}
}

func TestWatcher_DirectWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.md")
	writeFile(t, path, "a")

	w := newWatcher(t)
	require.NoError(t, w.Start(t.Context(), path))
	t.Cleanup(func() { _ = w.Stop() })
	events := collect(w)

	assert.True(t, w.HasFileWatch())

	time.Sleep(20 * time.Millisecond)
	writeFile(t, path, "b")

	ev := waitEvent(t, events)
	assert.Equal(t, path, ev.Path)
}

func TestWatcher_AtomicSaveRearmsFileWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.md")
	writeFile(t, path, "a")

	w := newWatcher(t)
	require.NoError(t, w.Start(t.Context(), path))
	t.Cleanup(func() { _ = w.Stop() })
	events := collect(w)
	initial := w.FileWatchGeneration()

	time.Sleep(20 * time.Millisecond)
	tmp := filepath.Join(dir, ".x.md.swp")
	writeFile(t, tmp, "saved atomically")
	require.NoError(t, os.Rename(tmp, path))

	ev := waitEvent(t, events)
	assert.Equal(t, path, ev.Path)

	require.Eventually(t, func() bool {
		return w.FileWatchGeneration() > initial && w.HasFileWatch()
	}, eventTimeout, 10*time.Millisecond, "file watch must be re-armed on the new inode")

	drain(events, 100*time.Millisecond)

	// The re-armed watch sees a later in-place write.
	writeFile(t, path, "edited again")
	ev = waitEvent(t, events)
	assert.Equal(t, path, ev.Path)
}

func TestWatcher_UnrelatedFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.md")
	writeFile(t, path, "a")

	w := newWatcher(t)
	require.NoError(t, w.Start(t.Context(), path))
	t.Cleanup(func() { _ = w.Stop() })
	events := collect(w)

	writeFile(t, filepath.Join(dir, "other.txt"), "noise")

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_DeleteAndRecreate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.md")
	writeFile(t, path, "a")

	w := newWatcher(t)
	require.NoError(t, w.Start(t.Context(), path))
	t.Cleanup(func() { _ = w.Stop() })
	events := collect(w)

	require.NoError(t, os.Remove(path))
	waitEvent(t, events)
	require.Eventually(t, func() bool { return !w.HasFileWatch() }, eventTimeout, 10*time.Millisecond)
	drain(events, 100*time.Millisecond)

	writeFile(t, path, "back")
	waitEvent(t, events)
	require.Eventually(t, w.HasFileWatch, eventTimeout, 10*time.Millisecond)
}

func TestWatcher_Stop(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		w := newWatcher(t)
		require.NoError(t, w.Stop())
		require.NoError(t, w.Stop())
		require.Error(t, w.Start(t.Context(), filepath.Join(t.TempDir(), "x.md")))
	})

	t.Run("twice", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "x.md")
		writeFile(t, path, "a")

		w := newWatcher(t)
		require.NoError(t, w.Start(t.Context(), path))
		events := collect(w)

		require.NoError(t, w.Stop())
		require.NoError(t, w.Stop())
		assert.False(t, w.HasFileWatch())

		_, ok := <-events
		assert.False(t, ok, "event stream must end after Stop")
	})

	t.Run("context cancel", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "x.md")
		writeFile(t, path, "a")

		w := newWatcher(t)
		ctx, cancel := context.WithCancel(t.Context())
		require.NoError(t, w.Start(ctx, path))
		events := collect(w)

		cancel()
		select {
		case _, ok := <-events:
			assert.False(t, ok)
		case <-time.After(eventTimeout):
			t.Fatal("watcher did not stop on context cancel")
		}
	})
}

func TestWatcher_StartMissingDirectory(t *testing.T) {
	w := newWatcher(t)
	err := w.Start(t.Context(), filepath.Join(t.TempDir(), "missing", "x.md"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrWatcherStartFailed.Error())
}
