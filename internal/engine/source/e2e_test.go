package source_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mkd/internal/adapters/ssh"
	"go.trai.ch/mkd/internal/adapters/ssh/sshtest"
	"go.trai.ch/mkd/internal/adapters/telemetry"
	"go.trai.ch/mkd/internal/adapters/watcher"
	"go.trai.ch/mkd/internal/core/domain"
	"go.trai.ch/mkd/internal/core/ports/mocks"
	"go.trai.ch/mkd/internal/engine/dispatch"
	"go.trai.ch/mkd/internal/engine/source"
	"go.uber.org/mock/gomock"
)

const (
	settle      = 500 * time.Millisecond
	pulseWithin = 3 * time.Second
)

// counter records change pulses and lets the test wait for them.
type counter struct {
	n      atomic.Int32
	signal chan struct{}
}

func newCounter() *counter {
	return &counter{signal: make(chan struct{}, 64)}
}

func (c *counter) pulse() {
	c.n.Add(1)
	c.signal <- struct{}{}
}

func (c *counter) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.signal:
	case <-time.After(pulseWithin):
		t.Fatal("timed out waiting for change pulse")
	}
}

func quietLogger(t *testing.T) *mocks.MockLogger {
	t.Helper()
	l := mocks.NewMockLogger(gomock.NewController(t))
	l.EXPECT().Debug(gomock.Any()).AnyTimes()
	l.EXPECT().Warn(gomock.Any()).AnyTimes()
	return l
}

func newQueue(t *testing.T) *dispatch.Queue {
	t.Helper()
	q := dispatch.NewQueue()
	t.Cleanup(q.Close)
	return q
}

func TestLocalSource_EndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.md")
	require.NoError(t, os.WriteFile(path, []byte("a"), domain.PrivateFilePerm))

	logger := quietLogger(t)
	src := source.NewLocalSource(
		domain.Target{Path: path},
		watcher.NewWatcher(logger),
		newQueue(t),
		domain.DefaultSettings().Watch,
		logger,
		telemetry.NewNoOpTracer(),
	)
	t.Cleanup(src.Stop)

	c := newCounter()
	require.NoError(t, src.Start(c.pulse))

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("b"), domain.PrivateFilePerm))
	c.wait(t)
	time.Sleep(settle)
	assert.Equal(t, int32(1), c.n.Load(), "a direct write pulses once")

	got, err := src.FetchContent(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "b", got)

	// Atomic save: write a sibling and rename it over the file.
	tmp := filepath.Join(filepath.Dir(path), ".x.md.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("c"), domain.PrivateFilePerm))
	require.NoError(t, os.Rename(tmp, path))
	c.wait(t)
	time.Sleep(settle)
	assert.Equal(t, int32(2), c.n.Load(), "an atomic save pulses once")

	// The re-armed watch sees a write to the new inode.
	require.NoError(t, os.WriteFile(path, []byte("d"), domain.PrivateFilePerm))
	c.wait(t)
	time.Sleep(settle)
	assert.Equal(t, int32(3), c.n.Load())

	got, err = src.FetchContent(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "d", got)

	src.Stop()
	src.Stop()
	require.NoError(t, os.WriteFile(path, []byte("e"), domain.PrivateFilePerm))
	time.Sleep(settle)
	assert.Equal(t, int32(3), c.n.Load(), "no pulses after Stop")
}

// fakeFswatch reports one change on its first run and then blocks like a quiet fswatch.
const fakeFswatch = `#!/bin/sh
if [ ! -e "$MKD_FAKE_FSWATCH_STATE" ]; then
  : > "$MKD_FAKE_FSWATCH_STATE"
  sleep 0.2
  exit 0
fi
exec sleep 3600
`

func TestRemoteSource_EndToEnd(t *testing.T) {
	bin := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bin, "fswatch"), []byte(fakeFswatch), 0o755)) //nolint:gosec // test tool
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))
	t.Setenv("MKD_FAKE_FSWATCH_STATE", filepath.Join(t.TempDir(), "fired"))

	path := filepath.Join(t.TempDir(), "notes.md")
	content := "# Remote\r\n\nbytes kept verbatim\n"
	require.NoError(t, os.WriteFile(path, []byte(content), domain.PrivateFilePerm))

	logger := quietLogger(t)
	settings := domain.DefaultSettings()
	settings.SSH.Binary = sshtest.Install(t)
	session := ssh.NewSession("box", filepath.Join(t.TempDir(), "ctl"), settings.SSH, logger, telemetry.NewNoOpTracer())

	src := source.NewRemoteSource(
		domain.Target{Host: "box", Path: path},
		session,
		newQueue(t),
		settings.Watch,
		logger,
		telemetry.NewNoOpTracer(),
	)
	t.Cleanup(src.Stop)

	statuses := make(chan domain.ConnectionStatus, 8)
	src.OnStatus(func(s domain.ConnectionStatus) { statuses <- s })

	got, err := src.FetchContent(t.Context())
	require.NoError(t, err)
	assert.Equal(t, content, got)

	c := newCounter()
	require.NoError(t, src.Start(c.pulse))
	c.wait(t)
	time.Sleep(settle)

	assert.Equal(t, int32(1), c.n.Load(), "one marker line pulses once")
	assert.Equal(t, domain.StrategyPushPrimary, src.Strategy())
	assert.Equal(t, domain.StatusConnected, <-statuses)

	src.Stop()
	select {
	case <-src.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("remote worker did not exit after Stop")
	}
}
