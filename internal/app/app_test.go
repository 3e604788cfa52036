package app_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mkd/internal/adapters/detector"
	"go.trai.ch/mkd/internal/adapters/telemetry"
	"go.trai.ch/mkd/internal/app"
	"go.trai.ch/mkd/internal/core/domain"
	"go.trai.ch/mkd/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// syncBuffer is a bytes.Buffer safe for the queue goroutine to write while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	ctrl     *gomock.Controller
	loader   *mocks.MockConfigLoader
	logger   *mocks.MockLogger
	sessions *mocks.MockSessionFactory
	stdout   *syncBuffer
	stderr   *syncBuffer
	app      *app.App
}

func newHarness(t *testing.T, settings domain.Settings) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)

	h := &harness{
		ctrl:     ctrl,
		loader:   mocks.NewMockConfigLoader(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		sessions: mocks.NewMockSessionFactory(ctrl),
		stdout:   &syncBuffer{},
		stderr:   &syncBuffer{},
	}
	h.loader.EXPECT().Load("").Return(settings, nil).AnyTimes()
	h.logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	h.logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	h.app = app.New(h.loader, h.logger, h.sessions, telemetry.NewNoOpTracer()).
		WithOutput(h.stdout, h.stderr).
		WithDetector(func() detector.OutputMode { return detector.ModeLinear })
	return h
}

func writeMarkdown(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte(content), domain.PrivateFilePerm))
	return path
}

// runAsync starts Run and returns a func that cancels it and returns its error.
func runAsync(t *testing.T, a *app.App, arg string, opts app.RunOptions) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(ctx, arg, opts)
	}()

	return func() error {
		cancel()
		select {
		case err := <-errCh:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
			return nil
		}
	}
}

func TestApp_Run_OnceLocal(t *testing.T) {
	h := newHarness(t, domain.DefaultSettings())
	path := writeMarkdown(t, "# Notes\n\nhello")

	err := h.app.Run(context.Background(), path, app.RunOptions{Once: true})
	require.NoError(t, err)

	assert.Equal(t, "# Notes\n\nhello\n", h.stdout.String())
	assert.Empty(t, h.stderr.String())
}

func TestApp_Run_OnceRemote(t *testing.T) {
	settings := domain.DefaultSettings()
	h := newHarness(t, settings)

	session := mocks.NewMockRemoteSession(h.ctrl)
	session.EXPECT().Host().Return("box").AnyTimes()
	h.sessions.EXPECT().Open("box", settings.SSH).Return(session)
	session.EXPECT().Run(gomock.Any(), domain.ReadCommand("~/notes.md"), time.Duration(0)).
		Return([]byte("remote bytes\r\n"), nil)
	session.EXPECT().Close()

	err := h.app.Run(context.Background(), "box:notes.md", app.RunOptions{Once: true})
	require.NoError(t, err)

	assert.Equal(t, "remote bytes\r\n", h.stdout.String())
}

func TestApp_Run_InitialLoadFailure(t *testing.T) {
	h := newHarness(t, domain.DefaultSettings())

	session := mocks.NewMockRemoteSession(h.ctrl)
	session.EXPECT().Host().Return("box").AnyTimes()
	h.sessions.EXPECT().Open("box", gomock.Any()).Return(session)
	session.EXPECT().Run(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, domain.NewRemoteCommandError(255, []byte("ssh: connect to host box port 22: Connection refused\n")))
	session.EXPECT().Close()

	err := h.app.Run(context.Background(), "box:/srv/notes.md", app.RunOptions{})
	require.Error(t, err)

	assert.Contains(t, err.Error(), domain.ErrInitialLoadFailed.Error())
	assert.Contains(t, err.Error(), "Connection refused")
	require.ErrorIs(t, err, domain.ErrRemoteCommandFailed)
	assert.Empty(t, h.stdout.String(), "no viewer output on a fatal startup error")
}

func TestApp_Run_ConfigErrors(t *testing.T) {
	t.Run("loader failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		loader := mocks.NewMockConfigLoader(ctrl)
		loader.EXPECT().Load("/etc/mkd.yaml").Return(domain.Settings{}, errors.New("boom"))

		a := app.New(loader, mocks.NewMockLogger(ctrl), mocks.NewMockSessionFactory(ctrl), telemetry.NewNoOpTracer())
		err := a.Run(context.Background(), "notes.md", app.RunOptions{ConfigPath: "/etc/mkd.yaml"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load configuration")
	})

	t.Run("invalid output mode flag", func(t *testing.T) {
		h := newHarness(t, domain.DefaultSettings())
		err := h.app.Run(context.Background(), "notes.md", app.RunOptions{OutputMode: "gui"})
		require.ErrorIs(t, err, domain.ErrInvalidOutputMode)
	})

	t.Run("invalid log format flag", func(t *testing.T) {
		h := newHarness(t, domain.DefaultSettings())
		err := h.app.Run(context.Background(), "notes.md", app.RunOptions{LogFormat: "xml"})
		require.ErrorIs(t, err, domain.ErrInvalidLogFormat)
	})
}

func TestApp_Run_FollowsLocalChanges(t *testing.T) {
	h := newHarness(t, domain.DefaultSettings())
	path := writeMarkdown(t, "first")

	stop := runAsync(t, h.app, path, app.RunOptions{})

	require.Eventually(t, func() bool {
		return h.stdout.String() == "first\n"
	}, 2*time.Second, 10*time.Millisecond)

	// The watcher may still be arming when the first version appears.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("second"), domain.PrivateFilePerm))

	require.Eventually(t, func() bool {
		return h.stdout.String() == "first\nsecond\n"
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, stop())
	assert.Contains(t, h.stderr.String(), "changed")
}

func TestApp_Run_FollowsRemoteChangesByPolling(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.Watch.PollInterval = 20 * time.Millisecond
	settings.Watch.RemoteDebounce = 10 * time.Millisecond
	h := newHarness(t, settings)

	session := mocks.NewMockRemoteSession(h.ctrl)
	session.EXPECT().Host().Return("box").AnyTimes()
	h.sessions.EXPECT().Open("box", settings.SSH).Return(session)

	var reads, polls atomic.Int32
	session.EXPECT().Run(gomock.Any(), domain.ReadCommand("~/notes.md"), gomock.Any()).
		DoAndReturn(func(context.Context, string, time.Duration) ([]byte, error) {
			if reads.Add(1) == 1 {
				return []byte("first\n"), nil
			}
			return []byte("second\n"), nil
		}).AnyTimes()
	session.EXPECT().Run(gomock.Any(), domain.ToolProbeCommand(domain.ToolFswatch), gomock.Any()).
		Return(nil, domain.NewRemoteCommandError(1, nil))
	session.EXPECT().Run(gomock.Any(), domain.ToolProbeCommand(domain.ToolInotifywait), gomock.Any()).
		Return(nil, domain.NewRemoteCommandError(1, nil))
	session.EXPECT().Run(gomock.Any(), domain.PollCommand("~/notes.md"), gomock.Any()).
		DoAndReturn(func(context.Context, string, time.Duration) ([]byte, error) {
			if polls.Add(1) == 1 {
				return []byte("aaa\n"), nil
			}
			return []byte("bbb\n"), nil
		}).AnyTimes()
	session.EXPECT().Close()

	stop := runAsync(t, h.app, "box:notes.md", app.RunOptions{})

	require.Eventually(t, func() bool {
		return h.stdout.String() == "first\nsecond\n"
	}, 3*time.Second, 10*time.Millisecond)

	require.NoError(t, stop())

	stderr := h.stderr.String()
	assert.Contains(t, stderr, "connected box:~/notes.md")
	assert.Contains(t, stderr, "box:~/notes.md changed")
}

func TestApp_Run_TUIWritesDebugLog(t *testing.T) {
	ctrl := gomock.NewController(t)
	settings := domain.DefaultSettings()
	settings.Output.LogFile = filepath.Join(t.TempDir(), "logs", "debug.log")

	loader := mocks.NewMockConfigLoader(ctrl)
	loader.EXPECT().Load("").Return(settings, nil)

	log := mocks.NewMockConfigurableLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()
	log.EXPECT().SetJSON(false)
	log.EXPECT().SetVerbose(true)
	var outputs []io.Writer
	log.EXPECT().SetOutput(gomock.Any()).Do(func(w io.Writer) {
		outputs = append(outputs, w)
	}).Times(2)

	a := app.New(loader, log, mocks.NewMockSessionFactory(ctrl), telemetry.NewNoOpTracer()).
		WithTeaOptions(
			tea.WithInput(strings.NewReader("")),
			tea.WithOutput(io.Discard),
			tea.WithoutSignalHandler(),
			tea.WithoutRenderer(),
		)

	path := writeMarkdown(t, "# Viewer")
	stop := runAsync(t, a, path, app.RunOptions{OutputMode: domain.OutputModeTUI, Verbose: true})
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, stop())

	require.Len(t, outputs, 2)
	f, ok := outputs[0].(*os.File)
	require.True(t, ok, "tui mode logs to a file")
	assert.Equal(t, settings.Output.LogFile, f.Name())
	assert.FileExists(t, settings.Output.LogFile)
	assert.Equal(t, os.Stderr, outputs[1], "stderr is restored on exit")
}

func TestApp_Run_TUIQuitEndsSession(t *testing.T) {
	h := newHarness(t, domain.DefaultSettings())
	h.app.WithTeaOptions(
		tea.WithInput(strings.NewReader("q")),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
		tea.WithoutRenderer(),
	)

	path := writeMarkdown(t, "# Viewer")
	errCh := make(chan error, 1)
	go func() {
		errCh <- h.app.Run(context.Background(), path, app.RunOptions{OutputMode: domain.OutputModeTUI})
	}()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pressing q did not end the session")
	}
}

func TestResolveTarget(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "notes.md")
	upper := filepath.Join(dir, "README.MARKDOWN")
	txt := filepath.Join(dir, "notes.txt")
	mdDir := filepath.Join(dir, "folder.md")
	require.NoError(t, os.WriteFile(md, []byte("x"), domain.PrivateFilePerm))
	require.NoError(t, os.WriteFile(upper, []byte("x"), domain.PrivateFilePerm))
	require.NoError(t, os.WriteFile(txt, []byte("x"), domain.PrivateFilePerm))
	require.NoError(t, os.Mkdir(mdDir, domain.DirPerm))

	tests := []struct {
		name    string
		arg     string
		want    domain.Target
		wantErr error
	}{
		{name: "absolute", arg: md, want: domain.Target{Path: md}},
		{name: "uppercase extension", arg: upper, want: domain.Target{Path: upper}},
		{name: "remote passthrough", arg: "box:notes.md", want: domain.Target{Host: "box", Path: "~/notes.md"}},
		{name: "missing argument", arg: "", wantErr: domain.ErrMissingTarget},
		{name: "not found", arg: filepath.Join(dir, "nope.md"), wantErr: domain.ErrFileNotFound},
		{name: "missing wins over extension", arg: filepath.Join(dir, "nope.txt"), wantErr: domain.ErrFileNotFound},
		{name: "not markdown", arg: txt, wantErr: domain.ErrNotMarkdown},
		{name: "directory", arg: mdDir, wantErr: domain.ErrNotMarkdown},
		{name: "remote not markdown", arg: "box:/etc/hosts", wantErr: domain.ErrNotMarkdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := app.ResolveTarget(tt.arg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveTarget_RelativeToWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), domain.PrivateFilePerm))
	t.Chdir(dir)

	got, err := app.ResolveTarget("./notes.md")
	require.NoError(t, err)

	// The temp dir may sit behind a symlink, so compare against the cwd we chdir'd into.
	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, "notes.md"), got.Path)
}

func TestPresenter_SkipsUnchangedContent(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := mocks.NewMockRenderer(ctrl)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Debug(gomock.Any()).AnyTimes()

	gomock.InOrder(
		renderer.EXPECT().OnContent("a"),
		renderer.EXPECT().OnContent("b"),
		renderer.EXPECT().OnContent("a"),
	)

	show := app.NewPresenter(renderer, logger)
	show("a")
	show("a")
	show("b")
	show("b")
	show("a")
}
