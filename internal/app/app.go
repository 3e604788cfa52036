// Package app implements the application layer for mkd.
package app

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/mkd/internal/adapters/detector"
	"go.trai.ch/mkd/internal/adapters/linear"
	"go.trai.ch/mkd/internal/adapters/telemetry"
	"go.trai.ch/mkd/internal/adapters/tui"
	"go.trai.ch/mkd/internal/adapters/watcher"
	"go.trai.ch/mkd/internal/core/domain"
	"go.trai.ch/mkd/internal/core/ports"
	"go.trai.ch/mkd/internal/engine/dispatch"
	"go.trai.ch/mkd/internal/engine/source"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	sessions     ports.SessionFactory
	tracer       ports.Tracer
	teaOptions   []tea.ProgramOption
	stdout       io.Writer
	stderr       io.Writer
	detect       func() detector.OutputMode
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	sessions ports.SessionFactory,
	tracer ports.Tracer,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		sessions:     sessions,
		tracer:       tracer,
		stdout:       os.Stdout,
		stderr:       os.Stderr,
		detect:       detector.DetectEnvironment,
	}
}

// WithTeaOptions adds bubbletea program options to the App.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// WithOutput sets the streams used for file content and diagnostics.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithDetector replaces terminal detection for the auto output mode.
func (a *App) WithDetector(detect func() detector.OutputMode) *App {
	a.detect = detect
	return a
}

// RunOptions configuration for the Run method.
// Empty strings keep the value from the configuration file.
type RunOptions struct {
	ConfigPath string
	OutputMode string
	LogFormat  string
	Verbose    bool
	Once       bool
}

// Run shows the file named by arg and follows its changes until the viewer
// exits or ctx is canceled.
//
//nolint:cyclop // orchestration function
func (a *App) Run(ctx context.Context, arg string, opts RunOptions) error {
	// 1. Load configuration
	settings, err := a.loadSettings(opts)
	if err != nil {
		return err
	}

	// 2. Validate the target
	target, err := ResolveTarget(arg)
	if err != nil {
		return err
	}

	// 3. Pick the output mode and route logs away from the viewer
	mode := detector.ModeLinear
	if !opts.Once {
		mode = detector.ResolveMode(a.detect(), settings.Output.Mode)
	}

	restoreLog, err := a.configureLogger(settings.Output, mode)
	if err != nil {
		return err
	}
	defer restoreLog()

	// 4. Initialize Telemetry
	// Spans end up in the debug log through the bridge.
	tp := setupOTel(telemetry.NewBridge(a.logger))
	defer func() {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
	}()

	// 5. Build the change source and load the first version
	queue := dispatch.NewQueue()
	defer queue.Close()

	src := a.newSource(target, settings, queue)
	defer src.Stop()

	content, err := src.FetchContent(ctx)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrInitialLoadFailed.Error()), "target", target.DisplayPath())
	}

	if opts.Once {
		linear.NewRenderer(target, a.stdout, a.stderr).OnContent(content)
		return nil
	}

	// 6. Run the renderer and follow changes
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	renderer := a.newRenderer(gctx, mode, target)
	p := newPresenter(renderer, a.logger)

	// Every renderer call goes through the queue, so the first version is shown
	// before any refresh.
	queue.Dispatch(func() { p.show(content) })

	if ss, ok := src.(ports.StatusSource); ok {
		ss.OnStatus(renderer.OnStatus)
	}
	if err := src.Start(func() { a.refresh(gctx, src, p) }); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to watch file"), "target", target.DisplayPath())
	}

	// Renderer Routine
	g.Go(func() error {
		// The session ends with the viewer.
		defer cancel()

		if err := renderer.Start(gctx); err != nil {
			return zerr.Wrap(err, domain.ErrRendererFailed.Error())
		}
		err := renderer.Wait()
		if err == nil || ctx.Err() != nil || errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return zerr.Wrap(err, domain.ErrRendererFailed.Error())
	})

	// Shutdown Routine
	g.Go(func() error {
		<-gctx.Done()
		return renderer.Stop()
	})

	return g.Wait()
}

// ResolveTarget parses arg and, for local files, expands it to an absolute path
// that must exist and carry a markdown extension.
func ResolveTarget(arg string) (domain.Target, error) {
	target, err := domain.ParseTarget(arg)
	if err != nil || target.IsRemote() {
		return target, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "~"
	}
	cwd, err := os.Getwd()
	if err != nil {
		return domain.Target{}, zerr.Wrap(err, "failed to get working directory")
	}
	target.Path = domain.ExpandLocalPath(target.Path, home, cwd)

	info, err := os.Stat(target.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return domain.Target{}, zerr.With(zerr.Wrap(domain.ErrFileNotFound, "invalid target"), "path", target.Path)
	case err != nil:
		return domain.Target{}, zerr.With(zerr.Wrap(err, domain.ErrFileReadFailed.Error()), "path", target.Path)
	case info.IsDir():
		return domain.Target{}, zerr.With(zerr.Wrap(domain.ErrNotMarkdown, "path is a directory"), "path", target.Path)
	}

	if !domain.IsMarkdown(target.Path) {
		return domain.Target{}, zerr.With(zerr.Wrap(domain.ErrNotMarkdown, "invalid target"), "path", target.Path)
	}
	return target, nil
}

func (a *App) loadSettings(opts RunOptions) (domain.Settings, error) {
	settings, err := a.configLoader.Load(opts.ConfigPath)
	if err != nil {
		return settings, zerr.Wrap(err, "failed to load configuration")
	}

	if opts.OutputMode != "" {
		settings.Output.Mode = opts.OutputMode
	}
	if opts.LogFormat != "" {
		settings.Output.LogFormat = opts.LogFormat
	}
	if opts.Verbose {
		settings.Output.Verbose = true
	}

	if err := settings.Validate(); err != nil {
		return settings, err
	}
	return settings, nil
}

// configureLogger applies the log settings. In TUI mode logs go to the debug log
// file so they do not corrupt the screen. The returned func restores stderr.
func (a *App) configureLogger(out domain.OutputSettings, mode detector.OutputMode) (func(), error) {
	cl, ok := a.logger.(ports.ConfigurableLogger)
	if !ok {
		return func() {}, nil
	}

	cl.SetJSON(out.LogFormat == domain.LogFormatJSON)
	cl.SetVerbose(out.Verbose)

	if mode != detector.ModeTUI {
		cl.SetOutput(a.stderr)
		return func() {}, nil
	}

	path := out.LogFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrLogFileOpenFailed.Error())
		}
		path = domain.DefaultDebugLogPath(home)
	}

	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLogFileOpenFailed.Error()), "path", path)
	}
	//nolint:gosec // path comes from the user's own configuration
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, domain.PrivateFilePerm)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrLogFileOpenFailed.Error()), "path", path)
	}

	cl.SetOutput(f)
	return func() {
		cl.SetOutput(a.stderr)
		_ = f.Close()
	}, nil
}

func (a *App) newSource(target domain.Target, settings domain.Settings, dispatcher ports.Dispatcher) ports.ChangeSource {
	if target.IsRemote() {
		session := a.sessions.Open(target.Host, settings.SSH)
		return source.NewRemoteSource(target, session, dispatcher, settings.Watch, a.logger, a.tracer)
	}
	return source.NewLocalSource(target, watcher.NewWatcher(a.logger), dispatcher, settings.Watch, a.logger, a.tracer)
}

func (a *App) newRenderer(ctx context.Context, mode detector.OutputMode, target domain.Target) ports.Renderer {
	if mode == detector.ModeTUI {
		model := tui.NewModel(target)
		opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, a.teaOptions...)
		return tui.NewRenderer(&model, opts...)
	}
	return linear.NewRenderer(target, a.stdout, a.stderr)
}

// refresh runs on the dispatch queue after every change pulse.
// A failed fetch keeps the last shown version.
func (a *App) refresh(ctx context.Context, src ports.ChangeSource, p *presenter) {
	content, err := src.FetchContent(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.logger.Debug("refresh failed: " + err.Error())
		}
		return
	}
	p.show(content)
}

// setupOTel configures the OpenTelemetry SDK with the logging bridge.
func setupOTel(bridge *telemetry.Bridge) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(bridge),
	)

	// Register it as the global provider.
	otel.SetTracerProvider(tp)
	return tp
}
