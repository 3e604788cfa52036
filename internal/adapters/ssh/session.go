// Package ssh runs remote commands over a multiplexed OpenSSH control connection.
package ssh

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.trai.ch/mkd/internal/core/domain"
	"go.trai.ch/mkd/internal/core/ports"
	"go.trai.ch/zerr"
)

// waitDelay bounds how long Wait blocks on inherited pipes after the ssh client is killed.
const waitDelay = time.Second

// Session implements ports.RemoteSession by invoking the ssh client binary.
// Every invocation shares one control socket so only the first one authenticates.
type Session struct {
	logger   ports.Logger
	tracer   ports.Tracer
	host     string
	socket   string
	settings domain.SSHSettings

	closed    atomic.Bool
	closeOnce sync.Once
}

// NewSession creates a Session for host using socket as the control path.
func NewSession(
	host string,
	socket string,
	settings domain.SSHSettings,
	logger ports.Logger,
	tracer ports.Tracer,
) *Session {
	return &Session{
		logger:   logger,
		tracer:   tracer,
		host:     host,
		socket:   socket,
		settings: settings,
	}
}

// Host returns the ssh destination.
func (s *Session) Host() string {
	return s.host
}

// Run executes command on the remote host and returns its standard output.
// A non-positive timeout uses the configured command timeout.
func (s *Session) Run(ctx context.Context, command string, timeout time.Duration) ([]byte, error) {
	if s.closed.Load() {
		return nil, zerr.With(zerr.Wrap(domain.ErrSessionClosed, "run remote command"), "host", s.host)
	}
	if timeout <= 0 {
		timeout = s.settings.CommandTimeout
	}

	ctx, span := s.tracer.Start(ctx, "ssh.run",
		ports.WithAttribute("host", s.host),
		ports.WithAttribute("command", command),
	)
	defer span.End()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := s.command(runCtx, s.args(command, false))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	span.SetAttribute("bytes", stdout.Len())
	if err == nil {
		return stdout.Bytes(), nil
	}

	err = s.classify(ctx, runCtx, err, stderr.Bytes(), timeout)
	span.RecordError(err)
	return nil, err
}

func (s *Session) classify(ctx, runCtx context.Context, err error, stderr []byte, timeout time.Duration) error {
	if ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		err = zerr.Wrap(domain.ErrRemoteTimeout, "run remote command")
		err = zerr.With(err, "host", s.host)
		return zerr.With(err, "timeout", timeout.String())
	}
	if ctx.Err() != nil {
		return zerr.Wrap(ctx.Err(), "run remote command")
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		rce := domain.NewRemoteCommandError(exitErr.ExitCode(), stderr)
		wrapped := zerr.With(zerr.Wrap(rce, "run remote command"), "host", s.host)
		return zerr.With(wrapped, "exit_code", rce.ExitCode)
	}
	return zerr.With(zerr.Wrap(err, domain.ErrSSHStartFailed.Error()), "binary", s.settings.Binary)
}

// Spawn starts command as a long-lived remote process.
// The process outlives ctx cancellation and ends only through Kill or on its own.
func (s *Session) Spawn(ctx context.Context, command string) (ports.WatchProcess, error) {
	if s.closed.Load() {
		return nil, zerr.With(zerr.Wrap(domain.ErrSessionClosed, "spawn remote command"), "host", s.host)
	}

	pctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	cmd := s.command(pctx, s.args(command, true))
	cmd.Stderr = &logWriter{logger: s.logger, prefix: s.host + ": "}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, zerr.Wrap(err, domain.ErrSSHStartFailed.Error())
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, zerr.With(zerr.Wrap(err, domain.ErrSSHStartFailed.Error()), "binary", s.settings.Binary)
	}

	s.logger.Debug("spawned remote loop on " + s.host + " (pid " + strconv.Itoa(cmd.Process.Pid) + ")")
	return &process{cmd: cmd, cancel: cancel, stdout: stdout}, nil
}

// Close tears down the control connection. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)

		ctx, cancel := context.WithTimeout(context.Background(), s.settings.CommandTimeout)
		defer cancel()

		cmd := s.command(ctx, s.exitArgs())
		if out, err := cmd.CombinedOutput(); err != nil {
			s.logger.Debug("closing control connection to " + s.host + ": " + strings.TrimSpace(string(out)))
		}
	})
}

func (s *Session) command(ctx context.Context, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, s.settings.Binary, args...) //nolint:gosec // binary is user configured
	cmd.WaitDelay = waitDelay
	isolate(cmd)
	return cmd
}

func (s *Session) args(command string, persistent bool) []string {
	args := []string{
		"-o", "ControlMaster=auto",
		"-o", "ControlPath=" + s.socket,
		"-o", "ControlPersist=" + seconds(s.settings.ControlPersist),
		"-o", "ConnectTimeout=" + seconds(s.settings.ConnectTimeout),
		"-o", "BatchMode=yes",
	}
	if persistent {
		args = append(args,
			"-o", "ServerAliveInterval="+seconds(s.settings.ServerAliveInterval),
			"-o", "ServerAliveCountMax="+strconv.Itoa(s.settings.ServerAliveCountMax),
		)
	}
	return append(args, s.host, command)
}

func (s *Session) exitArgs() []string {
	return []string{"-o", "ControlPath=" + s.socket, "-O", "exit", s.host}
}

// seconds renders d in whole seconds for ssh_config, never below 1.
func seconds(d time.Duration) string {
	return strconv.Itoa(max(1, int(d.Round(time.Second)/time.Second)))
}

// process implements ports.WatchProcess.
type process struct {
	cmd    *exec.Cmd
	cancel context.CancelFunc
	stdout io.Reader

	waitOnce sync.Once
	waitErr  error
}

func (p *process) Output() io.Reader {
	return p.stdout
}

// Wait blocks until the process exits. Read Output to EOF first.
func (p *process) Wait() error {
	p.waitOnce.Do(func() {
		p.waitErr = p.cmd.Wait()
		p.cancel()
	})
	return p.waitErr
}

// Kill terminates the process. It does not wait for it.
func (p *process) Kill() {
	p.cancel()
}

// logWriter forwards stderr lines of a persistent process to the debug log.
type logWriter struct {
	logger ports.Logger
	prefix string
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	for line := range strings.Lines(string(p)) {
		if line = strings.TrimSpace(line); line != "" {
			w.logger.Debug(w.prefix + line)
		}
	}
	return len(p), nil
}
