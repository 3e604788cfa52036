package domain

import (
	"time"

	"go.trai.ch/zerr"
)

// Output modes accepted by --output-mode and output.mode.
const (
	OutputModeAuto   = "auto"
	OutputModeTUI    = "tui"
	OutputModeLinear = "linear"
)

// Log formats accepted by --log-format.
const (
	LogFormatPretty = "pretty"
	LogFormatJSON   = "json"
)

// Settings is the resolved runtime configuration.
type Settings struct {
	SSH    SSHSettings
	Watch  WatchSettings
	Output OutputSettings
}

// SSHSettings configures the multiplexed ssh session.
type SSHSettings struct {
	Binary              string
	ConnectTimeout      time.Duration
	ControlPersist      time.Duration
	ServerAliveInterval time.Duration
	ServerAliveCountMax int
	CommandTimeout      time.Duration
}

// WatchSettings configures change detection timing.
type WatchSettings struct {
	LocalDebounce    time.Duration
	RemoteDebounce   time.Duration
	PollInterval     time.Duration
	ReconnectBackoff time.Duration
}

// OutputSettings configures presentation and logging.
type OutputSettings struct {
	Mode      string
	LogFile   string
	LogFormat string
	Verbose   bool
}

// DefaultSettings returns the built-in configuration.
func DefaultSettings() Settings {
	return Settings{
		SSH: SSHSettings{
			Binary:              "ssh",
			ConnectTimeout:      5 * time.Second,
			ControlPersist:      60 * time.Second,
			ServerAliveInterval: 15 * time.Second,
			ServerAliveCountMax: 3,
			CommandTimeout:      10 * time.Second,
		},
		Watch: WatchSettings{
			LocalDebounce:    100 * time.Millisecond,
			RemoteDebounce:   150 * time.Millisecond,
			PollInterval:     2 * time.Second,
			ReconnectBackoff: 3 * time.Second,
		},
		Output: OutputSettings{
			Mode:      OutputModeAuto,
			LogFormat: LogFormatPretty,
		},
	}
}

// Validate checks that every value is usable.
func (s Settings) Validate() error {
	switch s.Output.Mode {
	case OutputModeAuto, OutputModeTUI, OutputModeLinear:
	default:
		return zerr.With(zerr.Wrap(ErrInvalidOutputMode, "output.mode"), "value", s.Output.Mode)
	}

	switch s.Output.LogFormat {
	case LogFormatPretty, LogFormatJSON:
	default:
		return zerr.With(zerr.Wrap(ErrInvalidLogFormat, "log format"), "value", s.Output.LogFormat)
	}

	if s.SSH.Binary == "" {
		return zerr.Wrap(ErrInvalidSetting, "ssh.binary must not be empty")
	}
	if s.SSH.ServerAliveCountMax < 1 {
		return zerr.With(zerr.Wrap(ErrInvalidSetting, "ssh.serverAliveCountMax must be positive"),
			"value", s.SSH.ServerAliveCountMax)
	}

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"ssh.connectTimeout", s.SSH.ConnectTimeout},
		{"ssh.controlPersist", s.SSH.ControlPersist},
		{"ssh.serverAliveInterval", s.SSH.ServerAliveInterval},
		{"ssh.commandTimeout", s.SSH.CommandTimeout},
		{"watch.localDebounce", s.Watch.LocalDebounce},
		{"watch.remoteDebounce", s.Watch.RemoteDebounce},
		{"watch.pollInterval", s.Watch.PollInterval},
		{"watch.reconnectBackoff", s.Watch.ReconnectBackoff},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return zerr.With(zerr.Wrap(ErrInvalidSetting, d.name+" must be positive"), "value", d.d.String())
		}
	}
	return nil
}
