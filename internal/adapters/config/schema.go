package config

import "time"

// File is the structure of config.yaml. Every field is optional; unset fields keep
// their defaults.
type File struct {
	SSH    *SSHSection    `yaml:"ssh"`
	Watch  *WatchSection  `yaml:"watch"`
	Output *OutputSection `yaml:"output"`
}

// SSHSection configures the ssh client.
type SSHSection struct {
	Binary              *string        `yaml:"binary"`
	ConnectTimeout      *time.Duration `yaml:"connectTimeout"`
	ControlPersist      *time.Duration `yaml:"controlPersist"`
	ServerAliveInterval *time.Duration `yaml:"serverAliveInterval"`
	ServerAliveCountMax *int           `yaml:"serverAliveCountMax"`
	CommandTimeout      *time.Duration `yaml:"commandTimeout"`
}

// WatchSection configures change detection timing.
type WatchSection struct {
	LocalDebounce    *time.Duration `yaml:"localDebounce"`
	RemoteDebounce   *time.Duration `yaml:"remoteDebounce"`
	PollInterval     *time.Duration `yaml:"pollInterval"`
	ReconnectBackoff *time.Duration `yaml:"reconnectBackoff"`
}

// OutputSection configures presentation.
type OutputSection struct {
	Mode *string `yaml:"mode"`
	Log  *string `yaml:"log"`
}
