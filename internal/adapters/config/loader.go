// Package config provides the configuration loader for mkd.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"

	"go.trai.ch/mkd/internal/core/domain"
	"go.trai.ch/mkd/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
	fs     FileSystem
	getenv func(string) string
	home   func() (string, error)
}

// NewLoader creates a new Loader reading from the real file system.
func NewLoader(logger ports.Logger) *Loader {
	return NewLoaderWithFS(logger, NewOSFS(), os.Getenv, os.UserHomeDir)
}

// NewLoaderWithFS creates a Loader with injected file system and environment lookups.
func NewLoaderWithFS(
	logger ports.Logger,
	fsys FileSystem,
	getenv func(string) string,
	home func() (string, error),
) *Loader {
	return &Loader{
		Logger: logger,
		fs:     fsys,
		getenv: getenv,
		home:   home,
	}
}

// Load reads the configuration at path. An empty path selects the default location,
// which may be absent; an explicit path must exist.
func (l *Loader) Load(path string) (domain.Settings, error) {
	settings := domain.DefaultSettings()

	explicit := path != ""
	if !explicit {
		home, err := l.home()
		if err != nil {
			l.Logger.Debug("no home directory, using default settings")
			return settings, nil
		}
		path = domain.DefaultConfigPath(l.getenv("XDG_CONFIG_HOME"), home)
	}

	data, err := l.fs.ReadFile(path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, fs.ErrNotExist):
		l.Logger.Debug("no config file at " + path + ", using defaults")
		return settings, nil
	default:
		return settings, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return settings, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}

	file.apply(&settings)

	if err := settings.Validate(); err != nil {
		return settings, zerr.With(err, "path", path)
	}

	l.Logger.Debug("loaded config from " + path)
	return settings, nil
}

func (f *File) apply(s *domain.Settings) {
	if f.SSH != nil {
		set(&s.SSH.Binary, f.SSH.Binary)
		set(&s.SSH.ConnectTimeout, f.SSH.ConnectTimeout)
		set(&s.SSH.ControlPersist, f.SSH.ControlPersist)
		set(&s.SSH.ServerAliveInterval, f.SSH.ServerAliveInterval)
		set(&s.SSH.ServerAliveCountMax, f.SSH.ServerAliveCountMax)
		set(&s.SSH.CommandTimeout, f.SSH.CommandTimeout)
	}
	if f.Watch != nil {
		set(&s.Watch.LocalDebounce, f.Watch.LocalDebounce)
		set(&s.Watch.RemoteDebounce, f.Watch.RemoteDebounce)
		set(&s.Watch.PollInterval, f.Watch.PollInterval)
		set(&s.Watch.ReconnectBackoff, f.Watch.ReconnectBackoff)
	}
	if f.Output != nil {
		set(&s.Output.Mode, f.Output.Mode)
		set(&s.Output.LogFile, f.Output.Log)
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
