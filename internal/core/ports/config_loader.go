package ports

import "go.trai.ch/mkd/internal/core/domain"

// ConfigLoader defines the interface for loading the runtime configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration file at path, or the default location when path
	// is empty. A missing default file yields domain.DefaultSettings.
	Load(path string) (domain.Settings, error)
}
