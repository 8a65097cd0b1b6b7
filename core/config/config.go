// Package config holds the settings of the surgery command: which metadata
// backend to activate, copy policy and the watch/probe pipelines.
package config

import (
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/ankit-chaubey/metadata-surgery/core/audio"
	"github.com/ankit-chaubey/metadata-surgery/core/image"
	"github.com/ankit-chaubey/metadata-surgery/core/jpg"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Backend BackendConfig     `yaml:"backend"`
	Copy    CopyConfig        `yaml:"copy"`
	Watch   WatchConfig       `yaml:"watch"`
	Probe   ProbeConfig       `yaml:"probe"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Backend.Validate(); err != nil {
		return err
	}
	if err := c.Watch.Validate(); err != nil {
		return err
	}
	return c.Probe.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// BackendConfig selects the metadata backend registered at start-up.
type BackendConfig struct {
	Name string `yaml:"name"`
}

// BackendNames lists the backends that can be selected.
var BackendNames = []string{image.BackendName, jpg.BackendName, audio.BackendName}

// Validate validates the backend configuration.
func (c *BackendConfig) Validate() error {
	names := make([]any, len(BackendNames))
	for i, n := range BackendNames {
		names[i] = n
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Name, validation.Required, validation.In(names...)),
	)
}

// CopyConfig holds the defaults of the copy command.
type CopyConfig struct {
	ResetOrientation bool `yaml:"reset_orientation"`
}

// WatchConfig pairs a directory of originals with a directory of derived
// images (thumbnails, conversions) that should inherit their metadata.
type WatchConfig struct {
	Source   string        `yaml:"source"`
	Derived  string        `yaml:"derived"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// Ready reports whether both directories are configured.
func (c *WatchConfig) Ready() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Source, validation.Required),
		validation.Field(&c.Derived, validation.Required),
	)
}

// ProbeConfig bounds the concurrency of the probe command.
type ProbeConfig struct {
	Workers int `yaml:"workers"`
}

// Validate validates the probe configuration. Zero means one worker per CPU.
func (c *ProbeConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Min(0)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Backend: BackendConfig{
			Name: image.BackendName,
		},
		Copy: CopyConfig{
			ResetOrientation: true,
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
		},
	}
}
