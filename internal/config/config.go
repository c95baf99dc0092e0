// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and LOFT_ environment variables over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/loftmatch/internal/domain/scoring"
	"github.com/okian/loftmatch/internal/domain/traits"
)

// Default limits.
const (
	defaultMaxUploadBytes = 10 << 20
	defaultMaxSessions    = 64
	defaultQueueSize      = 1024
)

// TraitsConfig overrides the categorical trait tables.
type TraitsConfig struct {
	Color   map[string]float64 `koanf:"color"`
	Head    map[string]float64 `koanf:"head"`
	Feather map[string]float64 `koanf:"feather"`

	// Default is the score of labels missing from a table.
	Default float64 `koanf:"default"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MaxUploadBytes caps the size of an uploaded dataset.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// MaxSessions bounds the number of datasets held in memory.
	MaxSessions int `koanf:"max_sessions"`

	// SampleData optionally names a dataset file loaded at server start.
	SampleData string `koanf:"sample_data"`

	// Workers is the number of goroutines ranking partners. Zero means one
	// per CPU.
	Workers int `koanf:"workers"`

	// QueueSize bounds the pair jobs waiting for a worker.
	QueueSize int `koanf:"queue_size"`

	// FirstMatch accepts duplicate IDs and scores the first match.
	FirstMatch bool `koanf:"first_match"`

	// TargetWeight is the reference weight in grams.
	TargetWeight float64 `koanf:"target_weight"`

	// Weights are the default trait coefficients.
	Weights scoring.Weights `koanf:"weights"`

	// Traits holds the categorical value tables.
	Traits TraitsConfig `koanf:"traits"`
}

// New creates a Config populated with defaults.
func New() *Config {
	tables := traits.DefaultTables()
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		MaxUploadBytes: defaultMaxUploadBytes,
		MaxSessions:    defaultMaxSessions,
		QueueSize:      defaultQueueSize,
		TargetWeight:   scoring.DefaultTargetWeight,
		Weights:        scoring.DefaultWeights(),
		Traits: TraitsConfig{
			Color:   tables[traits.Color],
			Head:    tables[traits.Head],
			Feather: tables[traits.Feather],
			Default: traits.DefaultValue,
		},
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MaxUploadBytes <= 0:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	case c.MaxSessions <= 0:
		return fmt.Errorf("%w: max_sessions must be positive", ErrInvalidConfig)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case math.IsNaN(c.TargetWeight) || math.IsInf(c.TargetWeight, 0):
		return fmt.Errorf("%w: target_weight must be finite", ErrInvalidConfig)
	case math.IsNaN(c.Traits.Default) || math.IsInf(c.Traits.Default, 0):
		return fmt.Errorf("%w: traits.default must be finite", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: weights: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Normalizer builds the trait normalizer described by the Traits section.
func (c *Config) Normalizer() *traits.Normalizer {
	return traits.NewNormalizer(
		traits.WithTable(traits.Color, c.Traits.Color),
		traits.WithTable(traits.Head, c.Traits.Head),
		traits.WithTable(traits.Feather, c.Traits.Feather),
		traits.WithDefault(c.Traits.Default),
	)
}
