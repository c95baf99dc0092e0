// Package loadtest drives a running loftmatch server with generated
// datasets and concurrent scoring requests, then cross-checks the ranking
// endpoint against the individual scores it collected.
package loadtest

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Defaults used when a Config field is left zero.
const (
	DefaultBaseURL     = "http://localhost:9080"
	DefaultIndividuals = 200
	DefaultPairs       = 2000
	DefaultTimeout     = 30 * time.Second

	workerChannelMultiplier = 2
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid load test config")

// Config holds configuration for a load test run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Individuals int           // Size of the generated loft
	Pairs       int           // Number of pairs to score
	Workers     int           // Number of concurrent request workers
	Timeout     time.Duration // HTTP request timeout
	Seed        uint64        // Seed for the loft and the pair draw
	Keep        bool          // Keep the dataset on the server afterwards
}

// WithDefaults returns a copy of c with zero fields filled in.
func (c Config) WithDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Individuals == 0 {
		c.Individuals = DefaultIndividuals
	}
	if c.Pairs == 0 {
		c.Pairs = DefaultPairs
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU() * workerChannelMultiplier
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Validate checks the values a run cannot start with.
func (c Config) Validate() error {
	switch {
	case c.Individuals < 2:
		return fmt.Errorf("%w: individuals must be at least 2", ErrInvalidConfig)
	case c.Pairs < 0:
		return fmt.Errorf("%w: pairs must not be negative", ErrInvalidConfig)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive", ErrInvalidConfig)
	case c.Timeout < 0:
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Stats holds the outcome of a run.
type Stats struct {
	SessionID      string        `json:"session_id"`
	Individuals    int           `json:"individuals"`
	PairsSubmitted int           `json:"pairs_submitted"`
	PairsScored    int           `json:"pairs_scored"`
	PairsRejected  int           `json:"pairs_rejected"`
	PairsFailed    int           `json:"pairs_failed"`
	MatchesChecked int           `json:"matches_checked"`
	Mismatches     []string      `json:"mismatches,omitempty"`
	Duration       time.Duration `json:"duration"`
	PairsPerSecond float64       `json:"pairs_per_second"`
}
