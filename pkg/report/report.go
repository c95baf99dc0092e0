// Package report builds and renders the score breakdown of a pair.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/loftmatch/internal/domain/model"
	"github.com/okian/loftmatch/internal/domain/scoring"
)

// Band is the qualitative range a compatibility score falls in.
type Band string

// Score bands.
const (
	BandPoor Band = "poor"
	BandFair Band = "fair"
	BandGood Band = "good"
)

// Band thresholds; a score at a threshold belongs to the higher band.
const (
	fairThreshold = 50
	goodThreshold = 80
)

// BandFor classifies a compatibility score.
func BandFor(score float64) Band {
	switch {
	case score >= goodThreshold:
		return BandGood
	case score >= fairThreshold:
		return BandFair
	default:
		return BandPoor
	}
}

// Party identifies one side of the scored pair.
type Party struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Label     string `json:"label" yaml:"label"`
	ImagePath string `json:"image_path,omitempty" yaml:"image_path,omitempty"`
}

// Report is the full breakdown of one scored pair.
type Report struct {
	SessionID     string                  `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Male          Party                   `json:"male" yaml:"male"`
	Female        Party                   `json:"female" yaml:"female"`
	Compatibility float64                 `json:"compatibility" yaml:"compatibility"`
	Band          Band                    `json:"band" yaml:"band"`
	WeightedSum   float64                 `json:"weighted_sum" yaml:"weighted_sum"`
	Differences   scoring.Differences     `json:"differences" yaml:"differences"`
	Comparison    []scoring.ComparisonRow `json:"comparison" yaml:"comparison"`
	Weights       scoring.Weights         `json:"weights" yaml:"weights"`
	TargetWeight  float64                 `json:"target_weight" yaml:"target_weight"`
}

func party(ind model.Individual) Party {
	return Party{ID: ind.ID, Name: ind.Name, Label: ind.Label(), ImagePath: ind.ImagePath}
}

// New assembles a report from a scored pair.
func New(male, female model.Individual, r scoring.Result, rows []scoring.ComparisonRow, w scoring.Weights, targetWeight float64) Report {
	return Report{
		Male:          party(male),
		Female:        party(female),
		Compatibility: r.Compatibility,
		Band:          BandFor(r.Compatibility),
		WeightedSum:   r.WeightedSum,
		Differences:   r.Differences,
		Comparison:    rows,
		Weights:       w,
		TargetWeight:  targetWeight,
	}
}

// Renderer writes a report to w.
type Renderer interface {
	Render(w io.Writer, r Report) error
}

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned by RendererFor for unsupported formats.
var ErrUnknownFormat = errors.New("unknown output format")

// RendererFor returns the renderer for a format name.
func RendererFor(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return &TextRenderer{}, nil
	case FormatJSON:
		return &JSONRenderer{}, nil
	case FormatYAML, "yml":
		return &YAMLRenderer{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
