// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/okian/loftmatch/internal/domain/scoring"
)

// ScoreRequest selects a pair from a session. Coefficients missing from
// Weights and a nil TargetWeight fall back to the service defaults.
type ScoreRequest struct {
	SessionID    string
	MaleID       string
	FemaleID     string
	Weights      *scoring.WeightOverrides
	TargetWeight *float64
}

// MatchRequest ranks every opposite-gender partner of one individual.
// Side names the subject's gender. Limit below one returns all partners.
type MatchRequest struct {
	SessionID    string
	ID           string
	Side         string
	Limit        int
	Weights      *scoring.WeightOverrides
	TargetWeight *float64
}

// Match is one ranked partner.
type Match struct {
	Partner       Candidate `json:"partner" yaml:"partner"`
	Compatibility float64   `json:"compatibility" yaml:"compatibility"`
	WeightedSum   float64   `json:"weighted_sum" yaml:"weighted_sum"`
	Band          string    `json:"band" yaml:"band"`
}

// Matches is a ranked partner list, best first.
type Matches struct {
	SessionID string    `json:"session_id" yaml:"session_id"`
	Subject   Candidate `json:"subject" yaml:"subject"`
	Side      string    `json:"side" yaml:"side"`
	Scored    int       `json:"scored" yaml:"scored"`
	Matches   []Match   `json:"matches" yaml:"matches"`

	// Skipped lists partners whose records could not be scored.
	Skipped []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Candidate is one selectable individual as listed to clients.
type Candidate struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Label     string `json:"label" yaml:"label"`
	Color     string `json:"color" yaml:"color"`
	ImagePath string `json:"image_path,omitempty" yaml:"image_path,omitempty"`
}

// Candidates lists both breeding sides of a dataset.
type Candidates struct {
	SessionID string      `json:"session_id" yaml:"session_id"`
	Males     []Candidate `json:"males" yaml:"males"`
	Females   []Candidate `json:"females" yaml:"females"`
}

// DatasetSummary describes a loaded dataset.
type DatasetSummary struct {
	SessionID   string    `json:"session_id" yaml:"session_id"`
	Name        string    `json:"name" yaml:"name"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	Individuals int       `json:"individuals" yaml:"individuals"`
	Males       int       `json:"males" yaml:"males"`
	Females     int       `json:"females" yaml:"females"`
	Unknown     int       `json:"unknown" yaml:"unknown"`

	// DuplicateIDs lists IDs shared by several individuals of the same
	// gender. Selecting such an ID fails unless first-match is enabled.
	DuplicateIDs []string `json:"duplicate_ids,omitempty" yaml:"duplicate_ids,omitempty"`
}

// Stats is a point-in-time view of service activity.
type Stats struct {
	Sessions       int    `json:"sessions"`
	MaxSessions    int    `json:"max_sessions"`
	Evicted        int64  `json:"evicted"`
	DatasetsLoaded int64  `json:"datasets_loaded"`
	PairsScored    int64  `json:"pairs_scored"`
	ScoringErrors  int64  `json:"scoring_errors"`
	Uptime         string `json:"uptime"`
}
