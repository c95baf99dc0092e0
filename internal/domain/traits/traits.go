// Package traits maps categorical trait labels to numeric scores.
package traits

import (
	"strings"

	"github.com/okian/loftmatch/internal/domain/model"
)

// Trait names one categorical attribute with its own lookup table.
type Trait string

// Categorical traits.
const (
	Color   Trait = "color"
	Head    Trait = "head"
	Feather Trait = "feather"
)

// DefaultValue is returned for labels missing from a table.
const DefaultValue = 7.0

// Table maps a trimmed, lowercased label to its score.
type Table map[string]float64

// DefaultTables returns fresh copies of the built-in lookup tables.
func DefaultTables() map[Trait]Table {
	return map[Trait]Table{
		Color:   {"white": 10, "gray": 8, "black": 6, "brown": 7},
		Head:    {"long": 10, "medium": 7, "short": 5},
		Feather: {"smooth": 10, "medium": 7, "rough": 4},
	}
}

// Values holds the numeric scores of one individual's categorical traits.
type Values struct {
	Color   float64 `json:"color" yaml:"color"`
	Head    float64 `json:"head" yaml:"head"`
	Feather float64 `json:"feather" yaml:"feather"`
}

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithTable replaces the lookup table of a trait. Labels are normalized
// the same way as lookups so "White " and "white" are one key.
func WithTable(trait Trait, table map[string]float64) Option {
	return func(n *Normalizer) {
		if table == nil {
			return
		}
		n.tables[trait] = normalizeTable(table)
	}
}

// WithTables replaces every table present in tables.
func WithTables(tables map[Trait]Table) Option {
	return func(n *Normalizer) {
		for trait, t := range tables {
			WithTable(trait, t)(n)
		}
	}
}

// WithDefault sets the score used for unknown labels.
func WithDefault(v float64) Option {
	return func(n *Normalizer) {
		n.fallback = v
	}
}

// Normalizer resolves categorical labels. It is immutable after construction
// and safe for concurrent use.
type Normalizer struct {
	tables   map[Trait]Table
	fallback float64
}

// NewNormalizer creates a normalizer with the built-in tables and options applied.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		tables:   DefaultTables(),
		fallback: DefaultValue,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize returns the score of raw for trait. It never fails: unknown
// traits and unknown labels resolve to the default value.
func (n *Normalizer) Normalize(trait Trait, raw string) float64 {
	t, ok := n.tables[trait]
	if !ok {
		return n.fallback
	}
	v, ok := t[key(raw)]
	if !ok {
		return n.fallback
	}
	return v
}

// Profile normalizes the categorical traits of ind.
func (n *Normalizer) Profile(ind model.Individual) Values {
	return Values{
		Color:   n.Normalize(Color, ind.Color),
		Head:    n.Normalize(Head, ind.Head),
		Feather: n.Normalize(Feather, ind.Feather),
	}
}

// Default returns the fallback score.
func (n *Normalizer) Default() float64 {
	return n.fallback
}

// Table returns a copy of the lookup table for trait.
func (n *Normalizer) Table(trait Trait) Table {
	out := make(Table, len(n.tables[trait]))
	for k, v := range n.tables[trait] {
		out[k] = v
	}
	return out
}

func key(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func normalizeTable(in map[string]float64) Table {
	out := make(Table, len(in))
	for label, v := range in {
		out[key(label)] = v
	}
	return out
}
