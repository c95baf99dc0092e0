// Package scoring computes the compatibility of a male/female pair from
// weighted per-trait differences.
package scoring

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/loftmatch/internal/domain/model"
	"github.com/okian/loftmatch/internal/domain/traits"
)

// Scoring constants.
const (
	maxScoreValue       = 100
	weightScale         = 10
	minWeightDivisor    = 1
	scoreDecimals       = 2
	weightedSumDecimals = 3
)

// Differences holds the absolute per-trait differences of a pair. Weight is
// already scaled relative to the target weight.
type Differences struct {
	Color   float64 `json:"color" yaml:"color"`
	Weight  float64 `json:"weight" yaml:"weight"`
	Head    float64 `json:"head" yaml:"head"`
	Feather float64 `json:"feather" yaml:"feather"`
	Power   float64 `json:"power" yaml:"power"`
	Health  float64 `json:"health" yaml:"health"`
}

// Result is the outcome of scoring one pair.
type Result struct {
	MaleID        string      `json:"male_id" yaml:"male_id"`
	FemaleID      string      `json:"female_id" yaml:"female_id"`
	Differences   Differences `json:"differences" yaml:"differences"`
	WeightedSum   float64     `json:"weighted_sum" yaml:"weighted_sum"`   // rounded to 3 decimals
	Compatibility float64     `json:"compatibility" yaml:"compatibility"` // in [0, 100]
}

// Scorer computes a compatibility result for a pair.
type Scorer interface {
	Score(male, female model.Individual, w Weights, targetWeight float64) (Result, error)
}

// Option applies a configuration option to the PairScorer.
type Option func(*PairScorer)

// WithNormalizer sets the categorical trait normalizer.
func WithNormalizer(n *traits.Normalizer) Option {
	return func(s *PairScorer) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// PairScorer implements Scorer. It holds no mutable state and is safe for
// concurrent use.
type PairScorer struct {
	normalizer *traits.Normalizer
}

// NewScorer creates a scorer using the built-in trait tables unless overridden.
func NewScorer(opts ...Option) *PairScorer {
	s := &PairScorer{normalizer: traits.NewNormalizer()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Normalizer returns the trait normalizer used by the scorer.
func (s *PairScorer) Normalizer() *traits.Normalizer {
	return s.normalizer
}

// Score validates both records and the weights, then computes the pair's
// differences, weighted sum and compatibility score.
func (s *PairScorer) Score(male, female model.Individual, w Weights, targetWeight float64) (Result, error) {
	mn, err := parseNumeric(male)
	if err != nil {
		return Result{}, err
	}
	fn, err := parseNumeric(female)
	if err != nil {
		return Result{}, err
	}
	if err := ValidateParams(w, targetWeight); err != nil {
		return Result{}, err
	}

	mv := s.normalizer.Profile(male)
	fv := s.normalizer.Profile(female)

	d := Differences{
		Color:   math.Abs(mv.Color - fv.Color),
		Head:    math.Abs(mv.Head - fv.Head),
		Feather: math.Abs(mv.Feather - fv.Feather),
		Weight:  math.Abs(mn.weight-fn.weight) / math.Max(minWeightDivisor, targetWeight) * weightScale,
		Power:   math.Abs(mn.power - fn.power),
		Health:  math.Abs(mn.health - fn.health),
	}

	sum := d.Color*w.Color + d.Head*w.Head + d.Feather*w.Feather +
		d.Weight*w.Weight + d.Power*w.Power + d.Health*w.Health

	return Result{
		MaleID:        male.ID,
		FemaleID:      female.ID,
		Differences:   d,
		WeightedSum:   round(sum, weightedSumDecimals),
		Compatibility: math.Max(0, round(maxScoreValue-sum, scoreDecimals)),
	}, nil
}

// ValidateParams checks the coefficients and the target weight.
func ValidateParams(w Weights, targetWeight float64) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if math.IsNaN(targetWeight) || math.IsInf(targetWeight, 0) {
		return &InvalidWeightsError{Field: "TargetWeight", Reason: "must be finite"}
	}
	return nil
}

type numeric struct {
	weight float64
	power  float64
	health float64
}

// parseNumeric reads the numeric traits of ind, rejecting absent records and
// empty, non-numeric or non-finite values.
func parseNumeric(ind model.Individual) (numeric, error) {
	if ind.ID == "" {
		return numeric{}, &InvalidRecordError{Field: "ID", Value: ""}
	}
	var n numeric
	for _, f := range []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"Weight", ind.Weight, &n.weight},
		{"Power", ind.Power, &n.power},
		{"Health", ind.Health, &n.health},
	} {
		v, err := parseDecimal(f.raw)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return numeric{}, &InvalidRecordError{ID: ind.ID, Field: f.name, Value: f.raw}
		}
		*f.dst = v
	}
	return n, nil
}

// parseDecimal parses a base 10 number. strconv also accepts hexadecimal
// floats such as "0x1p3"; those are rejected.
func parseDecimal(raw string) (float64, error) {
	digits := strings.TrimLeft(raw, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(raw, 64)
}

// round rounds x to the given number of decimals from its exact binary
// value, breaking exact ties to even: 99.625 becomes 99.62 and 0.0625
// becomes 0.06.
func round(x float64, decimals int) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', decimals, 64), 64)
	if err != nil {
		return x
	}
	return v
}
