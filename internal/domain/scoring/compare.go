package scoring

import (
	"github.com/okian/loftmatch/internal/domain/model"
)

// ComparisonRow is one line of the side-by-side trait table. Normalized
// values are only set for categorical traits.
type ComparisonRow struct {
	Trait       string   `json:"trait" yaml:"trait"`
	Male        string   `json:"male" yaml:"male"`
	Female      string   `json:"female" yaml:"female"`
	MaleValue   *float64 `json:"male_value,omitempty" yaml:"male_value,omitempty"`
	FemaleValue *float64 `json:"female_value,omitempty" yaml:"female_value,omitempty"`
	Difference  float64  `json:"difference" yaml:"difference"`
}

// Compare builds the comparison table for a scored pair. The weight
// difference is rounded to two decimals for display.
func (s *PairScorer) Compare(male, female model.Individual, r Result) []ComparisonRow {
	mv := s.normalizer.Profile(male)
	fv := s.normalizer.Profile(female)
	ptr := func(v float64) *float64 { return &v }

	return []ComparisonRow{
		{Trait: "Color", Male: male.Color, Female: female.Color, MaleValue: ptr(mv.Color), FemaleValue: ptr(fv.Color), Difference: r.Differences.Color},
		{Trait: "Weight", Male: male.Weight, Female: female.Weight, Difference: round(r.Differences.Weight, scoreDecimals)},
		{Trait: "Head", Male: male.Head, Female: female.Head, MaleValue: ptr(mv.Head), FemaleValue: ptr(fv.Head), Difference: r.Differences.Head},
		{Trait: "Feather", Male: male.Feather, Female: female.Feather, MaleValue: ptr(mv.Feather), FemaleValue: ptr(fv.Feather), Difference: r.Differences.Feather},
		{Trait: "Power", Male: male.Power, Female: female.Power, Difference: r.Differences.Power},
		{Trait: "Health", Male: male.Health, Female: female.Health, Difference: r.Differences.Health},
	}
}
