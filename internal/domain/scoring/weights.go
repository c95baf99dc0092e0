package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// DefaultTargetWeight is the reference weight in grams used to scale the
// weight difference.
const DefaultTargetWeight = 400.0

// Weights holds the per-trait coefficients. Coefficients are independent;
// they are not required to sum to one.
type Weights struct {
	Color   float64 `json:"color" yaml:"color" koanf:"color" validate:"gte=0"`
	Weight  float64 `json:"weight" yaml:"weight" koanf:"weight" validate:"gte=0"`
	Head    float64 `json:"head" yaml:"head" koanf:"head" validate:"gte=0"`
	Feather float64 `json:"feather" yaml:"feather" koanf:"feather" validate:"gte=0"`
	Power   float64 `json:"power" yaml:"power" koanf:"power" validate:"gte=0"`
	Health  float64 `json:"health" yaml:"health" koanf:"health" validate:"gte=0"`
}

// DefaultWeights returns the default coefficient set.
func DefaultWeights() Weights {
	return Weights{
		Color:   0.3,
		Weight:  0.2,
		Head:    0.1,
		Feather: 0.1,
		Power:   0.2,
		Health:  0.1,
	}
}

// WeightOverrides is a partial coefficient set, as sent by API callers.
// Nil coefficients keep the value of the set it is applied to.
type WeightOverrides struct {
	Color   *float64 `json:"color,omitempty" yaml:"color,omitempty"`
	Weight  *float64 `json:"weight,omitempty" yaml:"weight,omitempty"`
	Head    *float64 `json:"head,omitempty" yaml:"head,omitempty"`
	Feather *float64 `json:"feather,omitempty" yaml:"feather,omitempty"`
	Power   *float64 `json:"power,omitempty" yaml:"power,omitempty"`
	Health  *float64 `json:"health,omitempty" yaml:"health,omitempty"`
}

// Apply returns base with every set coefficient replaced. A nil receiver
// returns base unchanged.
func (o *WeightOverrides) Apply(base Weights) Weights {
	if o == nil {
		return base
	}
	for _, f := range []struct {
		src *float64
		dst *float64
	}{
		{o.Color, &base.Color}, {o.Weight, &base.Weight}, {o.Head, &base.Head},
		{o.Feather, &base.Feather}, {o.Power, &base.Power}, {o.Health, &base.Health},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return base
}

// Overrides returns an override set that replaces every coefficient.
func (w Weights) Overrides() *WeightOverrides {
	return &WeightOverrides{
		Color: &w.Color, Weight: &w.Weight, Head: &w.Head,
		Feather: &w.Feather, Power: &w.Power, Health: &w.Health,
	}
}

// Sum returns the total of all coefficients.
func (w Weights) Sum() float64 {
	return w.Color + w.Weight + w.Head + w.Feather + w.Power + w.Health
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that every coefficient is a non-negative number.
func (w Weights) Validate() error {
	err := validate.Struct(w)
	if err == nil {
		for _, c := range w.coefficients() {
			if math.IsInf(c.value, 0) {
				return &InvalidWeightsError{Field: c.name, Reason: "must be finite"}
			}
		}
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &InvalidWeightsError{
			Field:  verrs[0].Field(),
			Reason: fmt.Sprintf("must be >= 0, got %v", verrs[0].Value()),
		}
	}
	return fmt.Errorf("%w: %w", ErrInvalidWeights, err)
}

type coefficient struct {
	name  string
	value float64
}

func (w Weights) coefficients() []coefficient {
	return []coefficient{
		{"Color", w.Color}, {"Weight", w.Weight}, {"Head", w.Head},
		{"Feather", w.Feather}, {"Power", w.Power}, {"Health", w.Health},
	}
}
