// Package pairing partitions a population by gender and selects the pair to score.
package pairing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/okian/loftmatch/internal/domain/model"
)

// ErrAmbiguousOrMissingID is the sentinel kind for selection failures.
var ErrAmbiguousOrMissingID = errors.New("ambiguous or missing id")

// ErrInvalidSide is returned by ParseSide for anything but male or female.
var ErrInvalidSide = errors.New("side must be male or female")

// AmbiguousOrMissingIDError reports an ID that matched zero or several
// individuals on one side of the pair.
type AmbiguousOrMissingIDError struct {
	Side    model.Gender
	ID      string
	Matches int
}

func (e *AmbiguousOrMissingIDError) Error() string {
	if e.Matches == 0 {
		return fmt.Sprintf("%s: no %s with id %q", ErrAmbiguousOrMissingID, e.Side, e.ID)
	}
	return fmt.Sprintf("%s: %d %ss share id %q", ErrAmbiguousOrMissingID, e.Matches, e.Side, e.ID)
}

// Is reports kind equality for errors.Is.
func (e *AmbiguousOrMissingIDError) Is(target error) bool {
	return target == ErrAmbiguousOrMissingID
}

// PartitionByGender splits individuals into males and females, preserving
// dataset order. Individuals in the unknown bucket are dropped.
func PartitionByGender(individuals []model.Individual) (males, females []model.Individual) {
	for _, ind := range individuals {
		switch ind.NormGender {
		case model.Male:
			males = append(males, ind)
		case model.Female:
			females = append(females, ind)
		}
	}
	return males, females
}

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithFirstMatch accepts duplicate IDs and picks the first match in dataset order.
func WithFirstMatch() Option {
	return func(s *Selector) {
		s.firstMatch = true
	}
}

// Selector picks one male and one female by ID.
type Selector struct {
	firstMatch bool
}

// NewSelector creates a selector. By default an ID must match exactly one
// individual on its side.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectPair returns the male with maleID and the female with femaleID.
func (s *Selector) SelectPair(males, females []model.Individual, maleID, femaleID string) (model.Individual, model.Individual, error) {
	m, err := s.find(males, model.Male, maleID)
	if err != nil {
		return model.Individual{}, model.Individual{}, err
	}
	f, err := s.find(females, model.Female, femaleID)
	if err != nil {
		return model.Individual{}, model.Individual{}, err
	}
	return m, f, nil
}

// Select returns the individual with id from one side.
func (s *Selector) Select(side []model.Individual, gender model.Gender, id string) (model.Individual, error) {
	return s.find(side, gender, id)
}

// ParseSide maps "male"/"m" and "female"/"f" to a gender. Unlike dataset
// gender classification it matches whole words only.
func ParseSide(side string) (model.Gender, error) {
	switch strings.ToLower(strings.TrimSpace(side)) {
	case "male", "m":
		return model.Male, nil
	case "female", "f":
		return model.Female, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSide, side)
	}
}

// SelectPair selects with the default, strict selector.
func SelectPair(males, females []model.Individual, maleID, femaleID string) (model.Individual, model.Individual, error) {
	return NewSelector().SelectPair(males, females, maleID, femaleID)
}

func (s *Selector) find(side []model.Individual, gender model.Gender, id string) (model.Individual, error) {
	id = strings.TrimSpace(id)
	var (
		found   model.Individual
		matches int
	)
	for _, ind := range side {
		if ind.ID != id {
			continue
		}
		if matches == 0 {
			found = ind
		}
		matches++
	}
	if id == "" || matches == 0 || (matches > 1 && !s.firstMatch) {
		return model.Individual{}, &AmbiguousOrMissingIDError{Side: gender, ID: id, Matches: matches}
	}
	return found, nil
}
