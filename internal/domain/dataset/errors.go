package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for validation errors. Typed errors below match them via errors.Is.
var (
	ErrMissingFields          = errors.New("missing required fields")
	ErrInsufficientPopulation = errors.New("insufficient population")
)

// MissingFieldsError reports required columns absent from a dataset.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingFields, strings.Join(e.Fields, ", "))
}

// Is reports kind equality for errors.Is.
func (e *MissingFieldsError) Is(target error) bool { return target == ErrMissingFields }

// InsufficientPopulationError reports a dataset without at least one male
// and one female.
type InsufficientPopulationError struct {
	Males   int
	Females int
}

func (e *InsufficientPopulationError) Error() string {
	return fmt.Sprintf("%s: need at least one male and one female, got %d male(s) and %d female(s)",
		ErrInsufficientPopulation, e.Males, e.Females)
}

// Is reports kind equality for errors.Is.
func (e *InsufficientPopulationError) Is(target error) bool {
	return target == ErrInsufficientPopulation
}
