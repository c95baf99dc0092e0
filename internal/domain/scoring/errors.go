package scoring

import (
	"errors"
	"fmt"
)

// Sentinel kinds for scoring errors. Typed errors below match them via errors.Is.
var (
	ErrInvalidRecord  = errors.New("invalid record")
	ErrInvalidWeights = errors.New("invalid weights")
)

// InvalidRecordError reports an absent record or a required numeric field
// that does not hold a finite number.
type InvalidRecordError struct {
	ID    string
	Field string
	Value string
}

func (e *InvalidRecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: record is missing or has no %s", ErrInvalidRecord, e.Field)
	}
	return fmt.Sprintf("%s: %s of %q is not numeric (%q)", ErrInvalidRecord, e.Field, e.ID, e.Value)
}

// Is reports kind equality for errors.Is.
func (e *InvalidRecordError) Is(target error) bool { return target == ErrInvalidRecord }

// InvalidWeightsError reports a coefficient outside the accepted range.
type InvalidWeightsError struct {
	Field  string
	Reason string
}

func (e *InvalidWeightsError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidWeights, e.Field, e.Reason)
}

// Is reports kind equality for errors.Is.
func (e *InvalidWeightsError) Is(target error) bool { return target == ErrInvalidWeights }
