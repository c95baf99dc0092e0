package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/loftmatch/internal/adapters/loader"
	"github.com/okian/loftmatch/internal/adapters/mq/queue"
	"github.com/okian/loftmatch/internal/adapters/repository"
	"github.com/okian/loftmatch/internal/domain/dataset"
	"github.com/okian/loftmatch/internal/domain/pairing"
	"github.com/okian/loftmatch/internal/domain/scoring"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrPayloadTooLarge = errors.New("payload too large")
)

// classify maps an error to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, dataset.ErrMissingFields):
		return http.StatusUnprocessableEntity, "missing_fields"
	case errors.Is(err, dataset.ErrInsufficientPopulation):
		return http.StatusUnprocessableEntity, "insufficient_population"
	case errors.Is(err, scoring.ErrInvalidRecord):
		return http.StatusUnprocessableEntity, "invalid_record"
	case errors.Is(err, scoring.ErrInvalidWeights):
		return http.StatusUnprocessableEntity, "invalid_weights"
	case errors.Is(err, pairing.ErrAmbiguousOrMissingID):
		return http.StatusNotFound, "ambiguous_or_missing_id"
	case errors.Is(err, pairing.ErrInvalidSide):
		return http.StatusBadRequest, "invalid_side"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, loader.ErrUnsupportedFormat):
		return http.StatusBadRequest, "unsupported_format"
	case errors.Is(err, loader.ErrMalformed), errors.Is(err, loader.ErrEmptyFile):
		return http.StatusBadRequest, "malformed_dataset"
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, queue.ErrFull):
		return http.StatusTooManyRequests, "busy"
	case errors.Is(err, queue.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func missingFields(err error) []string {
	var mf *dataset.MissingFieldsError
	if errors.As(err, &mf) {
		return mf.Fields
	}
	return nil
}
