package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/okian/loftmatch/internal/domain/scoring"
	"github.com/okian/loftmatch/internal/domain/types"
	"github.com/okian/loftmatch/pkg/logger"
	"github.com/okian/loftmatch/pkg/report"
)

const maxJSONBodyBytes = 64 << 10

// scoreRequest mirrors the OpenAPI schema for POST /datasets/{id}/score.
// Weights are checked by the scorer so they report as invalid_weights.
type scoreRequest struct {
	MaleID       string                   `json:"male_id" validate:"required"`
	FemaleID     string                   `json:"female_id" validate:"required"`
	Weights      *scoring.WeightOverrides `json:"weights,omitempty" validate:"-"`
	TargetWeight *float64                 `json:"target_weight,omitempty"`
}

// ScoreHandler handles pair scoring requests.
type ScoreHandler struct {
	deps     Dependencies
	log      logger.Logger
	validate *validator.Validate
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps Dependencies, log logger.Logger) *ScoreHandler {
	return &ScoreHandler{deps: deps, log: log, validate: newValidator()}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// HandleScore handles POST /datasets/{id}/score requests. The optional
// format query parameter selects json (default), yaml or text output.
func (h *ScoreHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	renderer, err := report.RendererFor(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var req scoreRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeDomainError(r.Context(), h.log, w, err)
		return
	}

	rep, err := h.deps.Score(r.Context(), types.ScoreRequest{
		SessionID:    r.PathValue("id"),
		MaleID:       req.MaleID,
		FemaleID:     req.FemaleID,
		Weights:      req.Weights,
		TargetWeight: req.TargetWeight,
	})
	if err != nil {
		writeDomainError(r.Context(), h.log, w, err)
		return
	}

	if format == "" || strings.EqualFold(format, report.FormatJSON) {
		writeJSON(w, http.StatusOK, rep)
		return
	}
	var buf bytes.Buffer
	if err := renderer.Render(&buf, rep); err != nil {
		writeDomainError(r.Context(), h.log, w, fmt.Errorf("render report: %w", err))
		return
	}
	w.Header().Set("Content-Type", contentTypeFor(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// decodeJSON reads a single strict JSON object into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", ErrPayloadTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: invalid json: %w", ErrBadRequest, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after json body", ErrBadRequest)
	}
	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if fe.Tag() == "required" {
				return fmt.Errorf("%w: missing %s", ErrBadRequest, fe.Field())
			}
			return fmt.Errorf("%w: %s fails %s=%s", ErrBadRequest, fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func contentTypeFor(format string) string {
	switch strings.ToLower(format) {
	case report.FormatYAML, "yml":
		return "application/yaml; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
