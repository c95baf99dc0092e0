package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/okian/loftmatch/internal/domain/scoring"
	"github.com/okian/loftmatch/internal/domain/types"
	"github.com/okian/loftmatch/pkg/logger"
)

// matchesRequest mirrors the OpenAPI schema for POST /datasets/{id}/matches.
// Side is checked by the service so it reports as invalid_side.
type matchesRequest struct {
	ID           string                   `json:"id" validate:"required"`
	Side         string                   `json:"side" validate:"required"`
	Limit        int                      `json:"limit,omitempty" validate:"gte=0"`
	Weights      *scoring.WeightOverrides `json:"weights,omitempty" validate:"-"`
	TargetWeight *float64                 `json:"target_weight,omitempty"`
}

// MatchesHandler ranks the partners of one individual.
type MatchesHandler struct {
	deps     Dependencies
	log      logger.Logger
	validate *validator.Validate
}

// NewMatchesHandler creates a new matches handler.
func NewMatchesHandler(deps Dependencies, log logger.Logger) *MatchesHandler {
	return &MatchesHandler{deps: deps, log: log, validate: newValidator()}
}

// HandleMatches handles POST /datasets/{id}/matches requests.
func (h *MatchesHandler) HandleMatches(w http.ResponseWriter, r *http.Request) {
	var req matchesRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeDomainError(r.Context(), h.log, w, err)
		return
	}

	res, err := h.deps.Matches(r.Context(), types.MatchRequest{
		SessionID:    r.PathValue("id"),
		ID:           req.ID,
		Side:         req.Side,
		Limit:        req.Limit,
		Weights:      req.Weights,
		TargetWeight: req.TargetWeight,
	})
	if err != nil {
		writeDomainError(r.Context(), h.log, w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
