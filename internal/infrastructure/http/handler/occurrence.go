package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ritmoapp/ritmo/internal/domain"
	"github.com/ritmoapp/ritmo/internal/infrastructure/http/response"
)

type resolveOccurrenceRequest struct {
	Outcome string `json:"outcome"`

	// CompletedAt defaults to the current time for completed outcomes.
	CompletedAt *time.Time `json:"completed_at"`
}

// ResolveOccurrence handles POST /v1/occurrences/{occurrenceID}/resolve.
// Resolving may chain the next occurrence for recurring tasks; the chained
// occurrence is not part of the response, clients list occurrences to see it.
func (h *PlannerHandler) ResolveOccurrence(w http.ResponseWriter, r *http.Request) {
	occurrenceID := chi.URLParam(r, "occurrenceID")

	var req resolveOccurrenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	outcome, err := domain.NewOccurrenceStatus(req.Outcome)
	if err != nil {
		response.ValidationError(w, "outcome", "must be COMPLETED or SKIPPED")
		return
	}

	resolved, err := h.planner.ResolveOccurrence(r.Context(), occurrenceID, outcome, req.CompletedAt)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to resolve occurrence via HTTP",
			"occurrence_id", occurrenceID,
			"outcome", req.Outcome,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, toOccurrenceResponse(resolved))
}
