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

type createEventRequest struct {
	OccurrenceID  *string   `json:"occurrence_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DedicatedTime float64   `json:"dedicated_time"`
}

// CreateEvent handles POST /v1/events.
func (h *PlannerHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	event, err := h.planner.CreateEvent(r.Context(), &domain.CalendarEvent{
		OccurrenceID:  req.OccurrenceID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		DedicatedTime: req.DedicatedTime,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create event via HTTP", "error", err)
		response.FromDomainError(w, r, err)
		return
	}

	response.Created(w, toEventResponse(event))
}

// CompleteEvent handles POST /v1/events/{eventID}/complete. Completing a
// linked event re-syncs the occurrence's consumed time.
func (h *PlannerHandler) CompleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	if err := h.planner.CompleteEvent(r.Context(), eventID); err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.NoContent(w)
}

// DeleteEvent handles DELETE /v1/events/{eventID}.
func (h *PlannerHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	if err := h.planner.DeleteEvent(r.Context(), eventID); err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.NoContent(w)
}
