// Package handler exposes the planner service over HTTP.
package handler

import (
	"github.com/go-chi/chi/v5"

	"github.com/ritmoapp/ritmo/internal/application/planner"
)

// PlannerHandler handles HTTP requests for tasks, occurrences, backlog and
// calendar events.
type PlannerHandler struct {
	planner *planner.Service
}

// NewPlannerHandler creates a new PlannerHandler.
func NewPlannerHandler(svc *planner.Service) *PlannerHandler {
	return &PlannerHandler{planner: svc}
}

// RegisterRoutes mounts all planner routes on the given router.
func (h *PlannerHandler) RegisterRoutes(r chi.Router) {
	r.Post("/tasks", h.CreateTask)
	r.Get("/tasks/{taskID}/occurrences", h.ListOccurrences)
	r.Post("/tasks/{taskID}/occurrences/next", h.CreateNextOccurrence)
	r.Get("/tasks/{taskID}/backlog", h.DetectBacklog)
	r.Post("/tasks/{taskID}/backlog/resolve", h.ResolveBacklog)

	r.Post("/occurrences/{occurrenceID}/resolve", h.ResolveOccurrence)

	r.Post("/events", h.CreateEvent)
	r.Post("/events/{eventID}/complete", h.CompleteEvent)
	r.Delete("/events/{eventID}", h.DeleteEvent)
}
