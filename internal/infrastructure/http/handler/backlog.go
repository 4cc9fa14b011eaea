package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ritmoapp/ritmo/internal/infrastructure/http/response"
)

// DetectBacklog handles GET /v1/tasks/{taskID}/backlog. Detection is
// read-only; nothing is created or skipped.
func (h *PlannerHandler) DetectBacklog(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	report, err := h.planner.DetectBacklog(r.Context(), taskID)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, toBacklogResponse(report))
}

// ResolveBacklog handles POST /v1/tasks/{taskID}/backlog/resolve. It creates
// the occurrences the pattern says are missing and skips overdue ones,
// keeping the newest pending occurrence open.
func (h *PlannerHandler) ResolveBacklog(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	resolution, err := h.planner.ResolveBacklog(r.Context(), taskID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to resolve backlog via HTTP",
			"task_id", taskID,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, resolutionResponse{
		TaskID:       resolution.TaskID,
		CreatedCount: resolution.CreatedCount,
		SkippedCount: resolution.SkippedCount,
	})
}
