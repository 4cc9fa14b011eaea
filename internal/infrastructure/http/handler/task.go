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

type createTaskRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Importance  int    `json:"importance"`

	IsFixed        bool    `json:"is_fixed"`
	FixedStartTime *string `json:"fixed_start_time"`
	FixedEndTime   *string `json:"fixed_end_time"`

	Recurrence *createRecurrenceRequest `json:"recurrence"`

	// Optional dates for the initial occurrence of a non-recurring task.
	TargetDate            *time.Time `json:"target_date"`
	LimitDate             *time.Time `json:"limit_date"`
	TargetTimeConsumption *float64   `json:"target_time_consumption"`
}

type createRecurrenceRequest struct {
	Interval       *int       `json:"interval"`
	DaysOfWeek     []string   `json:"days_of_week"`
	DaysOfMonth    []int      `json:"days_of_month"`
	MaxOccurrences *int       `json:"max_occurrences"`
	EndDate        *time.Time `json:"end_date"`
}

// CreateTask handles POST /v1/tasks. The service creates the task and its
// initial occurrence in one go.
func (h *PlannerHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON")
		return
	}

	task := &domain.Task{
		Name:        req.Name,
		Description: req.Description,
		Importance:  req.Importance,
		IsFixed:     req.IsFixed,
	}

	if req.FixedStartTime != nil {
		ct, err := domain.NewClockTime(*req.FixedStartTime)
		if err != nil {
			response.ValidationError(w, "fixed_start_time", "must be in HH:MM format")
			return
		}
		task.FixedStartTime = &ct
	}
	if req.FixedEndTime != nil {
		ct, err := domain.NewClockTime(*req.FixedEndTime)
		if err != nil {
			response.ValidationError(w, "fixed_end_time", "must be in HH:MM format")
			return
		}
		task.FixedEndTime = &ct
	}

	if req.Recurrence != nil {
		rec := &domain.Recurrence{
			Interval:       req.Recurrence.Interval,
			DaysOfMonth:    req.Recurrence.DaysOfMonth,
			MaxOccurrences: req.Recurrence.MaxOccurrences,
		}
		if req.Recurrence.EndDate != nil {
			endDate := req.Recurrence.EndDate.UTC()
			rec.EndDate = &endDate
		}
		for _, tag := range req.Recurrence.DaysOfWeek {
			day, err := domain.NewWeekday(tag)
			if err != nil {
				response.FromDomainError(w, r, err)
				return
			}
			rec.DaysOfWeek = append(rec.DaysOfWeek, day)
		}
		task.Recurrence = rec
	}

	created, err := h.planner.CreateTask(r.Context(), task, domain.NewOccurrenceParams{
		TargetDate:            req.TargetDate,
		LimitDate:             req.LimitDate,
		TargetTimeConsumption: req.TargetTimeConsumption,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create task via HTTP",
			"name", req.Name,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	response.Created(w, toTaskResponse(created))
}

type listOccurrencesResponse struct {
	Occurrences []occurrenceResponse `json:"occurrences"`
}

// ListOccurrences handles GET /v1/tasks/{taskID}/occurrences. Urgency on the
// returned occurrences is recomputed for the current moment.
func (h *PlannerHandler) ListOccurrences(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	occurrences, err := h.planner.ListOccurrences(r.Context(), taskID)
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, listOccurrencesResponse{
		Occurrences: toOccurrenceResponses(occurrences),
	})
}

type createNextOccurrenceRequest struct {
	TargetDate            *time.Time `json:"target_date"`
	LimitDate             *time.Time `json:"limit_date"`
	TargetTimeConsumption *float64   `json:"target_time_consumption"`
}

type createNextOccurrenceResponse struct {
	Created    bool                `json:"created"`
	Occurrence *occurrenceResponse `json:"occurrence,omitempty"`
}

// CreateNextOccurrence handles POST /v1/tasks/{taskID}/occurrences/next.
// Returns created=false without error when an open occurrence already
// blocks chaining.
func (h *PlannerHandler) CreateNextOccurrence(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	var req createNextOccurrenceRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid JSON")
			return
		}
	}

	occ, err := h.planner.CreateNextOccurrence(r.Context(), taskID, domain.NewOccurrenceParams{
		TargetDate:            req.TargetDate,
		LimitDate:             req.LimitDate,
		TargetTimeConsumption: req.TargetTimeConsumption,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create next occurrence via HTTP",
			"task_id", taskID,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	if occ == nil {
		response.OK(w, createNextOccurrenceResponse{Created: false})
		return
	}

	occResp := toOccurrenceResponse(occ)
	response.Created(w, createNextOccurrenceResponse{Created: true, Occurrence: &occResp})
}
