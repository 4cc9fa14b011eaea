package handler

import (
	"time"

	"github.com/ritmoapp/ritmo/internal/domain"
)

type taskResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Importance  int    `json:"importance"`
	IsActive    bool   `json:"is_active"`
	IsFixed     bool   `json:"is_fixed"`

	FixedStartTime *string `json:"fixed_start_time,omitempty"`
	FixedEndTime   *string `json:"fixed_end_time,omitempty"`

	Recurrence *recurrenceResponse `json:"recurrence,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type recurrenceResponse struct {
	ID                   string     `json:"id"`
	Interval             *int       `json:"interval,omitempty"`
	DaysOfWeek           []string   `json:"days_of_week,omitempty"`
	DaysOfMonth          []int      `json:"days_of_month,omitempty"`
	MaxOccurrences       *int       `json:"max_occurrences,omitempty"`
	CompletedOccurrences int        `json:"completed_occurrences"`
	LastPeriodStart      time.Time  `json:"last_period_start"`
	EndDate              *time.Time `json:"end_date,omitempty"`
}

type occurrenceResponse struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	StartDate time.Time `json:"start_date"`

	TargetDate            *time.Time `json:"target_date,omitempty"`
	LimitDate             *time.Time `json:"limit_date,omitempty"`
	TargetTimeConsumption *float64   `json:"target_time_consumption,omitempty"`

	TimeConsumed float64 `json:"time_consumed"`
	Status       string  `json:"status"`
	Urgency      float64 `json:"urgency"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type backlogResponse struct {
	TaskID                string     `json:"task_id"`
	PendingCount          int        `json:"pending_count"`
	OldestPendingDate     *time.Time `json:"oldest_pending_date,omitempty"`
	OverdueCount          int        `json:"overdue_count"`
	EstimatedMissingCount int        `json:"estimated_missing_count"`
	HasSevereBacklog      bool       `json:"has_severe_backlog"`

	PendingOccurrences []occurrenceResponse `json:"pending_occurrences"`
}

type resolutionResponse struct {
	TaskID       string `json:"task_id"`
	CreatedCount int    `json:"created_count"`
	SkippedCount int    `json:"skipped_count"`
}

type eventResponse struct {
	ID            string    `json:"id"`
	OccurrenceID  *string   `json:"occurrence_id,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DedicatedTime float64   `json:"dedicated_time"`
	IsCompleted   bool      `json:"is_completed"`
	CreatedAt     time.Time `json:"created_at"`
}

func toTaskResponse(task *domain.Task) taskResponse {
	resp := taskResponse{
		ID:          task.ID,
		Name:        task.Name,
		Description: task.Description,
		Importance:  task.Importance,
		IsActive:    task.IsActive,
		IsFixed:     task.IsFixed,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.FixedStartTime != nil {
		s := task.FixedStartTime.String()
		resp.FixedStartTime = &s
	}
	if task.FixedEndTime != nil {
		s := task.FixedEndTime.String()
		resp.FixedEndTime = &s
	}
	if task.Recurrence != nil {
		rec := toRecurrenceResponse(task.Recurrence)
		resp.Recurrence = &rec
	}
	return resp
}

func toRecurrenceResponse(rec *domain.Recurrence) recurrenceResponse {
	resp := recurrenceResponse{
		ID:                   rec.ID,
		Interval:             rec.Interval,
		DaysOfMonth:          rec.DaysOfMonth,
		MaxOccurrences:       rec.MaxOccurrences,
		CompletedOccurrences: rec.CompletedOccurrences,
		LastPeriodStart:      rec.LastPeriodStart,
		EndDate:              rec.EndDate,
	}
	for _, day := range rec.DaysOfWeek {
		resp.DaysOfWeek = append(resp.DaysOfWeek, string(day))
	}
	return resp
}

func toOccurrenceResponse(occ *domain.Occurrence) occurrenceResponse {
	return occurrenceResponse{
		ID:                    occ.ID,
		TaskID:                occ.TaskID,
		StartDate:             occ.StartDate,
		TargetDate:            occ.TargetDate,
		LimitDate:             occ.LimitDate,
		TargetTimeConsumption: occ.TargetTimeConsumption,
		TimeConsumed:          occ.TimeConsumed,
		Status:                string(occ.Status),
		Urgency:               occ.Urgency,
		CompletedAt:           occ.CompletedAt,
		CreatedAt:             occ.CreatedAt,
	}
}

func toOccurrenceResponses(occurrences []*domain.Occurrence) []occurrenceResponse {
	out := make([]occurrenceResponse, len(occurrences))
	for i, occ := range occurrences {
		out[i] = toOccurrenceResponse(occ)
	}
	return out
}

func toBacklogResponse(report *domain.BacklogReport) backlogResponse {
	return backlogResponse{
		TaskID:                report.TaskID,
		PendingCount:          report.PendingCount,
		OldestPendingDate:     report.OldestPendingDate,
		OverdueCount:          report.OverdueCount,
		EstimatedMissingCount: report.EstimatedMissingCount,
		HasSevereBacklog:      report.HasSevereBacklog,
		PendingOccurrences:    toOccurrenceResponses(report.PendingOccurrences),
	}
}

func toEventResponse(event *domain.CalendarEvent) eventResponse {
	return eventResponse{
		ID:            event.ID,
		OccurrenceID:  event.OccurrenceID,
		StartTime:     event.StartTime,
		EndTime:       event.EndTime,
		DedicatedTime: event.DedicatedTime,
		IsCompleted:   event.IsCompleted,
		CreatedAt:     event.CreatedAt,
	}
}
