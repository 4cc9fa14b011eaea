package domain

import "time"

// UpdateRecurrenceParams carries the narrow set of recurrence fields the
// engine is allowed to write back: the period-tracking counters. All other
// recurrence fields are immutable after creation as far as this engine is
// concerned.
type UpdateRecurrenceParams struct {
	RecurrenceID string

	CompletedOccurrences *int
	LastPeriodStart      *time.Time
}

// UpdateTaskParams carries the task fields the engine writes: currently only
// the active flag, flipped when a recurrence's end date passes.
type UpdateTaskParams struct {
	TaskID string

	IsActive *bool
}

// NewOccurrenceParams carries caller-supplied overrides for occurrence
// creation. Nil fields fall back to the engine's computed defaults.
type NewOccurrenceParams struct {
	TargetDate            *time.Time
	LimitDate             *time.Time
	TargetTimeConsumption *float64
}
