package domain

import (
	"time"
)

// Task is an aggregate root representing a user-defined unit of work,
// optionally recurring.
//
// Occurrences are NOT included in this aggregate. They are always fetched
// separately via the repository to prevent unbounded data loading; only the
// Recurrence travels with the task because every lifecycle decision needs it.
type Task struct {
	ID          string
	OwnerID     string
	Name        string
	Description string

	// Importance is the user-assigned 1-10 weight. It is independent of
	// urgency, which is derived from dates and recomputed on read.
	Importance int

	// IsActive is the soft-delete flag. Recurring tasks whose recurrence end
	// date has passed are deactivated by the engine, never hard-deleted.
	IsActive bool

	// Fixed tasks occupy an immovable wall-clock slot instead of being
	// freely reschedulable. FixedStartTime/FixedEndTime are required when
	// IsFixed is set.
	IsFixed        bool
	FixedStartTime *ClockTime
	FixedEndTime   *ClockTime

	// Recurrence is nil for one-off tasks created without a pattern.
	Recurrence *Recurrence

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the task's configuration invariants at creation time.
// Violations are caller-visible errors, never silently corrected.
func (t *Task) Validate() error {
	if _, err := NewName(t.Name); err != nil {
		return err
	}
	if _, err := NewImportance(t.Importance); err != nil {
		return err
	}

	if t.IsFixed {
		if t.FixedStartTime == nil || t.FixedEndTime == nil {
			return ErrFixedTaskMissingTimes
		}
		// A fixed task is either one-shot (single dated occurrence supplied
		// by the caller) or repeats on an explicit day selection bounded by
		// an end date. Open-ended fixed recurrence is disallowed.
		if t.Recurrence != nil {
			if len(t.Recurrence.DaysOfWeek) == 0 && len(t.Recurrence.DaysOfMonth) == 0 {
				return ErrFixedRecurrenceRequiresDays
			}
			if t.Recurrence.EndDate == nil {
				return ErrFixedRecurrenceRequiresEnd
			}
		}
	}

	if t.Recurrence != nil {
		if err := t.Recurrence.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Recurrence holds the pattern and period-tracking state governing how a
// task spawns occurrences.
//
// CompletedOccurrences and LastPeriodStart are mutated exclusively through
// the period tracker (rollover, completion recording); no other code path
// may write them.
type Recurrence struct {
	ID     string
	TaskID string

	// Interval is the period length in days. Nil for weekday/day-of-month
	// patterns and for one-shot tasks.
	Interval *int

	// DaysOfWeek and DaysOfMonth are mutually exclusive; at most one may be
	// populated.
	DaysOfWeek  []Weekday
	DaysOfMonth []int

	// MaxOccurrences caps how many occurrences count toward the completion
	// quota per period. A value of 1 with no interval marks a one-shot task.
	MaxOccurrences *int

	// CompletedOccurrences counts resolutions (completed or skipped) within
	// the current period. Reset to zero on rollover.
	CompletedOccurrences int

	// LastPeriodStart anchors the rolling period window.
	LastPeriodStart time.Time

	// EndDate is a hard stop. Once it has passed, the owning task is
	// deactivated the next time the engine touches it.
	EndDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks recurrence configuration invariants.
func (r *Recurrence) Validate() error {
	if len(r.DaysOfWeek) > 0 && len(r.DaysOfMonth) > 0 {
		return ErrConflictingRecurrenceDays
	}
	if r.Interval != nil && *r.Interval <= 0 {
		return ErrInvalidInterval
	}
	if r.MaxOccurrences != nil && *r.MaxOccurrences <= 0 {
		return ErrInvalidMaxOccurrences
	}
	for _, d := range r.DaysOfMonth {
		if _, err := NewDayOfMonth(d); err != nil {
			return err
		}
	}
	return nil
}

// IsOneShot reports whether this recurrence marks a one-shot task:
// a cap of exactly one occurrence with no interval.
func (r *Recurrence) IsOneShot() bool {
	return r.MaxOccurrences != nil && *r.MaxOccurrences == 1 && r.Interval == nil
}

// HasEnded reports whether the recurrence's hard stop has passed.
func (r *Recurrence) HasEnded(now time.Time) bool {
	return r.EndDate != nil && now.After(*r.EndDate)
}

// Occurrence is one concrete, dated instance of a task requiring resolution.
type Occurrence struct {
	ID     string
	TaskID string

	// StartDate is when the work window opens.
	StartDate time.Time

	// TargetDate is the soft goal; LimitDate the hard deadline.
	// When both are present, TargetDate <= LimitDate.
	TargetDate *time.Time
	LimitDate  *time.Time

	// Effort estimate vs. actual, in hours. TimeConsumed is a cache kept
	// current by the calendar-event sync operation, never computed here.
	TargetTimeConsumption *float64
	TimeConsumed          float64

	Status OccurrenceStatus

	// Urgency is a cached score. It is stale by definition and must be
	// recomputed at the read boundary before display or sorting.
	Urgency float64

	// CompletedAt is set only on transition to COMPLETED.
	CompletedAt *time.Time

	CreatedAt time.Time
}

// Validate checks occurrence date invariants.
func (o *Occurrence) Validate() error {
	if o.TargetDate != nil && o.LimitDate != nil && o.TargetDate.After(*o.LimitDate) {
		return ErrTargetAfterLimit
	}
	return nil
}

// IsOverdue reports whether a non-terminal occurrence has passed its limit.
func (o *Occurrence) IsOverdue(now time.Time) bool {
	return !o.Status.IsTerminal() && o.LimitDate != nil && now.After(*o.LimitDate)
}

// CalendarEvent is a scheduled time block optionally linked to one occurrence.
// Completing or deleting a linked event is a trigger point for the
// occurrence's time-consumed sync.
type CalendarEvent struct {
	ID           string
	OccurrenceID *string

	StartTime time.Time
	EndTime   time.Time

	// DedicatedTime is the effort the block contributes, in hours.
	DedicatedTime float64

	IsCompleted bool
	CreatedAt   time.Time
}

// BacklogReport summarizes drift between a task's occurrence history and
// what its recurrence pattern says should exist by now.
type BacklogReport struct {
	TaskID string

	// PendingCount is the number of non-terminal occurrences.
	PendingCount int

	// OldestPendingDate is the start date of the oldest non-terminal
	// occurrence, nil when none exist.
	OldestPendingDate *time.Time

	// OverdueCount is the number of non-terminal occurrences whose limit
	// date has already passed.
	OverdueCount int

	// EstimatedMissingCount estimates how many occurrences should exist by
	// now but were never generated.
	EstimatedMissingCount int

	HasSevereBacklog bool

	PendingOccurrences []*Occurrence
}

// BacklogResolution reports what a backlog repair pass did.
type BacklogResolution struct {
	TaskID       string
	CreatedCount int
	SkippedCount int
}
