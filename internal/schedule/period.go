package schedule

import (
	"time"

	"github.com/ritmoapp/ritmo/internal/domain"
)

// Tracker owns the recurrence's period-window state. CompletedOccurrences
// and LastPeriodStart are written only through these methods; rollover and
// completion recording are the only two mutation paths.
//
// Periods only exist for interval recurrences. Weekday and day-of-month
// patterns never roll over through this mechanism.
type Tracker struct{}

// ShouldRollover reports whether the recurrence's current period has elapsed.
func (Tracker) ShouldRollover(rec *domain.Recurrence, now time.Time) bool {
	if rec.Interval == nil {
		return false
	}
	return !now.Before(rec.LastPeriodStart.AddDate(0, 0, *rec.Interval))
}

// Advance returns the next period's start instant: exactly one interval past
// the current anchor, regardless of how far behind "now" the anchor sits.
func (Tracker) Advance(rec *domain.Recurrence) time.Time {
	interval := 0
	if rec.Interval != nil {
		interval = *rec.Interval
	}
	return rec.LastPeriodStart.AddDate(0, 0, interval)
}

// ApplyRolloverIfDue resets the per-period counter and advances the anchor
// when the period has elapsed. Returns true when a rollover happened.
// Calling it twice with the same "now" rolls over at most once.
func (t Tracker) ApplyRolloverIfDue(rec *domain.Recurrence, now time.Time) bool {
	if !t.ShouldRollover(rec, now) {
		return false
	}

	rec.LastPeriodStart = t.Advance(rec)
	rec.CompletedOccurrences = 0
	return true
}

// RecordCompletion counts a resolved occurrence toward the current period.
// Both completed and skipped outcomes use up a period slot.
//
// When a rollover is due at the moment of completion, the rollover happens
// first and the counter lands on 1: the just-resolved item counts toward the
// new period, not the stale one.
func (t Tracker) RecordCompletion(rec *domain.Recurrence, now time.Time) {
	if t.ApplyRolloverIfDue(rec, now) {
		rec.CompletedOccurrences = 1
		return
	}
	rec.CompletedOccurrences++
}

// HasReachedPeriodCap reports whether the recurrence has used up its
// per-period completion quota.
func (Tracker) HasReachedPeriodCap(rec *domain.Recurrence) bool {
	return rec.MaxOccurrences != nil && rec.CompletedOccurrences >= *rec.MaxOccurrences
}
