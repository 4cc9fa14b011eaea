package schedule

import (
	"sort"
	"time"

	"github.com/ritmoapp/ritmo/internal/domain"
)

// Pattern computes occurrence dates for one recurrence kind. The concrete
// kind is decided once at construction via PatternOf; call sites never
// re-derive it from nullable-field presence.
type Pattern interface {
	// NextDate returns the next occurrence date strictly after the given
	// reference date. Total for every well-formed pattern.
	NextDate(after time.Time) time.Time

	// Window returns the target (soft goal) and limit (hard deadline) dates
	// for an occurrence opening at start.
	Window(start time.Time) (target, limit time.Time)
}

// Window fraction: the target sits at 60% of the way to the deadline.
const targetFraction = 0.6

// Default window for one-shot occurrences created without explicit dates.
const (
	oneShotTargetDays = 1
	oneShotLimitDays  = 7
)

// PatternOf selects the pattern for a recurrence. Kinds are mutually
// exclusive and matched in priority order: interval, then weekdays, then
// days of month, then the one-shot fallback. A nil recurrence is one-shot.
func PatternOf(rec *domain.Recurrence) Pattern {
	if rec == nil {
		return OneShotPattern{}
	}

	switch {
	case rec.Interval != nil:
		return IntervalPattern{Days: *rec.Interval}
	case len(rec.DaysOfWeek) > 0:
		return NewWeekdayPattern(rec.DaysOfWeek)
	case len(rec.DaysOfMonth) > 0:
		return NewDayOfMonthPattern(rec.DaysOfMonth)
	default:
		return OneShotPattern{}
	}
}

// IntervalPattern repeats every fixed number of days.
type IntervalPattern struct {
	Days int
}

func (p IntervalPattern) NextDate(after time.Time) time.Time {
	return after.AddDate(0, 0, p.Days)
}

func (p IntervalPattern) Window(start time.Time) (time.Time, time.Time) {
	target := start.AddDate(0, 0, int(float64(p.Days)*targetFraction))
	limit := start.AddDate(0, 0, p.Days)
	return target, limit
}

// WeekdayPattern repeats on a fixed set of weekdays.
type WeekdayPattern struct {
	days map[time.Weekday]bool
}

// NewWeekdayPattern builds a weekday pattern from domain weekday tags.
func NewWeekdayPattern(days []domain.Weekday) WeekdayPattern {
	set := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		set[d.Time()] = true
	}
	return WeekdayPattern{days: set}
}

// NextDate finds the soonest configured weekday strictly after the reference
// date, wrapping to the next week when none remain. The strict-greater search
// guarantees forward progress: the same day is never returned.
func (p WeekdayPattern) NextDate(after time.Time) time.Time {
	for delta := 1; delta <= 7; delta++ {
		candidate := after.AddDate(0, 0, delta)
		if p.days[candidate.Weekday()] {
			return candidate
		}
	}
	// Unreachable for a non-empty set; keep the contract total anyway.
	return after.AddDate(0, 0, 7)
}

func (p WeekdayPattern) Window(start time.Time) (time.Time, time.Time) {
	return windowUntilNext(start, p)
}

// DayOfMonthPattern repeats on a fixed set of days of the month.
type DayOfMonthPattern struct {
	days []int // sorted ascending
}

// NewDayOfMonthPattern builds a day-of-month pattern. Days are sorted so the
// search always lands on the soonest candidate.
func NewDayOfMonthPattern(days []int) DayOfMonthPattern {
	sorted := make([]int, len(days))
	copy(sorted, days)
	sort.Ints(sorted)
	return DayOfMonthPattern{days: sorted}
}

// NextDate finds the soonest configured day strictly greater than the
// reference date's day within the current month; when none remain, it wraps
// to the smallest configured day in the following month.
//
// Days exceeding the destination month's length are clamped to its last day.
// A clamped candidate that is no longer strictly after the reference date is
// skipped, so the search still makes forward progress (e.g. day 31 in
// February resolves to February 28/29 or falls through to the next month).
func (p DayOfMonthPattern) NextDate(after time.Time) time.Time {
	for _, day := range p.days {
		if day <= after.Day() {
			continue
		}
		candidate := dateWithDay(after, 0, day)
		if candidate.After(after) {
			return candidate
		}
	}

	// Wrap: smallest configured day in the following month.
	return dateWithDay(after, 1, p.days[0])
}

func (p DayOfMonthPattern) Window(start time.Time) (time.Time, time.Time) {
	return windowUntilNext(start, p)
}

// OneShotPattern is the fallback for tasks without a recurrence pattern.
type OneShotPattern struct{}

func (OneShotPattern) NextDate(after time.Time) time.Time {
	return after.AddDate(0, 0, 1)
}

func (OneShotPattern) Window(start time.Time) (time.Time, time.Time) {
	return start.AddDate(0, 0, oneShotTargetDays), start.AddDate(0, 0, oneShotLimitDays)
}

// windowUntilNext computes the window shared by the weekday and day-of-month
// kinds: the limit is the next occurrence date itself, the target sits at 60%
// of the gap but never on the start day.
func windowUntilNext(start time.Time, p Pattern) (time.Time, time.Time) {
	next := p.NextDate(start)
	daysUntil := int(next.Sub(start).Hours() / 24)

	targetOffset := int(float64(daysUntil) * targetFraction)
	if targetOffset < 1 {
		targetOffset = 1
	}

	return start.AddDate(0, 0, targetOffset), next
}

// dateWithDay returns the reference date shifted by monthOffset months and
// pinned to the given day of month, clamped to the destination month's last
// valid day. Time of day is preserved.
func dateWithDay(ref time.Time, monthOffset, day int) time.Time {
	year, month, _ := ref.AddDate(0, monthOffset, -ref.Day()+1).Date()

	if last := daysInMonth(year, month); day > last {
		day = last
	}

	return time.Date(year, month, day,
		ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
