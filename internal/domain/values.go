package domain

import "time"

// OccurrenceStatus represents the current state of an occurrence.
// Value object - immutable string enum.
type OccurrenceStatus string

const (
	OccurrenceStatusPending    OccurrenceStatus = "PENDING"
	OccurrenceStatusInProgress OccurrenceStatus = "IN_PROGRESS"
	OccurrenceStatusCompleted  OccurrenceStatus = "COMPLETED"
	OccurrenceStatusSkipped    OccurrenceStatus = "SKIPPED"
)

// IsTerminal reports whether the status is a terminal state.
// Only COMPLETED and SKIPPED are terminal; an occurrence in any other
// state still occupies the task's single active slot.
func (s OccurrenceStatus) IsTerminal() bool {
	return s == OccurrenceStatusCompleted || s == OccurrenceStatusSkipped
}

// TerminalStatuses returns the statuses that end an occurrence's lifecycle.
func TerminalStatuses() []OccurrenceStatus {
	return []OccurrenceStatus{OccurrenceStatusCompleted, OccurrenceStatusSkipped}
}

// Weekday is a day-of-week tag used by weekday recurrence patterns.
// Value object - immutable string enum, stored as uppercase three-letter tags.
type Weekday string

const (
	WeekdayMonday    Weekday = "MON"
	WeekdayTuesday   Weekday = "TUE"
	WeekdayWednesday Weekday = "WED"
	WeekdayThursday  Weekday = "THU"
	WeekdayFriday    Weekday = "FRI"
	WeekdaySaturday  Weekday = "SAT"
	WeekdaySunday    Weekday = "SUN"
)

// Time converts the tag to the standard library's time.Weekday.
func (w Weekday) Time() time.Weekday {
	switch w {
	case WeekdayMonday:
		return time.Monday
	case WeekdayTuesday:
		return time.Tuesday
	case WeekdayWednesday:
		return time.Wednesday
	case WeekdayThursday:
		return time.Thursday
	case WeekdayFriday:
		return time.Friday
	case WeekdaySaturday:
		return time.Saturday
	default:
		return time.Sunday
	}
}
