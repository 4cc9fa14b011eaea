package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Name is a validated task name value object (1-255 characters).
type Name struct {
	value string
}

// NewName creates a new Name, validating the input.
func NewName(s string) (Name, error) {
	s = strings.TrimSpace(s)

	if s == "" {
		return Name{}, ErrNameRequired
	}

	if len(s) > 255 {
		return Name{}, ErrNameTooLong
	}

	return Name{value: s}, nil
}

// String returns the name value.
func (n Name) String() string {
	return n.value
}

// NewImportance validates an importance value (1-10).
func NewImportance(v int) (int, error) {
	if v < 1 || v > 10 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidImportance, v)
	}
	return v, nil
}

// NewOccurrenceStatus validates and creates an OccurrenceStatus.
func NewOccurrenceStatus(s string) (OccurrenceStatus, error) {
	status := OccurrenceStatus(strings.ToUpper(s))

	switch status {
	case OccurrenceStatusPending, OccurrenceStatusInProgress,
		OccurrenceStatusCompleted, OccurrenceStatusSkipped:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidOccurrenceStatus, s)
	}
}

// NewWeekday validates and creates a Weekday from a three-letter tag.
func NewWeekday(s string) (Weekday, error) {
	day := Weekday(strings.ToUpper(s))

	switch day {
	case WeekdayMonday, WeekdayTuesday, WeekdayWednesday, WeekdayThursday,
		WeekdayFriday, WeekdaySaturday, WeekdaySunday:
		return day, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidWeekday, s)
	}
}

// NewDayOfMonth validates a day-of-month value (1-31).
func NewDayOfMonth(v int) (int, error) {
	if v < 1 || v > 31 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDayOfMonth, v)
	}
	return v, nil
}

// ClockTime is a wall-clock time of day ("HH:MM") used by fixed tasks.
// It carries no date or timezone; the caller anchors it to a calendar day.
type ClockTime struct {
	hour   int
	minute int
}

// NewClockTime parses and validates an HH:MM string.
func NewClockTime(s string) (ClockTime, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}

	return ClockTime{hour: hour, minute: minute}, nil
}

// String returns the HH:MM representation.
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.hour, c.minute)
}

// Minutes returns the offset from midnight in minutes.
func (c ClockTime) Minutes() int {
	return c.hour*60 + c.minute
}
