package postgres

import (
	"fmt"
	"time"

	"github.com/ritmoapp/ritmo/internal/domain"
)

// Conversion helpers between database column types and domain types. All
// timestamps are normalized to UTC on the way out of the database.

func weekdaysToStrings(days []domain.Weekday) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = string(d)
	}
	return out
}

func stringsToWeekdays(tags []string) ([]domain.Weekday, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	out := make([]domain.Weekday, len(tags))
	for i, tag := range tags {
		day, err := domain.NewWeekday(tag)
		if err != nil {
			return nil, fmt.Errorf("failed to convert weekday: %w", err)
		}
		out[i] = day
	}
	return out, nil
}

func intsToInt32s(days []int) []int32 {
	out := make([]int32, len(days))
	for i, d := range days {
		out[i] = int32(d)
	}
	return out
}

func int32sToInts(days []int32) []int {
	if len(days) == 0 {
		return nil
	}
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = int(d)
	}
	return out
}

func clockTimeToString(t *domain.ClockTime) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

func stringToClockTime(s *string) (*domain.ClockTime, error) {
	if s == nil {
		return nil, nil
	}
	ct, err := domain.NewClockTime(*s)
	if err != nil {
		return nil, fmt.Errorf("failed to convert clock time: %w", err)
	}
	return &ct, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
