package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ritmoapp/ritmo/internal/domain"
)

// Timestamps are stored as RFC 3339 text in UTC; day selections as JSON
// arrays. Both survive round trips bit-exactly, which matters for period
// anchors advanced by exact intervals.

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t.UTC(), nil
}

func parseTimePtr(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := parseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func marshalWeekdays(days []domain.Weekday) (string, error) {
	if days == nil {
		days = []domain.Weekday{}
	}
	b, err := json.Marshal(days)
	if err != nil {
		return "", fmt.Errorf("failed to marshal weekdays: %w", err)
	}
	return string(b), nil
}

func unmarshalWeekdays(s string) ([]domain.Weekday, error) {
	var tags []string
	if err := json.Unmarshal([]byte(s), &tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weekdays: %w", err)
	}
	if len(tags) == 0 {
		return nil, nil
	}
	out := make([]domain.Weekday, len(tags))
	for i, tag := range tags {
		day, err := domain.NewWeekday(tag)
		if err != nil {
			return nil, err
		}
		out[i] = day
	}
	return out, nil
}

func marshalInts(days []int) (string, error) {
	if days == nil {
		days = []int{}
	}
	b, err := json.Marshal(days)
	if err != nil {
		return "", fmt.Errorf("failed to marshal days of month: %w", err)
	}
	return string(b), nil
}

func unmarshalInts(s string) ([]int, error) {
	var days []int
	if err := json.Unmarshal([]byte(s), &days); err != nil {
		return nil, fmt.Errorf("failed to unmarshal days of month: %w", err)
	}
	if len(days) == 0 {
		return nil, nil
	}
	return days, nil
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
		return nil, err
	}
	return &ct, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTaskWithRecurrence(row rowScanner) (*domain.Task, error) {
	task := &domain.Task{}
	var fixedStart, fixedEnd *string
	var createdAt, updatedAt string

	var recID *string
	var interval, maxOccurrences, completedOccurrences *int
	var daysOfWeek, daysOfMonth, lastPeriodStart, endDate *string

	err := row.Scan(
		&task.ID, &task.OwnerID, &task.Name, &task.Description, &task.Importance,
		&task.IsActive, &task.IsFixed, &fixedStart, &fixedEnd, &createdAt, &updatedAt,
		&recID, &interval, &daysOfWeek, &daysOfMonth, &maxOccurrences,
		&completedOccurrences, &lastPeriodStart, &endDate)
	if err != nil {
		return nil, err
	}

	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if task.FixedStartTime, err = stringToClockTime(fixedStart); err != nil {
		return nil, err
	}
	if task.FixedEndTime, err = stringToClockTime(fixedEnd); err != nil {
		return nil, err
	}

	if recID == nil {
		return task, nil
	}

	rec := &domain.Recurrence{
		ID:             *recID,
		TaskID:         task.ID,
		Interval:       interval,
		MaxOccurrences: maxOccurrences,
	}
	if completedOccurrences != nil {
		rec.CompletedOccurrences = *completedOccurrences
	}
	if daysOfWeek != nil {
		if rec.DaysOfWeek, err = unmarshalWeekdays(*daysOfWeek); err != nil {
			return nil, err
		}
	}
	if daysOfMonth != nil {
		if rec.DaysOfMonth, err = unmarshalInts(*daysOfMonth); err != nil {
			return nil, err
		}
	}
	if lastPeriodStart != nil {
		if rec.LastPeriodStart, err = parseTime(*lastPeriodStart); err != nil {
			return nil, err
		}
	}
	if rec.EndDate, err = parseTimePtr(endDate); err != nil {
		return nil, err
	}
	task.Recurrence = rec
	return task, nil
}

func scanOccurrence(row rowScanner) (*domain.Occurrence, error) {
	occ := &domain.Occurrence{}
	var status, startDate, createdAt string
	var targetDate, limitDate, completedAt *string
	var targetTime sql.NullFloat64

	err := row.Scan(
		&occ.ID, &occ.TaskID, &startDate, &targetDate, &limitDate,
		&targetTime, &occ.TimeConsumed, &status, &occ.Urgency,
		&completedAt, &createdAt)
	if err != nil {
		return nil, err
	}

	occ.Status, err = domain.NewOccurrenceStatus(status)
	if err != nil {
		return nil, err
	}
	if targetTime.Valid {
		occ.TargetTimeConsumption = &targetTime.Float64
	}

	if occ.StartDate, err = parseTime(startDate); err != nil {
		return nil, err
	}
	if occ.TargetDate, err = parseTimePtr(targetDate); err != nil {
		return nil, err
	}
	if occ.LimitDate, err = parseTimePtr(limitDate); err != nil {
		return nil, err
	}
	if occ.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return nil, err
	}
	if occ.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return occ, nil
}
