package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ritmoapp/ritmo/internal/domain"
)

// checkRowsAffected validates that an UPDATE/DELETE operation affected exactly
// one row. Returns notFound when nothing matched.
func checkRowsAffected(rowsAffected int64, notFound error, entityID string) error {
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", notFound, entityID)
	}
	return nil
}

func parseID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}
	return nil
}

// === Task Operations ===

// CreateTask persists a task together with its recurrence, if any, in a
// single transaction.
func (s *Store) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	err := s.executeInTransaction(ctx, "create_task", func(txStore *Store) error {
		_, err := txStore.db.Exec(ctx, `
			INSERT INTO tasks (id, owner_id, name, description, importance, is_active, is_fixed,
				fixed_start_time, fixed_end_time, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			task.ID, task.OwnerID, task.Name, task.Description, task.Importance,
			task.IsActive, task.IsFixed,
			clockTimeToString(task.FixedStartTime), clockTimeToString(task.FixedEndTime),
			task.CreatedAt, task.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert task: %w", err)
		}

		rec := task.Recurrence
		if rec == nil {
			return nil
		}

		_, err = txStore.db.Exec(ctx, `
			INSERT INTO recurrences (id, task_id, interval_days, days_of_week, days_of_month,
				max_occurrences, completed_occurrences, last_period_start, end_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			rec.ID, rec.TaskID, rec.Interval,
			weekdaysToStrings(rec.DaysOfWeek), intsToInt32s(rec.DaysOfMonth),
			rec.MaxOccurrences, rec.CompletedOccurrences, rec.LastPeriodStart,
			rec.EndDate, rec.CreatedAt, rec.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert recurrence: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// FindTaskWithRecurrence retrieves a task with its recurrence populated.
func (s *Store) FindTaskWithRecurrence(ctx context.Context, taskID string) (*domain.Task, error) {
	if err := parseID(taskID); err != nil {
		return nil, err
	}

	row := s.db.QueryRow(ctx, `
		SELECT t.id, t.owner_id, t.name, t.description, t.importance, t.is_active, t.is_fixed,
			t.fixed_start_time, t.fixed_end_time, t.created_at, t.updated_at,
			r.id, r.interval_days, r.days_of_week, r.days_of_month, r.max_occurrences,
			r.completed_occurrences, r.last_period_start, r.end_date, r.created_at, r.updated_at
		FROM tasks t
		LEFT JOIN recurrences r ON r.task_id = t.id
		WHERE t.id = $1`, taskID)

	task, err := scanTaskWithRecurrence(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, taskID)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// ListActiveRecurringTaskIDs returns the IDs of all active tasks carrying a
// recurrence.
func (s *Store) ListActiveRecurringTaskIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT t.id
		FROM tasks t
		JOIN recurrences r ON r.task_id = t.id
		WHERE t.is_active
		ORDER BY t.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring tasks: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan task id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return ids, nil
}

// UpdateTask applies the engine-writable task fields.
func (s *Store) UpdateTask(ctx context.Context, params domain.UpdateTaskParams) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE tasks
		SET is_active = COALESCE($2, is_active), updated_at = NOW()
		WHERE id = $1`,
		params.TaskID, params.IsActive)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return checkRowsAffected(tag.RowsAffected(), domain.ErrTaskNotFound, params.TaskID)
}

// UpdateRecurrence applies the period-tracking counter fields.
func (s *Store) UpdateRecurrence(ctx context.Context, params domain.UpdateRecurrenceParams) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE recurrences
		SET completed_occurrences = COALESCE($2, completed_occurrences),
			last_period_start = COALESCE($3, last_period_start),
			updated_at = NOW()
		WHERE id = $1`,
		params.RecurrenceID, params.CompletedOccurrences, params.LastPeriodStart)
	if err != nil {
		return fmt.Errorf("failed to update recurrence: %w", err)
	}
	return checkRowsAffected(tag.RowsAffected(), domain.ErrNotFound, params.RecurrenceID)
}

// === Occurrence Operations ===

const occurrenceColumns = `id, task_id, start_date, target_date, limit_date,
	target_time_consumption, time_consumed, status, urgency, completed_at, created_at`

// CreateOccurrence persists a new occurrence.
func (s *Store) CreateOccurrence(ctx context.Context, occ *domain.Occurrence) (*domain.Occurrence, error) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO occurrences (`+occurrenceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		occ.ID, occ.TaskID, occ.StartDate, occ.TargetDate, occ.LimitDate,
		occ.TargetTimeConsumption, occ.TimeConsumed, string(occ.Status),
		occ.Urgency, occ.CompletedAt, occ.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert occurrence: %w", err)
	}
	return occ, nil
}

// FindOccurrenceByID retrieves a single occurrence.
func (s *Store) FindOccurrenceByID(ctx context.Context, id string) (*domain.Occurrence, error) {
	if err := parseID(id); err != nil {
		return nil, err
	}

	row := s.db.QueryRow(ctx, `
		SELECT `+occurrenceColumns+` FROM occurrences WHERE id = $1`, id)

	occ, err := scanOccurrence(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrOccurrenceNotFound, id)
		}
		return nil, fmt.Errorf("failed to get occurrence: %w", err)
	}
	return occ, nil
}

// FindLatestOccurrence retrieves the task's most recent occurrence by start
// date.
func (s *Store) FindLatestOccurrence(ctx context.Context, taskID string) (*domain.Occurrence, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+occurrenceColumns+`
		FROM occurrences
		WHERE task_id = $1
		ORDER BY start_date DESC, created_at DESC
		LIMIT 1`, taskID)

	occ, err := scanOccurrence(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: task %s", domain.ErrOccurrenceNotFound, taskID)
		}
		return nil, fmt.Errorf("failed to get latest occurrence: %w", err)
	}
	return occ, nil
}

// FindOccurrencesByTask retrieves all occurrences for a task, oldest first.
func (s *Store) FindOccurrencesByTask(ctx context.Context, taskID string) ([]*domain.Occurrence, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+occurrenceColumns+`
		FROM occurrences
		WHERE task_id = $1
		ORDER BY start_date ASC, created_at ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list occurrences: %w", err)
	}
	defer rows.Close()

	var occurrences []*domain.Occurrence
	for rows.Next() {
		occ, err := scanOccurrence(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan occurrence: %w", err)
		}
		occurrences = append(occurrences, occ)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate occurrences: %w", err)
	}
	return occurrences, nil
}

// UpdateOccurrenceStatus transitions an occurrence's status.
func (s *Store) UpdateOccurrenceStatus(ctx context.Context, id string, status domain.OccurrenceStatus, completedAt *time.Time) (*domain.Occurrence, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE occurrences
		SET status = $2, completed_at = $3
		WHERE id = $1
		RETURNING `+occurrenceColumns, id, string(status), completedAt)

	occ, err := scanOccurrence(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrOccurrenceNotFound, id)
		}
		return nil, fmt.Errorf("failed to update occurrence status: %w", err)
	}
	return occ, nil
}

// UpdateOccurrenceTimeConsumed writes the synced actual-effort value.
func (s *Store) UpdateOccurrenceTimeConsumed(ctx context.Context, id string, hours float64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE occurrences SET time_consumed = $2 WHERE id = $1`, id, hours)
	if err != nil {
		return fmt.Errorf("failed to update time consumed: %w", err)
	}
	return checkRowsAffected(tag.RowsAffected(), domain.ErrOccurrenceNotFound, id)
}

// === Calendar Event Operations ===

// CreateEvent persists a calendar event.
func (s *Store) CreateEvent(ctx context.Context, event *domain.CalendarEvent) (*domain.CalendarEvent, error) {
	_, err := s.db.Exec(ctx, `
		INSERT INTO calendar_events (id, occurrence_id, start_time, end_time,
			dedicated_time, is_completed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.OccurrenceID, event.StartTime, event.EndTime,
		event.DedicatedTime, event.IsCompleted, event.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	return event, nil
}

// FindEventByID retrieves a calendar event.
func (s *Store) FindEventByID(ctx context.Context, id string) (*domain.CalendarEvent, error) {
	if err := parseID(id); err != nil {
		return nil, err
	}

	event := &domain.CalendarEvent{}
	err := s.db.QueryRow(ctx, `
		SELECT id, occurrence_id, start_time, end_time, dedicated_time, is_completed, created_at
		FROM calendar_events WHERE id = $1`, id).
		Scan(&event.ID, &event.OccurrenceID, &event.StartTime, &event.EndTime,
			&event.DedicatedTime, &event.IsCompleted, &event.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrEventNotFound, id)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	event.StartTime = event.StartTime.UTC()
	event.EndTime = event.EndTime.UTC()
	event.CreatedAt = event.CreatedAt.UTC()
	return event, nil
}

// UpdateEventCompleted flips the event's completion flag.
func (s *Store) UpdateEventCompleted(ctx context.Context, id string, completed bool) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE calendar_events SET is_completed = $2 WHERE id = $1`, id, completed)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return checkRowsAffected(tag.RowsAffected(), domain.ErrEventNotFound, id)
}

// DeleteEvent removes a calendar event.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM calendar_events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return checkRowsAffected(tag.RowsAffected(), domain.ErrEventNotFound, id)
}

// SumCompletedEventTime returns the total dedicated hours of completed events
// linked to the occurrence.
func (s *Store) SumCompletedEventTime(ctx context.Context, occurrenceID string) (float64, error) {
	var total float64
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(dedicated_time), 0)
		FROM calendar_events
		WHERE occurrence_id = $1 AND is_completed`, occurrenceID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum event time: %w", err)
	}
	return total, nil
}

// === Row Scanning ===

func scanTaskWithRecurrence(row pgx.Row) (*domain.Task, error) {
	task := &domain.Task{}
	var fixedStart, fixedEnd *string

	var recID *string
	var interval, maxOccurrences *int
	var daysOfWeek []string
	var daysOfMonth []int32
	var completedOccurrences *int
	var lastPeriodStart, endDate, recCreatedAt, recUpdatedAt *time.Time

	err := row.Scan(
		&task.ID, &task.OwnerID, &task.Name, &task.Description, &task.Importance,
		&task.IsActive, &task.IsFixed, &fixedStart, &fixedEnd,
		&task.CreatedAt, &task.UpdatedAt,
		&recID, &interval, &daysOfWeek, &daysOfMonth, &maxOccurrences,
		&completedOccurrences, &lastPeriodStart, &endDate, &recCreatedAt, &recUpdatedAt)
	if err != nil {
		return nil, err
	}

	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()

	if task.FixedStartTime, err = stringToClockTime(fixedStart); err != nil {
		return nil, err
	}
	if task.FixedEndTime, err = stringToClockTime(fixedEnd); err != nil {
		return nil, err
	}

	if recID == nil {
		return task, nil
	}

	weekdays, err := stringsToWeekdays(daysOfWeek)
	if err != nil {
		return nil, err
	}

	rec := &domain.Recurrence{
		ID:             *recID,
		TaskID:         task.ID,
		Interval:       interval,
		DaysOfWeek:     weekdays,
		DaysOfMonth:    int32sToInts(daysOfMonth),
		MaxOccurrences: maxOccurrences,
		EndDate:        utcPtr(endDate),
	}
	if completedOccurrences != nil {
		rec.CompletedOccurrences = *completedOccurrences
	}
	if lastPeriodStart != nil {
		rec.LastPeriodStart = lastPeriodStart.UTC()
	}
	if recCreatedAt != nil {
		rec.CreatedAt = recCreatedAt.UTC()
	}
	if recUpdatedAt != nil {
		rec.UpdatedAt = recUpdatedAt.UTC()
	}
	task.Recurrence = rec
	return task, nil
}

func scanOccurrence(row pgx.Row) (*domain.Occurrence, error) {
	occ := &domain.Occurrence{}
	var status string

	err := row.Scan(
		&occ.ID, &occ.TaskID, &occ.StartDate, &occ.TargetDate, &occ.LimitDate,
		&occ.TargetTimeConsumption, &occ.TimeConsumed, &status, &occ.Urgency,
		&occ.CompletedAt, &occ.CreatedAt)
	if err != nil {
		return nil, err
	}

	occ.Status, err = domain.NewOccurrenceStatus(status)
	if err != nil {
		return nil, err
	}

	occ.StartDate = occ.StartDate.UTC()
	occ.TargetDate = utcPtr(occ.TargetDate)
	occ.LimitDate = utcPtr(occ.LimitDate)
	occ.CompletedAt = utcPtr(occ.CompletedAt)
	occ.CreatedAt = occ.CreatedAt.UTC()
	return occ, nil
}
