package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ritmoapp/ritmo/internal/domain"
)

func checkRowsAffected(result sql.Result, notFound error, entityID string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", notFound, entityID)
	}
	return nil
}

// inTransaction runs fn inside a transaction, unless the store is already
// transaction-bound.
func (s *Store) inTransaction(ctx context.Context, fn func(*Store) error) (err error) {
	if _, ok := s.conn.(*sql.Tx); ok {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(&Store{db: s.db, conn: tx, taskLocks: s.taskLocks})
	return
}

// === Task Operations ===

// CreateTask persists a task together with its recurrence, if any.
func (s *Store) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	err := s.inTransaction(ctx, func(txStore *Store) error {
		_, err := txStore.conn.ExecContext(ctx, `
			INSERT INTO tasks (id, owner_id, name, description, importance, is_active, is_fixed,
				fixed_start_time, fixed_end_time, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			task.ID, task.OwnerID, task.Name, task.Description, task.Importance,
			task.IsActive, task.IsFixed,
			clockTimeToString(task.FixedStartTime), clockTimeToString(task.FixedEndTime),
			formatTime(task.CreatedAt), formatTime(task.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to insert task: %w", err)
		}

		rec := task.Recurrence
		if rec == nil {
			return nil
		}

		daysOfWeek, err := marshalWeekdays(rec.DaysOfWeek)
		if err != nil {
			return err
		}
		daysOfMonth, err := marshalInts(rec.DaysOfMonth)
		if err != nil {
			return err
		}

		_, err = txStore.conn.ExecContext(ctx, `
			INSERT INTO recurrences (id, task_id, interval_days, days_of_week, days_of_month,
				max_occurrences, completed_occurrences, last_period_start, end_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.TaskID, rec.Interval, daysOfWeek, daysOfMonth,
			rec.MaxOccurrences, rec.CompletedOccurrences,
			formatTime(rec.LastPeriodStart), formatTimePtr(rec.EndDate),
			formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt))
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
	row := s.conn.QueryRowContext(ctx, `
		SELECT t.id, t.owner_id, t.name, t.description, t.importance, t.is_active, t.is_fixed,
			t.fixed_start_time, t.fixed_end_time, t.created_at, t.updated_at,
			r.id, r.interval_days, r.days_of_week, r.days_of_month, r.max_occurrences,
			r.completed_occurrences, r.last_period_start, r.end_date
		FROM tasks t
		LEFT JOIN recurrences r ON r.task_id = t.id
		WHERE t.id = ?`, taskID)

	task, err := scanTaskWithRecurrence(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, taskID)
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// ListActiveRecurringTaskIDs returns the IDs of all active tasks carrying a
// recurrence.
func (s *Store) ListActiveRecurringTaskIDs(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT t.id
		FROM tasks t
		JOIN recurrences r ON r.task_id = t.id
		WHERE t.is_active = 1
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
	result, err := s.conn.ExecContext(ctx, `
		UPDATE tasks
		SET is_active = COALESCE(?, is_active), updated_at = ?
		WHERE id = ?`,
		params.IsActive, formatTime(time.Now().UTC()), params.TaskID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return checkRowsAffected(result, domain.ErrTaskNotFound, params.TaskID)
}

// UpdateRecurrence applies the period-tracking counter fields.
func (s *Store) UpdateRecurrence(ctx context.Context, params domain.UpdateRecurrenceParams) error {
	result, err := s.conn.ExecContext(ctx, `
		UPDATE recurrences
		SET completed_occurrences = COALESCE(?, completed_occurrences),
			last_period_start = COALESCE(?, last_period_start),
			updated_at = ?
		WHERE id = ?`,
		params.CompletedOccurrences, formatTimePtr(params.LastPeriodStart),
		formatTime(time.Now().UTC()), params.RecurrenceID)
	if err != nil {
		return fmt.Errorf("failed to update recurrence: %w", err)
	}
	return checkRowsAffected(result, domain.ErrNotFound, params.RecurrenceID)
}

// === Occurrence Operations ===

const occurrenceColumns = `id, task_id, start_date, target_date, limit_date,
	target_time_consumption, time_consumed, status, urgency, completed_at, created_at`

// CreateOccurrence persists a new occurrence.
func (s *Store) CreateOccurrence(ctx context.Context, occ *domain.Occurrence) (*domain.Occurrence, error) {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO occurrences (`+occurrenceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		occ.ID, occ.TaskID, formatTime(occ.StartDate),
		formatTimePtr(occ.TargetDate), formatTimePtr(occ.LimitDate),
		occ.TargetTimeConsumption, occ.TimeConsumed, string(occ.Status),
		occ.Urgency, formatTimePtr(occ.CompletedAt), formatTime(occ.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert occurrence: %w", err)
	}
	return occ, nil
}

// FindOccurrenceByID retrieves a single occurrence.
func (s *Store) FindOccurrenceByID(ctx context.Context, id string) (*domain.Occurrence, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT `+occurrenceColumns+` FROM occurrences WHERE id = ?`, id)

	occ, err := scanOccurrence(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrOccurrenceNotFound, id)
		}
		return nil, fmt.Errorf("failed to get occurrence: %w", err)
	}
	return occ, nil
}

// FindLatestOccurrence retrieves the task's most recent occurrence by start
// date.
func (s *Store) FindLatestOccurrence(ctx context.Context, taskID string) (*domain.Occurrence, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT `+occurrenceColumns+`
		FROM occurrences
		WHERE task_id = ?
		ORDER BY start_date DESC, created_at DESC
		LIMIT 1`, taskID)

	occ, err := scanOccurrence(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: task %s", domain.ErrOccurrenceNotFound, taskID)
		}
		return nil, fmt.Errorf("failed to get latest occurrence: %w", err)
	}
	return occ, nil
}

// FindOccurrencesByTask retrieves all occurrences for a task, oldest first.
func (s *Store) FindOccurrencesByTask(ctx context.Context, taskID string) ([]*domain.Occurrence, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT `+occurrenceColumns+`
		FROM occurrences
		WHERE task_id = ?
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
	result, err := s.conn.ExecContext(ctx, `
		UPDATE occurrences SET status = ?, completed_at = ? WHERE id = ?`,
		string(status), formatTimePtr(completedAt), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update occurrence status: %w", err)
	}
	if err := checkRowsAffected(result, domain.ErrOccurrenceNotFound, id); err != nil {
		return nil, err
	}
	return s.FindOccurrenceByID(ctx, id)
}

// UpdateOccurrenceTimeConsumed writes the synced actual-effort value.
func (s *Store) UpdateOccurrenceTimeConsumed(ctx context.Context, id string, hours float64) error {
	result, err := s.conn.ExecContext(ctx, `
		UPDATE occurrences SET time_consumed = ? WHERE id = ?`, hours, id)
	if err != nil {
		return fmt.Errorf("failed to update time consumed: %w", err)
	}
	return checkRowsAffected(result, domain.ErrOccurrenceNotFound, id)
}

// === Calendar Event Operations ===

// CreateEvent persists a calendar event.
func (s *Store) CreateEvent(ctx context.Context, event *domain.CalendarEvent) (*domain.CalendarEvent, error) {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO calendar_events (id, occurrence_id, start_time, end_time,
			dedicated_time, is_completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.OccurrenceID, formatTime(event.StartTime), formatTime(event.EndTime),
		event.DedicatedTime, event.IsCompleted, formatTime(event.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}
	return event, nil
}

// FindEventByID retrieves a calendar event.
func (s *Store) FindEventByID(ctx context.Context, id string) (*domain.CalendarEvent, error) {
	event := &domain.CalendarEvent{}
	var startTime, endTime, createdAt string

	err := s.conn.QueryRowContext(ctx, `
		SELECT id, occurrence_id, start_time, end_time, dedicated_time, is_completed, created_at
		FROM calendar_events WHERE id = ?`, id).
		Scan(&event.ID, &event.OccurrenceID, &startTime, &endTime,
			&event.DedicatedTime, &event.IsCompleted, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrEventNotFound, id)
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	if event.StartTime, err = parseTime(startTime); err != nil {
		return nil, err
	}
	if event.EndTime, err = parseTime(endTime); err != nil {
		return nil, err
	}
	if event.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return event, nil
}

// UpdateEventCompleted flips the event's completion flag.
func (s *Store) UpdateEventCompleted(ctx context.Context, id string, completed bool) error {
	result, err := s.conn.ExecContext(ctx, `
		UPDATE calendar_events SET is_completed = ? WHERE id = ?`, completed, id)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return checkRowsAffected(result, domain.ErrEventNotFound, id)
}

// DeleteEvent removes a calendar event.
func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return checkRowsAffected(result, domain.ErrEventNotFound, id)
}

// SumCompletedEventTime returns the total dedicated hours of completed events
// linked to the occurrence.
func (s *Store) SumCompletedEventTime(ctx context.Context, occurrenceID string) (float64, error) {
	var total float64
	err := s.conn.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(dedicated_time), 0)
		FROM calendar_events
		WHERE occurrence_id = ? AND is_completed = 1`, occurrenceID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum event time: %w", err)
	}
	return total, nil
}
