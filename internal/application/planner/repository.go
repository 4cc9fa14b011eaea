package planner

import (
	"context"
	"time"

	"github.com/ritmoapp/ritmo/internal/domain"
)

// Repository defines the storage operations the planner engine relies on.
// All create/update operations return the entity as persisted. Single-row
// operations are atomic; multi-step read-decide-write sequences go through
// WithTaskLock.
type Repository interface {
	// === Task Operations ===

	// CreateTask persists a task together with its recurrence, if any.
	CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// FindTaskWithRecurrence retrieves a task with its recurrence populated.
	// Returns domain.ErrTaskNotFound if the task doesn't exist.
	FindTaskWithRecurrence(ctx context.Context, taskID string) (*domain.Task, error)

	// ListActiveRecurringTaskIDs returns the IDs of all active tasks that
	// carry a recurrence. Used by the backlog auditor.
	ListActiveRecurringTaskIDs(ctx context.Context) ([]string, error)

	// UpdateTask applies the engine-writable task fields.
	// Returns domain.ErrTaskNotFound if the task doesn't exist.
	UpdateTask(ctx context.Context, params domain.UpdateTaskParams) error

	// UpdateRecurrence applies the period-tracking counter fields.
	// Returns domain.ErrNotFound if the recurrence doesn't exist.
	UpdateRecurrence(ctx context.Context, params domain.UpdateRecurrenceParams) error

	// === Occurrence Operations ===

	// CreateOccurrence persists a new occurrence.
	CreateOccurrence(ctx context.Context, occ *domain.Occurrence) (*domain.Occurrence, error)

	// FindOccurrenceByID retrieves a single occurrence.
	// Returns domain.ErrOccurrenceNotFound if it doesn't exist.
	FindOccurrenceByID(ctx context.Context, id string) (*domain.Occurrence, error)

	// FindLatestOccurrence retrieves the task's most recent occurrence by
	// start date. Returns domain.ErrOccurrenceNotFound when the task has no
	// occurrences yet.
	FindLatestOccurrence(ctx context.Context, taskID string) (*domain.Occurrence, error)

	// FindOccurrencesByTask retrieves all occurrences for a task, sorted by
	// start date ascending.
	FindOccurrencesByTask(ctx context.Context, taskID string) ([]*domain.Occurrence, error)

	// UpdateOccurrenceStatus transitions an occurrence's status, setting
	// completedAt when provided. Returns the updated occurrence.
	// Returns domain.ErrOccurrenceNotFound if it doesn't exist.
	UpdateOccurrenceStatus(ctx context.Context, id string, status domain.OccurrenceStatus, completedAt *time.Time) (*domain.Occurrence, error)

	// UpdateOccurrenceTimeConsumed writes the synced actual-effort value.
	UpdateOccurrenceTimeConsumed(ctx context.Context, id string, hours float64) error

	// === Calendar Event Operations ===

	// CreateEvent persists a calendar event, optionally linked to an occurrence.
	CreateEvent(ctx context.Context, event *domain.CalendarEvent) (*domain.CalendarEvent, error)

	// FindEventByID retrieves a calendar event.
	// Returns domain.ErrEventNotFound if it doesn't exist.
	FindEventByID(ctx context.Context, id string) (*domain.CalendarEvent, error)

	// UpdateEventCompleted flips the event's completion flag.
	UpdateEventCompleted(ctx context.Context, id string, completed bool) error

	// DeleteEvent removes a calendar event.
	DeleteEvent(ctx context.Context, id string) error

	// SumCompletedEventTime returns the total dedicated hours of completed
	// events linked to the occurrence.
	SumCompletedEventTime(ctx context.Context, occurrenceID string) (float64, error)

	// === Serialization ===

	// WithTaskLock serializes fn against all other lock holders for the same
	// task. Every read-latest/decide/write-next sequence runs under it; two
	// concurrent chained creations for one task must not both observe the
	// same "latest" occurrence.
	WithTaskLock(ctx context.Context, taskID string, fn func(Repository) error) error
}
