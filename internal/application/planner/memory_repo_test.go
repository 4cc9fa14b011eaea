package planner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ritmoapp/ritmo/internal/domain"
)

// memoryRepo is an in-memory Repository used across the planner tests. It
// returns copies so tests only observe state the service actually persisted.
type memoryRepo struct {
	mu          sync.Mutex
	tasks       map[string]*domain.Task
	occurrences map[string]*domain.Occurrence
	events      map[string]*domain.CalendarEvent
	taskLocks   map[string]*sync.Mutex
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		tasks:       make(map[string]*domain.Task),
		occurrences: make(map[string]*domain.Occurrence),
		events:      make(map[string]*domain.CalendarEvent),
		taskLocks:   make(map[string]*sync.Mutex),
	}
}

func (m *memoryRepo) CreateTask(_ context.Context, task *domain.Task) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := copyTask(task)
	m.tasks[task.ID] = stored
	return copyTask(stored), nil
}

func (m *memoryRepo) FindTaskWithRecurrence(_ context.Context, taskID string) (*domain.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, taskID)
	}
	return copyTask(task), nil
}

func (m *memoryRepo) ListActiveRecurringTaskIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, task := range m.tasks {
		if task.IsActive && task.Recurrence != nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memoryRepo) UpdateTask(_ context.Context, params domain.UpdateTaskParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[params.TaskID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, params.TaskID)
	}
	if params.IsActive != nil {
		task.IsActive = *params.IsActive
	}
	task.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *memoryRepo) UpdateRecurrence(_ context.Context, params domain.UpdateRecurrenceParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, task := range m.tasks {
		rec := task.Recurrence
		if rec == nil || rec.ID != params.RecurrenceID {
			continue
		}
		if params.CompletedOccurrences != nil {
			rec.CompletedOccurrences = *params.CompletedOccurrences
		}
		if params.LastPeriodStart != nil {
			rec.LastPeriodStart = *params.LastPeriodStart
		}
		rec.UpdatedAt = time.Now().UTC()
		return nil
	}
	return fmt.Errorf("%w: recurrence %s", domain.ErrNotFound, params.RecurrenceID)
}

func (m *memoryRepo) CreateOccurrence(_ context.Context, occ *domain.Occurrence) (*domain.Occurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := copyOccurrence(occ)
	m.occurrences[occ.ID] = stored
	return copyOccurrence(stored), nil
}

func (m *memoryRepo) FindOccurrenceByID(_ context.Context, id string) (*domain.Occurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	occ, ok := m.occurrences[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOccurrenceNotFound, id)
	}
	return copyOccurrence(occ), nil
}

func (m *memoryRepo) FindLatestOccurrence(_ context.Context, taskID string) (*domain.Occurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.Occurrence
	for _, occ := range m.occurrences {
		if occ.TaskID != taskID {
			continue
		}
		if latest == nil || occ.StartDate.After(latest.StartDate) {
			latest = occ
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: task %s", domain.ErrOccurrenceNotFound, taskID)
	}
	return copyOccurrence(latest), nil
}

func (m *memoryRepo) FindOccurrencesByTask(_ context.Context, taskID string) ([]*domain.Occurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Occurrence
	for _, occ := range m.occurrences {
		if occ.TaskID == taskID {
			result = append(result, copyOccurrence(occ))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].ID < result[j].ID
		}
		return result[i].StartDate.Before(result[j].StartDate)
	})
	return result, nil
}

func (m *memoryRepo) UpdateOccurrenceStatus(_ context.Context, id string, status domain.OccurrenceStatus, completedAt *time.Time) (*domain.Occurrence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	occ, ok := m.occurrences[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOccurrenceNotFound, id)
	}
	occ.Status = status
	occ.CompletedAt = completedAt
	return copyOccurrence(occ), nil
}

func (m *memoryRepo) UpdateOccurrenceTimeConsumed(_ context.Context, id string, hours float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	occ, ok := m.occurrences[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrOccurrenceNotFound, id)
	}
	occ.TimeConsumed = hours
	return nil
}

func (m *memoryRepo) CreateEvent(_ context.Context, event *domain.CalendarEvent) (*domain.CalendarEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *event
	m.events[event.ID] = &stored
	copied := stored
	return &copied, nil
}

func (m *memoryRepo) FindEventByID(_ context.Context, id string) (*domain.CalendarEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrEventNotFound, id)
	}
	copied := *event
	return &copied, nil
}

func (m *memoryRepo) UpdateEventCompleted(_ context.Context, id string, completed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrEventNotFound, id)
	}
	event.IsCompleted = completed
	return nil
}

func (m *memoryRepo) DeleteEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrEventNotFound, id)
	}
	delete(m.events, id)
	return nil
}

func (m *memoryRepo) SumCompletedEventTime(_ context.Context, occurrenceID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0.0
	for _, event := range m.events {
		if event.IsCompleted && event.OccurrenceID != nil && *event.OccurrenceID == occurrenceID {
			total += event.DedicatedTime
		}
	}
	return total, nil
}

func (m *memoryRepo) WithTaskLock(_ context.Context, taskID string, fn func(Repository) error) error {
	m.mu.Lock()
	lock, ok := m.taskLocks[taskID]
	if !ok {
		lock = &sync.Mutex{}
		m.taskLocks[taskID] = lock
	}
	m.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(m)
}

func copyTask(task *domain.Task) *domain.Task {
	copied := *task
	if task.Recurrence != nil {
		rec := *task.Recurrence
		copied.Recurrence = &rec
	}
	return &copied
}

func copyOccurrence(occ *domain.Occurrence) *domain.Occurrence {
	copied := *occ
	return &copied
}
