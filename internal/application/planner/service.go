package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ritmoapp/ritmo/internal/domain"
	"github.com/ritmoapp/ritmo/internal/schedule"
)

// Service drives the occurrence lifecycle: it creates occurrences for tasks,
// transitions them between states, and chains the next occurrence when a
// recurring task's latest occurrence resolves.
//
// The engine is reactive. Nothing here runs on a timer; occurrences only
// advance when a prior one resolves or a caller explicitly asks.
type Service struct {
	repo    Repository
	tracker schedule.Tracker
}

// NewService creates a new planner service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateTask validates and persists a task, then creates its initial
// occurrence. Configuration errors surface at creation time and are never
// silently corrected.
func (s *Service) CreateTask(ctx context.Context, task *domain.Task, params domain.NewOccurrenceParams) (*domain.Task, error) {
	if err := task.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if task.ID == "" {
		id, err := newID()
		if err != nil {
			return nil, err
		}
		task.ID = id
	}
	task.IsActive = true
	task.CreatedAt = now
	task.UpdatedAt = now

	if rec := task.Recurrence; rec != nil {
		if rec.ID == "" {
			id, err := newID()
			if err != nil {
				return nil, err
			}
			rec.ID = id
		}
		rec.TaskID = task.ID
		if rec.LastPeriodStart.IsZero() {
			rec.LastPeriodStart = now
		}
		rec.CreatedAt = now
		rec.UpdatedAt = now
	}

	created, err := s.repo.CreateTask(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if _, err := s.CreateInitialOccurrence(ctx, created.ID, params); err != nil {
		return nil, err
	}

	return created, nil
}

// CreateInitialOccurrence creates the first occurrence for a task.
//
// Tasks without a recurrence get a single occurrence dated now; the caller
// may supply explicit target/limit dates, otherwise the occurrence has none.
// Tasks with a recurrence delegate to chained creation starting from now.
func (s *Service) CreateInitialOccurrence(ctx context.Context, taskID string, params domain.NewOccurrenceParams) (*domain.Occurrence, error) {
	task, err := s.repo.FindTaskWithRecurrence(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.Recurrence == nil {
		occ := &domain.Occurrence{
			TaskID:                task.ID,
			StartDate:             time.Now().UTC(),
			TargetDate:            params.TargetDate,
			LimitDate:             params.LimitDate,
			TargetTimeConsumption: params.TargetTimeConsumption,
			Status:                domain.OccurrenceStatusPending,
		}
		if err := occ.Validate(); err != nil {
			return nil, err
		}
		return s.persistOccurrence(ctx, s.repo, occ)
	}

	var created *domain.Occurrence
	err = s.repo.WithTaskLock(ctx, task.ID, func(repo Repository) error {
		locked, err := repo.FindTaskWithRecurrence(ctx, task.ID)
		if err != nil {
			return err
		}
		created, err = s.createNextLocked(ctx, repo, locked, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ResolveOccurrence transitions an occurrence to a terminal state. Both
// outcomes count toward the per-period completion quota: skipping still uses
// up a slot. After resolution the next occurrence is chained when the owning
// task has a recurrence.
//
// completedAt is honored only for the COMPLETED outcome and defaults to now.
func (s *Service) ResolveOccurrence(ctx context.Context, occurrenceID string, outcome domain.OccurrenceStatus, completedAt *time.Time) (*domain.Occurrence, error) {
	if outcome != domain.OccurrenceStatusCompleted && outcome != domain.OccurrenceStatusSkipped {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidOutcome, outcome)
	}

	// The lookup outside the lock only determines which task to lock on.
	occ, err := s.repo.FindOccurrenceByID(ctx, occurrenceID)
	if err != nil {
		return nil, err
	}

	var resolved *domain.Occurrence
	err = s.repo.WithTaskLock(ctx, occ.TaskID, func(repo Repository) error {
		// Re-read under the lock: a concurrent resolve may have won the
		// race between the lookup above and lock acquisition.
		current, err := repo.FindOccurrenceByID(ctx, occurrenceID)
		if err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			return fmt.Errorf("%w: %s", domain.ErrOccurrenceAlreadyResolved, occurrenceID)
		}

		task, err := repo.FindTaskWithRecurrence(ctx, current.TaskID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		var doneAt *time.Time
		if outcome == domain.OccurrenceStatusCompleted {
			doneAt = completedAt
			if doneAt == nil {
				doneAt = &now
			}
		}

		resolved, err = repo.UpdateOccurrenceStatus(ctx, occurrenceID, outcome, doneAt)
		if err != nil {
			return err
		}

		rec := task.Recurrence
		if rec == nil {
			return nil
		}

		s.tracker.RecordCompletion(rec, now)
		if err := s.persistPeriodState(ctx, repo, rec); err != nil {
			return err
		}

		_, err = s.createNextLocked(ctx, repo, task, domain.NewOccurrenceParams{})
		return err
	})
	if err != nil {
		return nil, err
	}

	return resolved, nil
}

// CreateNextOccurrence chains the next occurrence for a recurring task.
// Returns (nil, nil) when the latest occurrence is still open: the
// single-non-terminal-occurrence invariant makes this call an idempotent
// no-op, not an error.
//
// Calling it for a task without a recurrence is a programming error and
// fails loudly with domain.ErrRecurrenceRequired.
func (s *Service) CreateNextOccurrence(ctx context.Context, taskID string, params domain.NewOccurrenceParams) (*domain.Occurrence, error) {
	var created *domain.Occurrence
	err := s.repo.WithTaskLock(ctx, taskID, func(repo Repository) error {
		// Task and recurrence counters are read under the lock so the
		// chaining decision never runs on a stale period state.
		task, err := repo.FindTaskWithRecurrence(ctx, taskID)
		if err != nil {
			return err
		}
		created, err = s.createNextLocked(ctx, repo, task, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// createNextLocked holds the whole chaining decision tree. Callers must hold
// the task lock.
func (s *Service) createNextLocked(ctx context.Context, repo Repository, task *domain.Task, params domain.NewOccurrenceParams) (*domain.Occurrence, error) {
	rec := task.Recurrence
	if rec == nil {
		return nil, fmt.Errorf("%w: task %s", domain.ErrRecurrenceRequired, task.ID)
	}

	occurrences, err := repo.FindOccurrencesByTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}

	// Invariant guard: at most one occurrence per task may be non-terminal.
	// A cap-deferred occurrence can start before the occurrence it was
	// chained from, so the open one is not necessarily the one with the
	// newest start date; every occurrence has to be checked.
	for _, occ := range occurrences {
		if !occ.Status.IsTerminal() {
			return nil, nil
		}
	}

	// Sorted by start date, so the last entry is the latest.
	var latest *domain.Occurrence
	if len(occurrences) > 0 {
		latest = occurrences[len(occurrences)-1]
	}

	now := time.Now().UTC()

	if s.tracker.ApplyRolloverIfDue(rec, now) {
		if err := s.persistPeriodState(ctx, repo, rec); err != nil {
			return nil, err
		}
	}

	// The sole path by which a recurring task self-terminates.
	if rec.HasEnded(now) {
		return nil, s.deactivateTask(ctx, repo, task)
	}

	if rec.IsOneShot() {
		if latest != nil {
			return nil, nil
		}
		occ := s.buildOccurrence(task.ID, now, schedule.OneShotPattern{}, params, nil)
		return s.persistOccurrence(ctx, repo, occ)
	}

	pattern := schedule.PatternOf(rec)

	var startDate time.Time
	if s.tracker.HasReachedPeriodCap(rec) {
		// Quota used up: defer to the next period's opening instant instead
		// of scheduling immediately.
		startDate = s.tracker.Advance(rec)
	} else {
		ref := now
		if latest != nil {
			ref = latest.StartDate
		}
		startDate = pattern.NextDate(ref)
	}

	occ := s.buildOccurrence(task.ID, startDate, pattern, params, latest)
	return s.persistOccurrence(ctx, repo, occ)
}

// buildOccurrence assembles a pending occurrence at startDate with the
// pattern's window, honoring caller overrides. The effort estimate is
// inherited from the prior occurrence unless the caller supplies one.
func (s *Service) buildOccurrence(taskID string, startDate time.Time, pattern schedule.Pattern, params domain.NewOccurrenceParams, prior *domain.Occurrence) *domain.Occurrence {
	target, limit := pattern.Window(startDate)

	occ := &domain.Occurrence{
		TaskID:     taskID,
		StartDate:  startDate,
		TargetDate: &target,
		LimitDate:  &limit,
		Status:     domain.OccurrenceStatusPending,
	}

	if params.TargetDate != nil {
		occ.TargetDate = params.TargetDate
	}
	if params.LimitDate != nil {
		occ.LimitDate = params.LimitDate
	}

	switch {
	case params.TargetTimeConsumption != nil:
		occ.TargetTimeConsumption = params.TargetTimeConsumption
	case prior != nil && prior.TargetTimeConsumption != nil:
		inherited := *prior.TargetTimeConsumption
		occ.TargetTimeConsumption = &inherited
	}

	return occ
}

// persistOccurrence fills in identity and cached urgency, then writes.
func (s *Service) persistOccurrence(ctx context.Context, repo Repository, occ *domain.Occurrence) (*domain.Occurrence, error) {
	if err := occ.Validate(); err != nil {
		return nil, err
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	occ.ID = id

	now := time.Now().UTC()
	occ.CreatedAt = now
	occ.Urgency = schedule.ScoreUrgency(now, now, occ.TargetDate, occ.LimitDate).Urgency

	created, err := repo.CreateOccurrence(ctx, occ)
	if err != nil {
		return nil, fmt.Errorf("failed to create occurrence: %w", err)
	}
	return created, nil
}

func (s *Service) persistPeriodState(ctx context.Context, repo Repository, rec *domain.Recurrence) error {
	completed := rec.CompletedOccurrences
	periodStart := rec.LastPeriodStart
	err := repo.UpdateRecurrence(ctx, domain.UpdateRecurrenceParams{
		RecurrenceID:         rec.ID,
		CompletedOccurrences: &completed,
		LastPeriodStart:      &periodStart,
	})
	if err != nil {
		return fmt.Errorf("failed to persist period state: %w", err)
	}
	return nil
}

func (s *Service) deactivateTask(ctx context.Context, repo Repository, task *domain.Task) error {
	inactive := false
	err := repo.UpdateTask(ctx, domain.UpdateTaskParams{
		TaskID:   task.ID,
		IsActive: &inactive,
	})
	if err != nil {
		return fmt.Errorf("failed to deactivate task: %w", err)
	}
	task.IsActive = false
	return nil
}

// ListOccurrences returns a task's occurrences with urgency recomputed at
// the read boundary. The stored urgency field is a stale cache; callers must
// never sort or display without passing through here.
func (s *Service) ListOccurrences(ctx context.Context, taskID string) ([]*domain.Occurrence, error) {
	if _, err := s.repo.FindTaskWithRecurrence(ctx, taskID); err != nil {
		return nil, err
	}

	occurrences, err := s.repo.FindOccurrencesByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, occ := range occurrences {
		occ.Urgency = schedule.ScoreUrgency(now, occ.CreatedAt, occ.TargetDate, occ.LimitDate).Urgency
	}

	return occurrences, nil
}

// ScoreOccurrence recomputes the full urgency annotation for one occurrence.
func (s *Service) ScoreOccurrence(occ *domain.Occurrence) schedule.UrgencyResult {
	return schedule.ScoreUrgency(time.Now().UTC(), occ.CreatedAt, occ.TargetDate, occ.LimitDate)
}

// latestOccurrence maps the repository's not-found into "no occurrence yet".
func latestOccurrence(ctx context.Context, repo Repository, taskID string) (*domain.Occurrence, error) {
	latest, err := repo.FindLatestOccurrence(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrOccurrenceNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return latest, nil
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return id.String(), nil
}
