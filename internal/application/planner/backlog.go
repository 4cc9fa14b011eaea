package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ritmoapp/ritmo/internal/domain"
	"github.com/ritmoapp/ritmo/internal/schedule"
)

// backlogIterationCeiling bounds the catch-up and estimation walks. It is a
// safety valve against malformed patterns, not a normal code path; hitting it
// returns the partial result accumulated so far.
const backlogIterationCeiling = 500

// DetectBacklog scans a task's occurrence history and reports drift between
// what exists and what the recurrence pattern says should exist by now.
// Read-only; tasks without a recurrence always report an all-zero result.
func (s *Service) DetectBacklog(ctx context.Context, taskID string) (*domain.BacklogReport, error) {
	task, err := s.repo.FindTaskWithRecurrence(ctx, taskID)
	if err != nil {
		return nil, err
	}

	report := &domain.BacklogReport{TaskID: taskID}
	if task.Recurrence == nil {
		return report, nil
	}

	occurrences, err := s.repo.FindOccurrencesByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	for _, occ := range occurrences {
		if occ.Status.IsTerminal() {
			continue
		}
		report.PendingCount++
		if report.OldestPendingDate == nil {
			startDate := occ.StartDate
			report.OldestPendingDate = &startDate
		}
		if occ.IsOverdue(now) {
			report.OverdueCount++
		}
		occ.Urgency = schedule.ScoreUrgency(now, occ.CreatedAt, occ.TargetDate, occ.LimitDate).Urgency
		report.PendingOccurrences = append(report.PendingOccurrences, occ)
	}

	report.EstimatedMissingCount = s.estimateMissing(ctx, task, occurrences, now)
	report.HasSevereBacklog = report.OverdueCount > 0 || report.EstimatedMissingCount > 0

	return report, nil
}

// estimateMissing walks the pattern forward from the latest occurrence,
// counting each step that lands at or before now. One-shot recurrences never
// accumulate backlog; their single occurrence either exists or is created on
// demand.
func (s *Service) estimateMissing(ctx context.Context, task *domain.Task, occurrences []*domain.Occurrence, now time.Time) int {
	rec := task.Recurrence
	if rec.IsOneShot() || rec.HasEnded(now) {
		return 0
	}

	cursor := rec.LastPeriodStart
	if n := len(occurrences); n > 0 {
		cursor = occurrences[n-1].StartDate
	}

	pattern := schedule.PatternOf(rec)

	missing := 0
	for i := 0; i < backlogIterationCeiling; i++ {
		cursor = pattern.NextDate(cursor)
		if cursor.After(now) {
			return missing
		}
		missing++
	}

	slog.WarnContext(ctx, "backlog estimation hit iteration ceiling",
		"task_id", task.ID,
		"ceiling", backlogIterationCeiling)
	return missing
}

// ResolveBacklog performs a bulk catch-up for a recurring task, in two phases
// under the task lock:
//
//  1. Catch-up generation: walk the pattern forward from the latest
//     occurrence, creating one pending occurrence per step that lands at or
//     before now.
//  2. Overdue sweep: among all non-terminal occurrences sorted by start date,
//     mark every one except the most recent as skipped when its limit date
//     has passed.
//
// Skipping is terminal, so the sweep is destructive and irreversible; callers
// are expected to confirm with the user before invoking it. Tasks without a
// recurrence return a zero resolution.
func (s *Service) ResolveBacklog(ctx context.Context, taskID string) (*domain.BacklogResolution, error) {
	task, err := s.repo.FindTaskWithRecurrence(ctx, taskID)
	if err != nil {
		return nil, err
	}

	resolution := &domain.BacklogResolution{TaskID: taskID}
	if task.Recurrence == nil || task.Recurrence.IsOneShot() {
		return resolution, nil
	}

	err = s.repo.WithTaskLock(ctx, taskID, func(repo Repository) error {
		if err := s.catchUp(ctx, repo, task, resolution); err != nil {
			return err
		}
		return s.sweepOverdue(ctx, repo, taskID, resolution)
	})
	if err != nil {
		return nil, err
	}

	return resolution, nil
}

func (s *Service) catchUp(ctx context.Context, repo Repository, task *domain.Task, resolution *domain.BacklogResolution) error {
	rec := task.Recurrence
	pattern := schedule.PatternOf(rec)
	now := time.Now().UTC()

	cursor := rec.LastPeriodStart
	if latest, err := latestOccurrence(ctx, repo, task.ID); err != nil {
		return err
	} else if latest != nil {
		cursor = latest.StartDate
	}

	for i := 0; i < backlogIterationCeiling; i++ {
		next := pattern.NextDate(cursor)
		if next.After(now) {
			return nil
		}

		occ := s.buildOccurrence(task.ID, next, pattern, domain.NewOccurrenceParams{}, nil)
		if _, err := s.persistOccurrence(ctx, repo, occ); err != nil {
			return fmt.Errorf("backlog catch-up: %w", err)
		}
		resolution.CreatedCount++
		cursor = next
	}

	slog.WarnContext(ctx, "backlog catch-up hit iteration ceiling",
		"task_id", task.ID,
		"created", resolution.CreatedCount,
		"ceiling", backlogIterationCeiling)
	return nil
}

func (s *Service) sweepOverdue(ctx context.Context, repo Repository, taskID string, resolution *domain.BacklogResolution) error {
	occurrences, err := repo.FindOccurrencesByTask(ctx, taskID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	var open []*domain.Occurrence
	for _, occ := range occurrences {
		if !occ.Status.IsTerminal() {
			open = append(open, occ)
		}
	}

	// The newest non-terminal occurrence survives; everything older that has
	// blown its deadline is skipped.
	for i := 0; i < len(open)-1; i++ {
		occ := open[i]
		if !occ.IsOverdue(now) {
			continue
		}
		if _, err := repo.UpdateOccurrenceStatus(ctx, occ.ID, domain.OccurrenceStatusSkipped, nil); err != nil {
			return fmt.Errorf("backlog sweep: %w", err)
		}
		resolution.SkippedCount++
	}

	return nil
}
