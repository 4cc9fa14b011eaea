package planner

import (
	"context"
	"testing"
	"time"

	"github.com/ritmoapp/ritmo/internal/domain"
	"github.com/ritmoapp/ritmo/internal/ptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedRecurringTask inserts a weekly task whose latest occurrence opened at
// lastStart, bypassing the service so tests control the drift precisely.
func seedRecurringTask(t *testing.T, repo *memoryRepo, taskID string, lastStart time.Time) *domain.Occurrence {
	t.Helper()
	ctx := context.Background()

	task := &domain.Task{
		ID:         taskID,
		Name:       "weekly review",
		Importance: 5,
		IsActive:   true,
		Recurrence: &domain.Recurrence{
			ID:              taskID + "-rec",
			TaskID:          taskID,
			Interval:        ptr.To(7),
			LastPeriodStart: lastStart,
		},
	}
	_, err := repo.CreateTask(ctx, task)
	require.NoError(t, err)

	occ := &domain.Occurrence{
		ID:         taskID + "-occ",
		TaskID:     taskID,
		StartDate:  lastStart,
		TargetDate: ptr.To(lastStart.AddDate(0, 0, 4)),
		LimitDate:  ptr.To(lastStart.AddDate(0, 0, 7)),
		Status:     domain.OccurrenceStatusPending,
		CreatedAt:  lastStart,
	}
	_, err = repo.CreateOccurrence(ctx, occ)
	require.NoError(t, err)
	return occ
}

func TestDetectBacklog_NoRecurrence(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, newTask("one-off errand"), domain.NewOccurrenceParams{})
	require.NoError(t, err)

	report, err := svc.DetectBacklog(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, report.PendingCount)
	assert.Equal(t, 0, report.OverdueCount)
	assert.Equal(t, 0, report.EstimatedMissingCount)
	assert.False(t, report.HasSevereBacklog)
	assert.Nil(t, report.OldestPendingDate)
	assert.Empty(t, report.PendingOccurrences)
}

func TestDetectBacklog_UpToDateTask(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	// Latest occurrence opened an hour ago; the next weekly step is in the
	// future, so nothing is missing and nothing is overdue.
	seedRecurringTask(t, repo, "task-fresh", time.Now().UTC().Add(-time.Hour))

	report, err := svc.DetectBacklog(ctx, "task-fresh")
	require.NoError(t, err)
	assert.Equal(t, 1, report.PendingCount)
	assert.Equal(t, 0, report.OverdueCount)
	assert.Equal(t, 0, report.EstimatedMissingCount)
	assert.False(t, report.HasSevereBacklog)
}

func TestDetectBacklog_DriftedTask(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	// Five weekly steps fit between the stale occurrence and now.
	lastStart := time.Now().UTC().Add(-35*24*time.Hour - time.Hour)
	occ := seedRecurringTask(t, repo, "task-stale", lastStart)

	report, err := svc.DetectBacklog(ctx, "task-stale")
	require.NoError(t, err)
	assert.Equal(t, 1, report.PendingCount)
	assert.Equal(t, 1, report.OverdueCount)
	assert.Equal(t, 5, report.EstimatedMissingCount)
	assert.True(t, report.HasSevereBacklog)
	require.NotNil(t, report.OldestPendingDate)
	assert.True(t, report.OldestPendingDate.Equal(occ.StartDate))
	require.Len(t, report.PendingOccurrences, 1)
	assert.Greater(t, report.PendingOccurrences[0].Urgency, 10.0)
}

func TestResolveBacklog_NoRecurrence(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, newTask("one-off errand"), domain.NewOccurrenceParams{})
	require.NoError(t, err)

	resolution, err := svc.ResolveBacklog(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, resolution.CreatedCount)
	assert.Equal(t, 0, resolution.SkippedCount)
}

func TestResolveBacklog_CatchUpAndSweep(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	// Five missed weekly occurrences accumulated.
	lastStart := time.Now().UTC().Add(-35*24*time.Hour - time.Hour)
	seedRecurringTask(t, repo, "task-stale", lastStart)

	resolution, err := svc.ResolveBacklog(ctx, "task-stale")
	require.NoError(t, err)
	assert.Equal(t, 5, resolution.CreatedCount)

	// The stale seed occurrence plus four of the five generated ones have
	// blown their limit; only the newest survives as pending.
	assert.Equal(t, 5, resolution.SkippedCount)

	occurrences, err := repo.FindOccurrencesByTask(ctx, "task-stale")
	require.NoError(t, err)
	require.Len(t, occurrences, 6)

	var open []*domain.Occurrence
	for _, occ := range occurrences {
		if !occ.Status.IsTerminal() {
			open = append(open, occ)
		}
	}
	require.Len(t, open, 1)
	assert.Equal(t, occurrences[len(occurrences)-1].ID, open[0].ID)

	// Detect after resolve reports a clean slate.
	report, err := svc.DetectBacklog(ctx, "task-stale")
	require.NoError(t, err)
	assert.Equal(t, 0, report.EstimatedMissingCount)
	assert.Equal(t, 1, report.PendingCount)
	assert.False(t, report.HasSevereBacklog)
}

func TestResolveBacklog_Idempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	lastStart := time.Now().UTC().Add(-35*24*time.Hour - time.Hour)
	seedRecurringTask(t, repo, "task-stale", lastStart)

	_, err := svc.ResolveBacklog(ctx, "task-stale")
	require.NoError(t, err)

	again, err := svc.ResolveBacklog(ctx, "task-stale")
	require.NoError(t, err)
	assert.Equal(t, 0, again.CreatedCount)
	assert.Equal(t, 0, again.SkippedCount)
}

func TestResolveBacklog_KeepsNonOverduePending(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	// One missed step only; the seed occurrence is overdue but the generated
	// one is within its window.
	lastStart := time.Now().UTC().Add(-7*24*time.Hour - time.Hour)
	seedRecurringTask(t, repo, "task-late", lastStart)

	resolution, err := svc.ResolveBacklog(ctx, "task-late")
	require.NoError(t, err)
	assert.Equal(t, 1, resolution.CreatedCount)
	assert.Equal(t, 1, resolution.SkippedCount)

	latest, err := repo.FindLatestOccurrence(ctx, "task-late")
	require.NoError(t, err)
	assert.Equal(t, domain.OccurrenceStatusPending, latest.Status)
}

func TestResolveBacklog_TaskNotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.ResolveBacklog(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrTaskNotFound)
}
