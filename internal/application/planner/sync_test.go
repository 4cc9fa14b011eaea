package planner

import (
	"context"
	"testing"
	"time"

	"github.com/ritmoapp/ritmo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOccurrenceForSync(t *testing.T, repo *memoryRepo) *domain.Occurrence {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC()
	task := &domain.Task{ID: "task-sync", Name: "deep work", Importance: 5, IsActive: true}
	_, err := repo.CreateTask(ctx, task)
	require.NoError(t, err)

	occ := &domain.Occurrence{
		ID:        "occ-sync",
		TaskID:    task.ID,
		StartDate: now,
		Status:    domain.OccurrenceStatusPending,
		CreatedAt: now,
	}
	_, err = repo.CreateOccurrence(ctx, occ)
	require.NoError(t, err)
	return occ
}

func TestCreateEvent_LinkedToMissingOccurrence(t *testing.T) {
	svc, _ := newTestService()

	missing := "nope"
	_, err := svc.CreateEvent(context.Background(), &domain.CalendarEvent{
		OccurrenceID:  &missing,
		DedicatedTime: 1,
	})
	require.ErrorIs(t, err, domain.ErrOccurrenceNotFound)
}

func TestCompleteEvent_SyncsTimeConsumed(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	occ := seedOccurrenceForSync(t, repo)

	first, err := svc.CreateEvent(ctx, &domain.CalendarEvent{
		OccurrenceID:  &occ.ID,
		DedicatedTime: 1.5,
	})
	require.NoError(t, err)
	second, err := svc.CreateEvent(ctx, &domain.CalendarEvent{
		OccurrenceID:  &occ.ID,
		DedicatedTime: 2.0,
	})
	require.NoError(t, err)

	// Creating events alone changes nothing; only completion feeds the total.
	stored, err := repo.FindOccurrenceByID(ctx, occ.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stored.TimeConsumed)

	require.NoError(t, svc.CompleteEvent(ctx, first.ID))
	stored, err = repo.FindOccurrenceByID(ctx, occ.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.5, stored.TimeConsumed)

	require.NoError(t, svc.CompleteEvent(ctx, second.ID))
	stored, err = repo.FindOccurrenceByID(ctx, occ.ID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, stored.TimeConsumed)
}

func TestDeleteEvent_ResyncsTimeConsumed(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	occ := seedOccurrenceForSync(t, repo)

	event, err := svc.CreateEvent(ctx, &domain.CalendarEvent{
		OccurrenceID:  &occ.ID,
		DedicatedTime: 2.0,
	})
	require.NoError(t, err)
	require.NoError(t, svc.CompleteEvent(ctx, event.ID))

	require.NoError(t, svc.DeleteEvent(ctx, event.ID))

	stored, err := repo.FindOccurrenceByID(ctx, occ.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, stored.TimeConsumed)
}

func TestDeleteEvent_UnlinkedEventNoSync(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	event, err := svc.CreateEvent(ctx, &domain.CalendarEvent{DedicatedTime: 1.0})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEvent(ctx, event.ID))
	err = svc.DeleteEvent(ctx, event.ID)
	require.ErrorIs(t, err, domain.ErrEventNotFound)
}
