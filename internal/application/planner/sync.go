package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/ritmoapp/ritmo/internal/domain"
)

// Calendar-event trigger points for the occurrence timeConsumed sync. The
// stored timeConsumed value is a cache of the total dedicated hours of
// completed events linked to the occurrence; it is rewritten in full at every
// trigger point, never incremented.

// CreateEvent persists a calendar event, optionally linked to an occurrence.
func (s *Service) CreateEvent(ctx context.Context, event *domain.CalendarEvent) (*domain.CalendarEvent, error) {
	if event.OccurrenceID != nil {
		if _, err := s.repo.FindOccurrenceByID(ctx, *event.OccurrenceID); err != nil {
			return nil, err
		}
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	event.ID = id
	event.CreatedAt = time.Now().UTC()

	created, err := s.repo.CreateEvent(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return created, nil
}

// CompleteEvent marks a calendar event as completed and, when the event is
// linked to an occurrence, resyncs that occurrence's consumed time.
func (s *Service) CompleteEvent(ctx context.Context, eventID string) error {
	event, err := s.repo.FindEventByID(ctx, eventID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateEventCompleted(ctx, eventID, true); err != nil {
		return fmt.Errorf("failed to complete event: %w", err)
	}

	if event.OccurrenceID == nil {
		return nil
	}
	return s.SyncTimeConsumed(ctx, *event.OccurrenceID)
}

// DeleteEvent removes a calendar event and, when it was linked to an
// occurrence, resyncs that occurrence's consumed time. Deleting a completed
// event takes its contribution back out of the total.
func (s *Service) DeleteEvent(ctx context.Context, eventID string) error {
	event, err := s.repo.FindEventByID(ctx, eventID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteEvent(ctx, eventID); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	if event.OccurrenceID == nil {
		return nil
	}
	return s.SyncTimeConsumed(ctx, *event.OccurrenceID)
}

// SyncTimeConsumed recomputes an occurrence's consumed time from the ground
// truth: the sum of dedicated hours across its completed events.
func (s *Service) SyncTimeConsumed(ctx context.Context, occurrenceID string) error {
	total, err := s.repo.SumCompletedEventTime(ctx, occurrenceID)
	if err != nil {
		return fmt.Errorf("failed to sum event time: %w", err)
	}

	if err := s.repo.UpdateOccurrenceTimeConsumed(ctx, occurrenceID, total); err != nil {
		return fmt.Errorf("failed to sync time consumed: %w", err)
	}
	return nil
}
