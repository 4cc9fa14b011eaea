// Package auditor runs periodic backlog audits over active recurring tasks.
// Audits are read-only; repair stays an explicit user action through the
// backlog resolve endpoint.
package auditor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ritmoapp/ritmo/internal/domain"
)

// TaskSource lists the tasks worth auditing.
type TaskSource interface {
	ListActiveRecurringTaskIDs(ctx context.Context) ([]string, error)
}

// BacklogDetector inspects a single task for accumulated backlog.
type BacklogDetector interface {
	DetectBacklog(ctx context.Context, taskID string) (*domain.BacklogReport, error)
}

// Auditor periodically scans active recurring tasks and logs the ones with
// severe backlog.
type Auditor struct {
	tasks            TaskSource
	detector         BacklogDetector
	auditInterval    time.Duration
	operationTimeout time.Duration
	wg               sync.WaitGroup
}

// Option is a functional option for configuring Auditor.
type Option func(*Auditor)

// WithAuditInterval sets how often a full audit pass runs.
func WithAuditInterval(d time.Duration) Option {
	return func(a *Auditor) {
		a.auditInterval = d
	}
}

// WithOperationTimeout bounds a single audit pass.
func WithOperationTimeout(d time.Duration) Option {
	return func(a *Auditor) {
		a.operationTimeout = d
	}
}

// New creates a new Auditor.
func New(tasks TaskSource, detector BacklogDetector, opts ...Option) *Auditor {
	a := &Auditor{
		tasks:            tasks,
		detector:         detector,
		auditInterval:    1 * time.Hour,
		operationTimeout: 5 * time.Minute,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start runs audit passes until the context is cancelled, then waits for
// any in-flight pass before returning.
func (a *Auditor) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "backlog auditor started", "interval", a.auditInterval)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), a.operationTimeout)
	if err := a.RunOnce(startupCtx); err != nil {
		slog.ErrorContext(startupCtx, "backlog audit on startup failed", "error", err)
	}
	startupCancel()

	ticker := time.NewTicker(a.auditInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.wg.Go(func() {
				opCtx, cancel := context.WithTimeout(context.Background(), a.operationTimeout)
				defer cancel()
				if err := a.RunOnce(opCtx); err != nil {
					slog.ErrorContext(opCtx, "backlog audit failed", "error", err)
				}
			})
		case <-ctx.Done():
			slog.InfoContext(ctx, "shutdown requested, waiting for in-flight audit...")
			a.wg.Wait()
			slog.InfoContext(ctx, "backlog auditor stopped gracefully")
			return nil
		}
	}
}

// RunOnce executes a single audit pass. A failure on one task does not
// abort the pass.
func (a *Auditor) RunOnce(ctx context.Context) error {
	taskIDs, err := a.tasks.ListActiveRecurringTaskIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active recurring tasks: %w", err)
	}

	severe := 0
	for _, taskID := range taskIDs {
		report, err := a.detector.DetectBacklog(ctx, taskID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to audit task backlog",
				"task_id", taskID,
				"error", err)
			continue
		}

		if !report.HasSevereBacklog {
			continue
		}

		severe++
		slog.WarnContext(ctx, "task has severe backlog",
			"task_id", taskID,
			"pending_count", report.PendingCount,
			"overdue_count", report.OverdueCount,
			"estimated_missing_count", report.EstimatedMissingCount)
	}

	slog.InfoContext(ctx, "backlog audit pass completed",
		"audited", len(taskIDs),
		"severe", severe)
	return nil
}
