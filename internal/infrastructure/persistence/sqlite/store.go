package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ritmoapp/ritmo/internal/application/planner"
)

// querier is the subset of database/sql operations shared by *sql.DB and
// *sql.Tx, so repository methods run identically inside and outside a
// transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store provides the SQLite implementation of planner.Repository, intended
// for single-user installs. Per-task serialization uses in-process mutexes;
// unlike the advisory-lock backend this only protects against concurrent
// access through the same Store, which is all a single process needs.
type Store struct {
	db   *sql.DB
	conn querier

	mu        sync.Mutex
	taskLocks map[string]*sync.Mutex
}

var _ planner.Repository = (*Store)(nil)

// NewStore creates a new SQLite store with the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:        db,
		conn:      db,
		taskLocks: make(map[string]*sync.Mutex),
	}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) taskLock(taskID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.taskLocks[taskID]
	if !ok {
		lock = &sync.Mutex{}
		s.taskLocks[taskID] = lock
	}
	return lock
}

// WithTaskLock serializes fn against all other lock holders for the same
// task and runs it inside a transaction.
func (s *Store) WithTaskLock(ctx context.Context, taskID string, fn func(planner.Repository) error) (err error) {
	lock := s.taskLock(taskID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.ErrorContext(ctx, "rollback after panic failed",
					"panic", p,
					"rollback_error", rbErr)
			}
			panic(p)
		}

		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				slog.ErrorContext(ctx, "rollback failed",
					"original_error", err,
					"rollback_error", rbErr)
				err = fmt.Errorf("transaction failed: %w (rollback error: %v)", err, rbErr)
			}
			return
		}
		err = tx.Commit()
	}()

	txStore := &Store{db: s.db, conn: tx, taskLocks: s.taskLocks}
	err = fn(txStore)
	return
}
