package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/smaltravel/findajob/internal/models"
)

// RunStorage persists models.Run records across the lifetime of a pipeline
// invocation (spec.md §4.7, §3: "kept for a bounded result-retention
// window").
type RunStorage struct {
	db     *DB
	logger arbor.ILogger
}

// NewRunStorage binds a RunStorage to an open database.
func NewRunStorage(db *DB, logger arbor.ILogger) *RunStorage {
	return &RunStorage{db: db, logger: logger}
}

// Save inserts or overwrites a Run record keyed by RunID.
func (s *RunStorage) Save(ctx context.Context, run *models.Run) error {
	if run.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	run.UpdatedAt = time.Now()
	if err := s.db.Store().Upsert(run.RunID, run); err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.RunID, err)
	}
	return nil
}

// Get loads a Run by id. Returns badgerhold.ErrNotFound (wrapped) if absent.
func (s *RunStorage) Get(ctx context.Context, runID string) (*models.Run, error) {
	var run models.Run
	if err := s.db.Store().Get(runID, &run); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("run not found: %s", runID)
		}
		return nil, fmt.Errorf("failed to get run %s: %w", runID, err)
	}
	return &run, nil
}

// DeleteExpired removes every terminal Run whose UpdatedAt is older than
// the retention cutoff, returning the count removed. This backs the
// retention sweep of spec.md §6 ("Task result retention: 1 hour").
func (s *RunStorage) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	var expired []models.Run
	query := badgerhold.Where("UpdatedAt").Lt(cutoff).
		And("State").In(
		interfaceSlice(models.RunSucceeded, models.RunSucceededWithErrors, models.RunFailed)...,
	)
	if err := s.db.Store().Find(&expired, query); err != nil {
		return 0, fmt.Errorf("failed to query expired runs: %w", err)
	}

	removed := 0
	for _, run := range expired {
		if err := s.db.Store().Delete(run.RunID, &models.Run{}); err != nil {
			if err == badgerhold.ErrNotFound {
				continue
			}
			s.logger.Warn().Err(err).Str("run_id", run.RunID).Msg("failed to delete expired run")
			continue
		}
		removed++
	}
	return removed, nil
}

// Count returns the total number of Run records currently stored.
func (s *RunStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Run{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return int(count), nil
}

func interfaceSlice(states ...models.RunState) []interface{} {
	out := make([]interface{}, len(states))
	for i, s := range states {
		out[i] = s
	}
	return out
}
