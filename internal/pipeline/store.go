package pipeline

import (
	"context"
	"time"

	"github.com/smaltravel/findajob/internal/models"
	badgerstore "github.com/smaltravel/findajob/internal/storage/badger"
)

// Store is the result store of spec.md §5: separate from the broker,
// holding each Run's current state and counters for the Status endpoint.
type Store interface {
	Create(ctx context.Context, runID string) error
	Get(ctx context.Context, runID string) (*models.Run, error)
	Transition(ctx context.Context, runID string, state models.RunState) error
	SetCounters(ctx context.Context, runID string, counters models.Counters) error
	Fail(ctx context.Context, runID string, errMsg string) error
}

// badgerRunStore adapts RunStorage to the Store interface the Runtime
// depends on, keeping badgerhold details out of the state machine.
type badgerRunStore struct {
	storage *badgerstore.RunStorage
}

// NewStore builds the Run result store backed by Badger.
func NewStore(storage *badgerstore.RunStorage) Store {
	return &badgerRunStore{storage: storage}
}

func (s *badgerRunStore) Create(ctx context.Context, runID string) error {
	now := time.Now()
	return s.storage.Save(ctx, &models.Run{
		RunID:     runID,
		State:     models.RunPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *badgerRunStore) Get(ctx context.Context, runID string) (*models.Run, error) {
	return s.storage.Get(ctx, runID)
}

func (s *badgerRunStore) Transition(ctx context.Context, runID string, state models.RunState) error {
	run, err := s.storage.Get(ctx, runID)
	if err != nil {
		return err
	}
	run.State = state
	return s.storage.Save(ctx, run)
}

func (s *badgerRunStore) SetCounters(ctx context.Context, runID string, counters models.Counters) error {
	run, err := s.storage.Get(ctx, runID)
	if err != nil {
		return err
	}
	run.Counters = counters
	return s.storage.Save(ctx, run)
}

func (s *badgerRunStore) Fail(ctx context.Context, runID string, errMsg string) error {
	run, err := s.storage.Get(ctx, runID)
	if err != nil {
		return err
	}
	run.State = models.RunFailed
	run.Error = errMsg
	return s.storage.Save(ctx, run)
}
