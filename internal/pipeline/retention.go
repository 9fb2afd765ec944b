package pipeline

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	badgerstore "github.com/smaltravel/findajob/internal/storage/badger"
)

// RetentionSweeper deletes terminal runs older than a configured window
// (spec.md §6: "Task result retention: 1 hour"), on a robfig/cron
// schedule.
type RetentionSweeper struct {
	storage   *badgerstore.RunStorage
	retention time.Duration
	logger    arbor.ILogger
	cron      *cron.Cron
}

// NewRetentionSweeper builds a sweeper that removes runs older than
// retention every interval.
func NewRetentionSweeper(storage *badgerstore.RunStorage, retention, interval time.Duration, logger arbor.ILogger) *RetentionSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	spec := "@every " + interval.String()
	sweeper := &RetentionSweeper{
		storage:   storage,
		retention: retention,
		logger:    logger,
		cron:      cron.New(),
	}
	if _, err := sweeper.cron.AddFunc(spec, sweeper.sweep); err != nil {
		logger.Error().Err(err).Str("spec", spec).Msg("failed to register retention sweep, sweeper disabled")
	}
	return sweeper
}

// Start begins the cron schedule. Call once at application startup.
func (r *RetentionSweeper) Start() {
	r.cron.Start()
}

// Stop halts the cron schedule, waiting for any in-flight sweep to finish.
func (r *RetentionSweeper) Stop() {
	<-r.cron.Stop().Done()
}

// sweep removes terminal runs last updated before the retention cutoff.
func (r *RetentionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-r.retention)
	removed, err := r.storage.DeleteExpired(ctx, cutoff)
	if err != nil {
		r.logger.Error().Err(err).Msg("retention sweep failed")
		return
	}
	if removed > 0 {
		r.logger.Info().Int("removed", removed).Msg("retention sweep removed expired runs")
	}
}
