// Package crawler implements the Crawler of spec.md §4.4: a lazy sequence
// of RawJob records for one SpiderConfig, bounded by max_jobs.
package crawler

import (
	"context"

	"github.com/smaltravel/findajob/internal/models"
)

// Crawler produces the job stream for one run. Crawl returns immediately;
// the caller ranges over the jobs channel until it closes, then reads
// Err() for a top-level failure (nil on a clean end-of-results stop).
type Crawler interface {
	Crawl(ctx context.Context, cfg models.SpiderConfig) *JobStream
}

// JobStream is the lazy sequence of spec.md §4.4: Jobs yields RawJob
// records in discovery order; Err is only meaningful after Jobs closes.
type JobStream struct {
	Jobs <-chan models.RawJob
	errC <-chan error
}

// Err blocks until the crawl has fully stopped and returns the top-level
// failure, if any (CrawlerError), or nil on a clean stop. Callers should
// drain Jobs to completion before calling Err.
func (s *JobStream) Err() error {
	return <-s.errC
}
