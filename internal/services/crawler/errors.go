package crawler

import "fmt"

// CrawlerError is a top-level crawl failure (spec.md §4.4): an HTTP/parse
// error that prevents further progress on the search surface itself, as
// opposed to a single job's detail-page extraction failing (which is
// logged and skipped, not surfaced).
type CrawlerError struct {
	Stage string // e.g. "search", "detail"
	URL   string
	Err   error
}

func (e *CrawlerError) Error() string {
	return fmt.Sprintf("crawler: %s failed for %s: %v", e.Stage, e.URL, e.Err)
}

func (e *CrawlerError) Unwrap() error { return e.Err }
