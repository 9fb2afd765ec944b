package models

import "time"

// RunState is a node in the Run state machine of spec.md §4.7.
type RunState string

const (
	RunPending               RunState = "pending"
	RunCrawling              RunState = "crawling"
	RunEnriching             RunState = "enriching"
	RunDelivering            RunState = "delivering"
	RunSucceeded             RunState = "succeeded"
	RunSucceededWithErrors   RunState = "succeeded-with-errors"
	RunFailed                RunState = "failed"
)

// Terminal reports whether the state machine has reached a resting state.
func (s RunState) Terminal() bool {
	switch s {
	case RunSucceeded, RunSucceededWithErrors, RunFailed:
		return true
	default:
		return false
	}
}

// Counters tracks per-run progress, per spec.md §3 and the invariants of §8.
type Counters struct {
	TotalJobs          int `json:"total_jobs"`
	Enriched           int `json:"enriched"`
	EnrichmentFailures int `json:"enrichment_failures"`
	Delivered          int `json:"delivered"`
	DeliveryFailures   int `json:"delivery_failures"`
}

// Run is the runtime-only record tracking one pipeline invocation (spec.md §3).
type Run struct {
	RunID     string    `json:"run_id" badgerhold:"key"`
	State     RunState  `json:"state" badgerhold:"index"`
	Counters  Counters  `json:"counters"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at" badgerhold:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatusView is the shape returned by the status endpoint (spec.md §6).
type StatusView struct {
	State    RunState `json:"state"`
	Counters Counters `json:"counters,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// View projects a Run into its externally-observable StatusView.
func (r *Run) View() StatusView {
	return StatusView{State: r.State, Counters: r.Counters, Error: r.Error}
}
