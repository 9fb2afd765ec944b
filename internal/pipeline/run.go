package pipeline

import "github.com/smaltravel/findajob/internal/models"

// validTransitions encodes the state machine of spec.md §4.7's diagram.
// A transition not listed here is a programming error, not a run-level
// failure, and is only checked defensively in tests.
var validTransitions = map[models.RunState][]models.RunState{
	models.RunPending: {
		models.RunCrawling,
		models.RunFailed, // submission rejected at validation
	},
	models.RunCrawling: {
		models.RunEnriching,
		models.RunFailed, // crawler fatal
	},
	models.RunEnriching: {
		models.RunDelivering,
	},
	models.RunDelivering: {
		models.RunSucceeded,
		models.RunSucceededWithErrors,
		models.RunFailed, // cancellation mid-run
	},
}

// isValidTransition reports whether to is a state reachable from from in
// one step, per the diagram in spec.md §4.7.
func isValidTransition(from, to models.RunState) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
