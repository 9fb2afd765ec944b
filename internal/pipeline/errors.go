// Package pipeline implements the Pipeline Runtime of spec.md §4.7: the
// state machine and worker pool driving one run's crawl -> enrich ->
// deliver sequence from Submit through to a terminal state.
package pipeline

import "fmt"

// ConfigError is raised at submit time for a request that fails
// validation, an unknown provider, or a google run with no API key
// (spec.md §7). Fatal for the run; surfaced synchronously to the caller
// of Submit. A model absent from ollama's pre-flight listing does not
// raise it: the ollama provider only logs a warning.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return fmt.Sprintf("config error: %s", e.Reason) }

// CrawlerError wraps a fatal crawl-stage failure: network failure,
// end-of-results before any job found, or a search-page parse failure
// (spec.md §7). Fatal for the run.
type CrawlerError struct {
	Err error
}

func (e *CrawlerError) Error() string { return fmt.Sprintf("crawler error: %v", e.Err) }
func (e *CrawlerError) Unwrap() error { return e.Err }

// LLMTransportError wraps a timeout, non-2xx, or malformed transport
// response from the LLM provider (spec.md §7). Per-job fatal; the job is
// skipped and the run continues.
type LLMTransportError struct {
	JobID string
	Err   error
}

func (e *LLMTransportError) Error() string {
	return fmt.Sprintf("llm transport error: job %s: %v", e.JobID, e.Err)
}
func (e *LLMTransportError) Unwrap() error { return e.Err }

// SchemaValidationError wraps a model output that never matched its JSON
// schema, even after one regeneration attempt (spec.md §7). Per-job
// fatal; the job is skipped.
type SchemaValidationError struct {
	JobID string
	Err   error
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("schema validation error: job %s: %v", e.JobID, e.Err)
}
func (e *SchemaValidationError) Unwrap() error { return e.Err }

// ToolCallError wraps a model tool-call that requested an unknown tool
// or violated an argument shape (spec.md §7). Caught by the LLM client
// and returned to the model as a structured tool error; this type
// records the case where repeated tool errors escalate to an
// LLMTransportError.
type ToolCallError struct {
	JobID string
	Err   error
}

func (e *ToolCallError) Error() string {
	return fmt.Sprintf("tool call error: job %s: %v", e.JobID, e.Err)
}
func (e *ToolCallError) Unwrap() error { return e.Err }

// WebhookError wraps a non-2xx webhook response that survived retry
// (spec.md §7). Per-job fatal; the run's terminal state becomes
// succeeded-with-errors rather than failed.
type WebhookError struct {
	JobID string
	Err   error
}

func (e *WebhookError) Error() string {
	return fmt.Sprintf("webhook error: job %s: %v", e.JobID, e.Err)
}
func (e *WebhookError) Unwrap() error { return e.Err }
