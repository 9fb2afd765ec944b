// Package enrichment implements the per-job Enrichment Stage of spec.md
// §4.5: summarize and score a job against the candidate profile, draft a
// cover letter, and merge both into an EnrichedJob.
package enrichment

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/smaltravel/findajob/internal/models"
	"github.com/smaltravel/findajob/internal/services/llm"
)

// Stage runs the Enrichment Stage for one run's worth of jobs, reusing one
// LLM client across jobs but clearing its conversation history between
// them (spec.md §4.5 step 1).
type Stage struct {
	client *llm.Client
	logger arbor.ILogger
}

// NewStage binds a Stage to an LLM client already configured with the
// correct provider for the run.
func NewStage(client *llm.Client, logger arbor.ILogger) *Stage {
	return &Stage{client: client, logger: logger}
}

// EnrichmentError is returned when a job's enrichment could not complete;
// per spec.md §4.5 the run records the failure and continues with the next
// job rather than delivering a partial record.
type EnrichmentError struct {
	JobID string
	Err   error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrichment: job %s: %v", e.JobID, e.Err)
}

func (e *EnrichmentError) Unwrap() error { return e.Err }

// Enrich runs the five steps of spec.md §4.5 for a single job.
func (s *Stage) Enrich(ctx context.Context, job models.RawJob, profile models.CandidateProfile) (*models.EnrichedJob, error) {
	start := time.Now()
	jobLogger := s.logger.WithCorrelationId(job.JobID)

	jobLogger.Trace().Str("job_id", job.JobID).Str("job_title", job.JobTitle).Msg("enrichment starting")

	s.client.ClearHistory()
	s.client.SetSystemPrompt(systemPromptTemplate(profile))

	summary, err := llm.Agent[models.JobSummary](ctx, s.client, jobSummaryPrompt(job))
	if err != nil {
		jobLogger.Error().Err(err).Str("job_id", job.JobID).Msg("job summary agent call failed")
		return nil, &EnrichmentError{JobID: job.JobID, Err: err}
	}
	if summary == nil {
		jobLogger.Warn().Str("job_id", job.JobID).Msg("job summary failed schema validation after regeneration")
		return nil, &EnrichmentError{JobID: job.JobID, Err: fmt.Errorf("job summary did not validate")}
	}

	jobLogger.Trace().Str("job_id", job.JobID).Int("background_total", summary.BackgroundAligns.Total).Msg("job summary computed")

	letter, err := llm.Generate[models.CoverLetter](ctx, s.client, coverLetterPrompt(job, *summary))
	if err != nil {
		jobLogger.Error().Err(err).Str("job_id", job.JobID).Msg("cover letter generate call failed")
		return nil, &EnrichmentError{JobID: job.JobID, Err: err}
	}
	if letter == nil {
		jobLogger.Warn().Str("job_id", job.JobID).Msg("cover letter failed schema validation")
		return nil, &EnrichmentError{JobID: job.JobID, Err: fmt.Errorf("cover letter did not validate")}
	}

	enriched := &models.EnrichedJob{
		RawJob:      job,
		JobSummary:  *summary,
		CoverLetter: *letter,
	}

	jobLogger.Debug().
		Str("job_id", job.JobID).
		Dur("duration", time.Since(start)).
		Msg("enrichment completed successfully")

	return enriched, nil
}
