// Package webhook implements the Webhook Emitter of spec.md §4.6: one
// best-effort JSON POST per EnrichedJob, bounded-retry, independent of
// other jobs in the run.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ternarybob/arbor"

	"github.com/smaltravel/findajob/internal/models"
)

const (
	maxAttempts     = 3
	initialInterval = time.Second
	backoffFactor   = 2.0
)

// WebhookError is raised on a non-2xx response that survived retry.
type WebhookError struct {
	URL        string
	StatusCode int
}

func (e *WebhookError) Error() string {
	return fmt.Sprintf("webhook: %s responded with status %d", e.URL, e.StatusCode)
}

// Emitter delivers EnrichedJob records to a run's configured webhook URL.
type Emitter struct {
	client *http.Client
	logger arbor.ILogger
}

// NewEmitter builds an Emitter with the given HTTP client, or
// http.DefaultClient if nil.
func NewEmitter(client *http.Client, logger arbor.ILogger) *Emitter {
	if client == nil {
		client = http.DefaultClient
	}
	return &Emitter{client: client, logger: logger}
}

// Deliver POSTs job to url, retrying transient failures with bounded
// exponential backoff and jitter (spec.md §4.6: up to 3 attempts, base
// 1s, factor 2). A delivery failure after all retries is returned to the
// caller, which per §4.6 must not let it poison the run's other jobs.
func (e *Emitter) Deliver(ctx context.Context, url string, job models.EnrichedJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("webhook: failed to marshal job %s: %w", job.JobID, err)
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = initialInterval
	expo.Multiplier = backoffFactor
	expo.MaxElapsedTime = 0
	bo := backoff.WithMaxRetries(backoff.WithContext(expo, ctx), uint64(maxAttempts-1))

	attempt := 0
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := e.client.Do(req)
		if err != nil {
			e.logger.Debug().Err(err).Str("job_id", job.JobID).Int("attempt", attempt).Msg("webhook delivery attempt failed")
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			werr := &WebhookError{URL: url, StatusCode: resp.StatusCode}
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(werr)
			}
			return werr
		}
		return nil
	}

	if err := backoff.Retry(op, bo); err != nil {
		e.logger.Error().Err(err).Str("job_id", job.JobID).Int("attempts", attempt).Msg("webhook delivery failed after retries")
		return err
	}

	e.logger.Debug().Str("job_id", job.JobID).Int("attempts", attempt).Msg("webhook delivery succeeded")
	return nil
}
