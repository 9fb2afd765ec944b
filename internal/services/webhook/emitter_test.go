package webhook_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/smaltravel/findajob/internal/models"
	"github.com/smaltravel/findajob/internal/services/webhook"
)

func testJob() models.EnrichedJob {
	return models.EnrichedJob{
		RawJob: models.RawJob{JobID: "job-1", JobTitle: "Backend Engineer"},
	}
}

func TestDeliverSucceedsOnFirstAttempt(t *testing.T) {
	var gotContentType string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	emitter := webhook.NewEmitter(srv.Client(), arbor.NewLogger())
	err := emitter.Deliver(context.Background(), srv.URL, testJob())
	require.NoError(t, err)
	assert.Equal(t, "application/json", gotContentType)
	assert.Contains(t, string(gotBody), "job-1")
}

func TestDeliverRetriesOnServerErrorThenSucceeds(t *testing.T) {
	var attempts int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	emitter := webhook.NewEmitter(srv.Client(), arbor.NewLogger())
	err := emitter.Deliver(context.Background(), srv.URL, testJob())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestDeliverSurfacesWebhookErrorAfterExhaustingRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	emitter := webhook.NewEmitter(srv.Client(), arbor.NewLogger())
	err := emitter.Deliver(context.Background(), srv.URL, testJob())
	require.Error(t, err)

	var webhookErr *webhook.WebhookError
	require.ErrorAs(t, err, &webhookErr)
	assert.Equal(t, http.StatusServiceUnavailable, webhookErr.StatusCode)
}

func TestDeliverDoesNotRetryOnClientError(t *testing.T) {
	var attempts int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	emitter := webhook.NewEmitter(srv.Client(), arbor.NewLogger())
	err := emitter.Deliver(context.Background(), srv.URL, testJob())
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}
