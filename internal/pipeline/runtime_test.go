package pipeline_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/smaltravel/findajob/internal/common"
	"github.com/smaltravel/findajob/internal/models"
	"github.com/smaltravel/findajob/internal/pipeline"
	"github.com/smaltravel/findajob/internal/services/llm"
	badgerstore "github.com/smaltravel/findajob/internal/storage/badger"
)

// fakeBroker is an in-memory Broker used in place of Redis for runtime tests.
type fakeBroker struct {
	tasks chan pipeline.Task
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{tasks: make(chan pipeline.Task, 16)}
}

func (b *fakeBroker) Enqueue(ctx context.Context, task pipeline.Task) error {
	b.tasks <- task
	return nil
}

func (b *fakeBroker) Dequeue(ctx context.Context) (*pipeline.Task, error) {
	select {
	case task := <-b.tasks:
		return &task, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *fakeBroker) Close() error { return nil }

// fakeProvider answers the enrichment stage's two structured calls
// (JobSummary via Agent, CoverLetter via Generate) with canned JSON,
// without exercising native tool calling.
type fakeProvider struct {
	calls int
}

func (p *fakeProvider) Type() llm.ProviderType          { return llm.ProviderGoogle }
func (p *fakeProvider) SupportsNativeToolCalling() bool { return false }

func (p *fakeProvider) GenerateContent(ctx context.Context, req *llm.ContentRequest) (*llm.ContentResponse, error) {
	p.calls++
	if len(req.Tools.Tools) > 0 {
		return &llm.ContentResponse{Text: `{
			"responsibilities": ["write code"],
			"requirements": ["go experience"],
			"opportunity_interest": "high",
			"background_aligns": {"total": 80, "skills": 80, "education": 70, "experience": 80, "location": 90, "industries": 70, "languages": 90},
			"summary": "strong match"
		}`}, nil
	}
	return &llm.ContentResponse{Text: `{
		"subject": "Application for the role",
		"letter_content": "I would love to join your team."
	}`}, nil
}

func newTestRuntime(t *testing.T, boardServer, webhookServer *httptest.Server) (*pipeline.Runtime, pipeline.Store) {
	t.Helper()
	dir, err := os.MkdirTemp("", "findajob-runtime-test")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	db, err := badgerstore.NewDB(arbor.NewLogger(), common.BadgerConfig{Path: dir})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runStorage := badgerstore.NewRunStorage(db, arbor.NewLogger())
	store := pipeline.NewStore(runStorage)
	broker := newFakeBroker()

	cfg := common.NewDefaultConfig()
	cfg.Queue.Concurrency = 2
	cfg.Crawler.BaseURL = boardServer.URL + "/search"
	cfg.Crawler.CourtesyDelay = time.Millisecond
	cfg.Crawler.RespectRobots = false
	cfg.LLM.GoogleAPIKey = "test-key"

	rt := pipeline.NewRuntime(cfg, store, broker, arbor.NewLogger())
	rt.SetProviderFactory(func(ctx context.Context, req models.SearchRequest) (llm.Provider, error) {
		return &fakeProvider{}, nil
	})
	return rt, store
}

func waitForTerminal(t *testing.T, store pipeline.Store, runID string, timeout time.Duration) models.StatusView {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		run, err := store.Get(context.Background(), runID)
		require.NoError(t, err)
		if run.State.Terminal() {
			return run.View()
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("run %s did not reach a terminal state within %s", runID, timeout)
	return models.StatusView{}
}

func jobBoardFixture(jobCount int) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		// Only the first page carries job cards; every later offset
		// returns an empty body so the crawler sees end-of-results
		// instead of looping forever re-fetching the same cards.
		if r.URL.Query().Get("start_offset") != "0" {
			return
		}
		fmt.Fprint(w, `<html><body>`)
		for i := 0; i < jobCount; i++ {
			fmt.Fprintf(w, `<div class="job-card" data-job-id="job-%d"><a class="job-link" href="/job/%d">view</a></div>`, i, i)
		}
		fmt.Fprint(w, `</body></html>`)
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	for i := 0; i < jobCount; i++ {
		path := fmt.Sprintf("/job/%d", i)
		idx := i
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprintf(w, `<html><body>
				<h1 class="title">Backend Engineer %d</h1>
				<div class="employer">Acme Corp</div>
				<div class="location">Remote</div>
				<div class="description">Build services.</div>
				<div class="seniority">mid</div>
				<div class="employment-type">full-time</div>
				<div class="function">engineering</div>
			</body></html>`, idx)
		})
	}
	return httptest.NewServer(mux)
}

func sampleRequest(webhookURL string) models.SearchRequest {
	return models.SearchRequest{
		SpiderConfig: models.SpiderConfig{Keywords: "golang", MaxJobs: 5, Seniority: 3},
		AIProviderConfig: models.AIProviderConfig{
			Model:  "test-model",
			APIKey: "test-key",
		},
		AIProvider: models.ProviderGoogle,
		UserCV:     models.CandidateProfile{Name: "Jordan Doe"},
		Webhook:    webhookURL,
	}
}

func TestRuntimeSubmitRejectsInvalidRequest(t *testing.T) {
	board := jobBoardFixture(0)
	defer board.Close()
	rt, _ := newTestRuntime(t, board, nil)

	_, err := rt.Submit(context.Background(), models.SearchRequest{})
	require.Error(t, err)
	var configErr *pipeline.ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestRuntimeHappyPath(t *testing.T) {
	board := jobBoardFixture(2)
	defer board.Close()

	var delivered int32
	var mu sync.Mutex
	var deliveredJobs []string
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		deliveredJobs = append(deliveredJobs, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer webhook.Close()

	rt, store := newTestRuntime(t, board, webhook)
	_ = delivered

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rt.Start(ctx)

	runID, err := rt.Submit(context.Background(), sampleRequest(webhook.URL))
	require.NoError(t, err)

	view := waitForTerminal(t, store, runID, 10*time.Second)
	assert.Equal(t, models.RunSucceeded, view.State)
	assert.Equal(t, 2, view.Counters.TotalJobs)
	assert.Equal(t, 2, view.Counters.Delivered)
	assert.LessOrEqual(t, view.Counters.Delivered, view.Counters.Enriched)
	assert.LessOrEqual(t, view.Counters.Enriched+view.Counters.EnrichmentFailures, view.Counters.TotalJobs)
}

func TestRuntimeCrawlerFailureMarksRunFailed(t *testing.T) {
	// A board that always 500s on /search surfaces a CrawlerError and
	// the run transitions straight to failed.
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	board := httptest.NewServer(mux)
	defer board.Close()

	rt, store := newTestRuntime(t, board, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rt.Start(ctx)

	runID, err := rt.Submit(context.Background(), sampleRequest("http://localhost:0/unused"))
	require.NoError(t, err)

	view := waitForTerminal(t, store, runID, 10*time.Second)
	assert.Equal(t, models.RunFailed, view.State)
	assert.NotEmpty(t, view.Error)
}

func TestRuntimeWebhookFailuresCountTowardSucceededWithErrors(t *testing.T) {
	board := jobBoardFixture(1)
	defer board.Close()

	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer webhook.Close()

	rt, store := newTestRuntime(t, board, webhook)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rt.Start(ctx)

	runID, err := rt.Submit(context.Background(), sampleRequest(webhook.URL))
	require.NoError(t, err)

	view := waitForTerminal(t, store, runID, 10*time.Second)
	assert.Equal(t, models.RunSucceededWithErrors, view.State)
	assert.Equal(t, 1, view.Counters.DeliveryFailures)
	assert.Equal(t, 0, view.Counters.Delivered)
}
