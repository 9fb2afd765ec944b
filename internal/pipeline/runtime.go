package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/smaltravel/findajob/internal/common"
	"github.com/smaltravel/findajob/internal/models"
	"github.com/smaltravel/findajob/internal/services/crawler"
	"github.com/smaltravel/findajob/internal/services/enrichment"
	"github.com/smaltravel/findajob/internal/services/llm"
	"github.com/smaltravel/findajob/internal/services/mcp"
	"github.com/smaltravel/findajob/internal/services/webhook"
	"github.com/smaltravel/findajob/internal/services/workers"
)

// runCeiling is the hard run-level time limit of spec.md §5 ("Hard
// run-level ceiling: 30 min (task time limit)").
const runCeiling = 30 * time.Minute

// defaultSearchSelectors and defaultDetailSelectors describe the single
// job board this crawler targets, matching the fixture shape exercised
// in internal/services/crawler's tests.
var defaultSearchSelectors = crawler.SearchSelectors{
	JobCard:   ".job-card",
	JobID:     "data-job-id",
	DetailURL: "a.job-link",
}

var defaultDetailSelectors = crawler.DetailSelectors{
	JobTitle:       "h1.title",
	Employer:       ".employer",
	EmployerURL:    ".employer a",
	JobLocation:    ".location",
	JobDescription: ".description",
	SeniorityLevel: ".seniority",
	EmploymentType: ".employment-type",
	JobFunction:    ".function",
	Industries:     ".industry",
}

// ProviderFactory builds the LLM provider for one run's
// ai_provider_config. Tests substitute a fake in place of the default,
// network-calling implementation (buildProvider).
type ProviderFactory func(ctx context.Context, req models.SearchRequest) (llm.Provider, error)

// Runtime is the Pipeline Runtime of spec.md §4.7: accepts submissions,
// persists Run state, and drives the crawl -> enrich -> deliver sequence
// through a bounded worker pool. Within one run, execution is
// single-threaded (spec.md §5); across runs, the pool parallelizes
// freely.
type Runtime struct {
	cfg      *common.Config
	store    Store
	broker   Broker
	pool     *workers.Pool
	registry *mcp.Registry
	validate *validator.Validate
	logger   arbor.ILogger

	providerFactory ProviderFactory

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewRuntime wires a Runtime from its dependencies. Start must be called
// before Submit'd runs will make progress.
func NewRuntime(cfg *common.Config, store Store, broker Broker, logger arbor.ILogger) *Runtime {
	rt := &Runtime{
		cfg:      cfg,
		store:    store,
		broker:   broker,
		pool:     workers.NewPool(cfg.Queue.Concurrency, logger),
		registry: mcp.NewRegistry(logger),
		validate: validator.New(),
		logger:   logger,
		cancels:  make(map[string]context.CancelFunc),
	}
	rt.providerFactory = rt.buildProvider
	return rt
}

// SetProviderFactory overrides how runs build their LLM provider. Used by
// tests to substitute a fake provider instead of a real network client.
func (rt *Runtime) SetProviderFactory(factory ProviderFactory) {
	rt.providerFactory = factory
}

// Start launches the worker pool and the broker dispatch loop. Call once
// at application startup.
func (rt *Runtime) Start(ctx context.Context) {
	rt.pool.Start()
	go rt.dispatchLoop(ctx)
}

// dispatchLoop pulls tasks off the broker (the queue is the system's
// only cross-process synchronization primitive, spec.md §5) and hands
// each to the worker pool as one composite job.
func (rt *Runtime) dispatchLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		task, err := rt.broker.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			rt.logger.Warn().Err(err).Msg("broker dequeue failed, retrying")
			time.Sleep(dequeueLoopDelay)
			continue
		}

		t := *task
		if err := rt.pool.Submit(func(workerCtx context.Context) error {
			return rt.execute(workerCtx, t)
		}); err != nil {
			rt.logger.Error().Err(err).Str("run_id", t.RunID).Msg("failed to submit run to worker pool")
		}
	}
}

// Submit validates and accepts a new run (spec.md §4.7: "submit(request)
// -> run_id -- returns immediately"). Validation failures are a
// ConfigError per spec.md §7 and fail the run synchronously.
func (rt *Runtime) Submit(ctx context.Context, req models.SearchRequest) (string, error) {
	if err := rt.validate.Struct(req); err != nil {
		return "", &ConfigError{Reason: err.Error()}
	}
	if req.AIProvider != models.ProviderGoogle && req.AIProvider != models.ProviderOllama {
		return "", &ConfigError{Reason: fmt.Sprintf("unknown provider: %s", req.AIProvider)}
	}
	if req.AIProvider == models.ProviderGoogle && req.AIProviderConfig.APIKey == "" && rt.cfg.LLM.GoogleAPIKey == "" {
		return "", &ConfigError{Reason: "google provider requires an api key"}
	}

	runID := common.NewRunID()
	if err := rt.store.Create(ctx, runID); err != nil {
		return "", fmt.Errorf("failed to persist run %s: %w", runID, err)
	}

	if err := rt.broker.Enqueue(ctx, Task{RunID: runID, Request: req}); err != nil {
		_ = rt.store.Fail(ctx, runID, err.Error())
		return "", fmt.Errorf("failed to enqueue run %s: %w", runID, err)
	}

	return runID, nil
}

// Status implements spec.md §4.7's status(run_id) observable operation.
func (rt *Runtime) Status(ctx context.Context, runID string) (models.StatusView, error) {
	run, err := rt.store.Get(ctx, runID)
	if err != nil {
		return models.StatusView{}, err
	}
	return run.View(), nil
}

// Cancel stops scheduling new jobs for runID; jobs already dispatched
// run to completion and their results are still delivered (spec.md §5).
func (rt *Runtime) Cancel(runID string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	cancel, ok := rt.cancels[runID]
	if ok {
		cancel()
	}
	return ok
}

// execute runs the composite crawl -> enrich -> deliver task for one run
// (spec.md §4.7: "a single composite task that runs crawl -> enrich ->
// deliver sequentially within one worker").
func (rt *Runtime) execute(parent context.Context, task Task) error {
	ctx, cancel := context.WithTimeout(parent, runCeiling)
	rt.mu.Lock()
	rt.cancels[task.RunID] = cancel
	rt.mu.Unlock()
	defer func() {
		cancel()
		rt.mu.Lock()
		delete(rt.cancels, task.RunID)
		rt.mu.Unlock()
	}()

	runLogger := rt.logger.WithCorrelationId(task.RunID)
	req := task.Request

	provider, err := rt.providerFactory(ctx, req)
	if err != nil {
		rt.fail(ctx, task.RunID, err)
		return err
	}

	if err := rt.store.Transition(ctx, task.RunID, models.RunCrawling); err != nil {
		return err
	}

	jobBoardCfg := crawler.Config{
		BaseURL:         rt.cfg.Crawler.BaseURL,
		UserAgent:       rt.cfg.Crawler.UserAgent,
		CourtesyDelay:   rt.cfg.Crawler.CourtesyDelay,
		RespectRobots:   rt.cfg.Crawler.RespectRobots,
		SearchSelectors: defaultSearchSelectors,
		DetailSelectors: defaultDetailSelectors,
	}
	board := crawler.NewJobBoardCrawler(jobBoardCfg, runLogger)
	stream := board.Crawl(ctx, req.SpiderConfig)

	counters := models.Counters{}
	var jobs []models.RawJob
	for job := range stream.Jobs {
		jobs = append(jobs, job)
		counters.TotalJobs++
	}
	if err := stream.Err(); err != nil {
		crawlErr := &CrawlerError{Err: err}
		rt.fail(ctx, task.RunID, crawlErr)
		return crawlErr
	}
	if counters.TotalJobs == 0 && req.SpiderConfig.MaxJobs > 0 {
		crawlErr := &CrawlerError{Err: fmt.Errorf("end of results before any job was found")}
		rt.fail(ctx, task.RunID, crawlErr)
		return crawlErr
	}
	if err := rt.store.SetCounters(ctx, task.RunID, counters); err != nil {
		return err
	}

	if err := rt.store.Transition(ctx, task.RunID, models.RunEnriching); err != nil {
		return err
	}

	stage := enrichment.NewStage(rt.newLLMClient(provider), runLogger)
	emitter := webhook.NewEmitter(nil, runLogger)

	var enriched []models.EnrichedJob
	for _, job := range jobs {
		if ctx.Err() != nil {
			break
		}
		record, err := stage.Enrich(context.WithoutCancel(ctx), job, req.UserCV)
		if err != nil {
			counters.EnrichmentFailures++
			runLogger.Warn().Err(err).Str("job_id", job.JobID).Msg("enrichment failed, skipping job")
			_ = rt.store.SetCounters(ctx, task.RunID, counters)
			continue
		}
		counters.Enriched++
		enriched = append(enriched, *record)
		_ = rt.store.SetCounters(ctx, task.RunID, counters)
	}

	if err := rt.store.Transition(ctx, task.RunID, models.RunDelivering); err != nil {
		return err
	}

	for _, record := range enriched {
		if err := emitter.Deliver(context.WithoutCancel(ctx), req.Webhook, record); err != nil {
			counters.DeliveryFailures++
			runLogger.Warn().Err(err).Str("job_id", record.JobID).Msg("webhook delivery failed")
			_ = rt.store.SetCounters(ctx, task.RunID, counters)
			continue
		}
		counters.Delivered++
		_ = rt.store.SetCounters(ctx, task.RunID, counters)
	}

	if ctx.Err() != nil {
		cancelErr := fmt.Errorf("cancelled")
		rt.fail(ctx, task.RunID, cancelErr)
		return cancelErr
	}

	finalState := models.RunSucceeded
	if counters.EnrichmentFailures > 0 || counters.DeliveryFailures > 0 {
		finalState = models.RunSucceededWithErrors
	}
	return rt.store.Transition(context.Background(), task.RunID, finalState)
}

// fail marks a run failed, using a background context so the
// persistence write survives a cancelled/expired run context.
func (rt *Runtime) fail(ctx context.Context, runID string, err error) {
	rt.logger.Error().Err(err).Str("run_id", runID).Msg("run failed")
	if saveErr := rt.store.Fail(context.Background(), runID, err.Error()); saveErr != nil {
		rt.logger.Error().Err(saveErr).Str("run_id", runID).Msg("failed to persist run failure")
	}
}

// buildProvider constructs the LLM provider for one run's
// ai_provider_config, performing the pre-flight checks of spec.md §7
// ("Config error: missing API key, unknown provider, unknown model at
// pre-flight. Fatal at run submit.").
func (rt *Runtime) buildProvider(ctx context.Context, req models.SearchRequest) (llm.Provider, error) {
	switch req.AIProvider {
	case models.ProviderGoogle:
		apiKey := req.AIProviderConfig.APIKey
		if apiKey == "" {
			apiKey = rt.cfg.LLM.GoogleAPIKey
		}
		if apiKey == "" {
			return nil, &ConfigError{Reason: "google provider requires an api key"}
		}
		return llm.NewGoogleProvider(ctx, apiKey, req.AIProviderConfig.Model, rt.logger)
	case models.ProviderOllama:
		baseURL := req.AIProviderConfig.BaseURL
		if baseURL == "" {
			baseURL = rt.cfg.LLM.OllamaBaseURL
		}
		return llm.NewOllamaProvider(ctx, baseURL, req.AIProviderConfig.Model, rt.logger), nil
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown provider: %s", req.AIProvider)}
	}
}

// newLLMClient binds a fresh client to provider; each job gets its own
// Stage call against this client with history cleared beforehand, but
// the client itself is shared across jobs within a run since only the
// history is job-scoped (spec.md §5: "each run owns its own LLM client
// object").
func (rt *Runtime) newLLMClient(provider llm.Provider) *llm.Client {
	return llm.NewClient(provider, rt.registry, "", rt.logger)
}
