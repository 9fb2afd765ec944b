package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/smaltravel/findajob/internal/models"
)

const (
	defaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	defaultCourtesyDelay = 1200 * time.Millisecond
	timeFilterLast24h    = "last_24h"
)

// Config parameterizes a JobBoardCrawler instance. BaseURL is the job
// board's public search endpoint; SearchSelectors/DetailSelectors name
// the CSS selectors this concrete board's markup uses (spec.md §1 scopes
// the actual DOM rules for a real board out, leaving only this Crawler
// contract specified).
type Config struct {
	BaseURL         string
	UserAgent       string
	CourtesyDelay   time.Duration
	RespectRobots   bool
	HTTPClient      *http.Client
	SearchSelectors SearchSelectors
	DetailSelectors DetailSelectors
}

// SearchSelectors locates job cards and their fields on a search results page.
type SearchSelectors struct {
	JobCard  string
	JobID    string // attribute selector, read as a data-* attribute
	DetailURL string // attribute selector for the anchor href
}

// DetailSelectors locates RawJob fields on a job detail page.
type DetailSelectors struct {
	JobTitle       string
	Employer       string
	EmployerURL    string
	JobLocation    string
	JobDescription string
	SeniorityLevel string
	EmploymentType string
	JobFunction    string
	Industries     string // each match is one industry
}

func (c Config) withDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.CourtesyDelay < time.Second {
		c.CourtesyDelay = defaultCourtesyDelay
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return c
}

// JobBoardCrawler implements Crawler against one job board's paginated
// search endpoint (spec.md §4.4).
type JobBoardCrawler struct {
	cfg     Config
	logger  arbor.ILogger
	limiter *RateLimiter
	retry   *RetryPolicy
	robots  *robotsCache
}

// NewJobBoardCrawler builds a crawler bound to a concrete board's endpoint
// and markup shape.
func NewJobBoardCrawler(cfg Config, logger arbor.ILogger) *JobBoardCrawler {
	cfg = cfg.withDefaults()
	return &JobBoardCrawler{
		cfg:     cfg,
		logger:  logger,
		limiter: NewRateLimiter(cfg.CourtesyDelay),
		retry:   NewRetryPolicy(),
		robots:  newRobotsCache(cfg.HTTPClient, cfg.UserAgent),
	}
}

func (c *JobBoardCrawler) Crawl(ctx context.Context, spiderCfg models.SpiderConfig) *JobStream {
	jobs := make(chan models.RawJob)
	errC := make(chan error, 1)
	stream := &JobStream{Jobs: jobs, errC: errC}

	go func() {
		defer close(jobs)
		defer close(errC)

		if spiderCfg.MaxJobs <= 0 {
			return
		}

		seen := make(map[string]struct{})
		emitted := 0
		offset := 0

		for emitted < spiderCfg.MaxJobs {
			searchURL := c.buildSearchURL(spiderCfg, offset)

			body, err := c.fetch(ctx, searchURL)
			if err != nil {
				errC <- &CrawlerError{Stage: "search", URL: searchURL, Err: err}
				return
			}
			if len(strings.TrimSpace(body)) == 0 {
				c.logger.Debug().Str("url", searchURL).Msg("search surface returned empty body, end of results")
				return
			}

			doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
			if err != nil {
				errC <- &CrawlerError{Stage: "search", URL: searchURL, Err: err}
				return
			}

			cards := doc.Find(c.cfg.SearchSelectors.JobCard)
			if cards.Length() == 0 {
				return
			}

			consumed := 0
			cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
				if emitted >= spiderCfg.MaxJobs {
					return false
				}
				consumed++

				jobID := strings.TrimSpace(card.AttrOr(c.cfg.SearchSelectors.JobID, ""))
				href := strings.TrimSpace(card.Find(c.cfg.SearchSelectors.DetailURL).AttrOr("href", ""))
				if href == "" {
					return true
				}
				detailURL := c.resolveURL(searchURL, href)

				if jobID != "" {
					if _, dup := seen[jobID]; dup {
						return true
					}
				}

				job, err := c.fetchDetail(ctx, detailURL, jobID)
				if err != nil {
					c.logger.Warn().Err(err).Str("url", detailURL).Msg("job detail extraction failed, skipping")
					return true
				}
				if !job.Valid() {
					c.logger.Warn().Str("url", detailURL).Msg("job record missing job_id or job_title, skipping")
					return true
				}
				if _, dup := seen[job.JobID]; dup {
					return true
				}
				seen[job.JobID] = struct{}{}

				select {
				case jobs <- *job:
					emitted++
				case <-ctx.Done():
					return false
				}
				return true
			})

			if consumed == 0 {
				return
			}
			offset += consumed
		}
	}()

	return stream
}

func (c *JobBoardCrawler) buildSearchURL(cfg models.SpiderConfig, offset int) string {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return c.cfg.BaseURL
	}
	q := u.Query()
	q.Set("keywords", cfg.Keywords)
	q.Set("location", cfg.Location)
	q.Set("seniority", strconv.Itoa(cfg.Seniority))
	q.Set("time_filter", timeFilterLast24h)
	q.Set("start_offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *JobBoardCrawler) resolveURL(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return baseURL.ResolveReference(ref).String()
}

func (c *JobBoardCrawler) fetchDetail(ctx context.Context, detailURL, jobID string) (*models.RawJob, error) {
	body, err := c.fetch(ctx, detailURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	job := extractRawJob(doc, c.cfg.DetailSelectors, jobID, detailURL)
	job.FillDefaults()
	return &job, nil
}

// fetch performs a politeness-gated, retried GET against rawURL: at most
// one outstanding request per host and a courtesy delay between requests
// (spec.md §4.4), plus robots.txt compliance when enabled.
func (c *JobBoardCrawler) fetch(ctx context.Context, rawURL string) (string, error) {
	if c.cfg.RespectRobots && !c.robots.Allowed(ctx, rawURL) {
		return "", fmt.Errorf("blocked by robots.txt: %s", rawURL)
	}
	if err := c.limiter.Wait(ctx, rawURL); err != nil {
		return "", err
	}

	var body string
	_, err := c.retry.ExecuteWithRetry(ctx, c.logger, func() (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return 0, err
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)

		resp, err := c.cfg.HTTPClient.Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()

		b, readErr := readAllString(resp.Body)
		if readErr != nil {
			return resp.StatusCode, readErr
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			body = b
			return resp.StatusCode, nil
		}
		return resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	})
	if err != nil {
		return "", err
	}
	return body, nil
}
