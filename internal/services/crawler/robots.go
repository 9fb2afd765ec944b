package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// robotsCache fetches and memoizes robots.txt per host, grounded on
// ncecere-raito/internal/crawler/map.go's fetchRobots.
type robotsCache struct {
	client    *http.Client
	userAgent string

	mu   sync.Mutex
	data map[string]*robotstxt.RobotsData
}

func newRobotsCache(client *http.Client, userAgent string) *robotsCache {
	return &robotsCache{
		client:    client,
		userAgent: userAgent,
		data:      make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether rawURL may be fetched under host's robots.txt.
// A robots.txt fetch failure is treated as permissive (allow), matching
// the common crawler convention of not blocking on an absent policy.
func (c *robotsCache) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}

	c.mu.Lock()
	data, cached := c.data[u.Host]
	c.mu.Unlock()
	if !cached {
		data, err = c.fetch(ctx, u)
		c.mu.Lock()
		c.data[u.Host] = data
		c.mu.Unlock()
		if err != nil {
			return true
		}
	}
	if data == nil {
		return true
	}
	return data.TestAgent(u.Path, c.userAgent)
}

func (c *robotsCache) fetch(ctx context.Context, base *url.URL) (*robotstxt.RobotsData, error) {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", base.Scheme, base.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return robotstxt.FromStatusAndBytes(resp.StatusCode, body)
}
