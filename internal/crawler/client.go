package crawler

import (
	"context"
	"fmt"
	"time"

	"healthetl/internal/config"
	"healthetl/internal/logger"
	"healthetl/pkg/utils"
)

// Client fetches whole dataset files, falling back through mirrors.
type Client struct {
	scraper *Scraper
	log     *logger.Logger
	http    *utils.HTTPHelper
}

// NewClient creates a new crawler client with default dependencies.
func NewClient(log *logger.Logger) *Client {
	return NewClientWithDeps(NewScraper(), log)
}

// NewClientWithDeps creates a new crawler client with injected dependencies.
func NewClientWithDeps(scraper *Scraper, log *logger.Logger) *Client {
	return &Client{
		scraper: scraper,
		log:     log,
		http:    utils.NewHTTPHelper(),
	}
}

// Scraper returns the underlying scraper.
func (c *Client) Scraper() *Scraper {
	return c.scraper
}

// FetchSource returns the raw bytes of a dataset: the local file when one is
// configured, otherwise the first URL (primary, then backups) that answers.
func (c *Client) FetchSource(ctx context.Context, name string, src *config.SourceConfig) ([]byte, error) {
	um := NewURLManager(name, src)
	defer um.LogAttemptSummary(c.log)

	if len(um.Candidates()) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoSourcesAvailable)
	}

	if um.IsLocal() {
		path := um.Candidates()[0]
		body, _, duration, err := c.scraper.ReadLocalFileWithMetrics(path)
		um.RecordAttempt(path, err, 0, duration)

		return body, err
	}

	var lastErr error

	for _, url := range um.Candidates() {
		if !c.http.IsValidURL(url) {
			lastErr = fmt.Errorf("invalid url %q", url)
			um.RecordAttempt(url, lastErr, 0, 0)

			continue
		}

		body, status, duration, err := c.scraper.FetchWithMetrics(ctx, url)
		um.RecordAttempt(url, err, status, duration)

		if err == nil {
			return body, nil
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lastErr = err
	}

	return nil, fmt.Errorf("%s: %w: %w", name, ErrAllSourcesExhausted, lastErr)
}

// elapsed is used by the paging clients to log progress.
func elapsed(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
