package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"healthetl/internal/logger"
	"healthetl/internal/models"
)

// ErrBadCount indicates an unreadable count(*) response.
var ErrBadCount = errors.New("unexpected count response")

// DefaultSocrataPageSize is the page size used when none is configured.
const DefaultSocrataPageSize = 1000

// SocrataClient pages through a Socrata (SODA) resource such as the CDC
// nutrition, physical activity and obesity survey.
type SocrataClient struct {
	scraper  *Scraper
	log      *logger.Logger
	baseURL  string
	pageSize int
}

// NewSocrataClient creates a client for the resource at baseURL.
func NewSocrataClient(scraper *Scraper, baseURL string, pageSize int, log *logger.Logger) *SocrataClient {
	if pageSize <= 0 {
		pageSize = DefaultSocrataPageSize
	}

	return &SocrataClient{
		scraper:  scraper,
		log:      log,
		baseURL:  baseURL,
		pageSize: pageSize,
	}
}

// CountURL returns the URL of the count(*) query.
func (c *SocrataClient) CountURL() string {
	q := url.Values{}
	q.Set("$select", "count(*)")

	return c.baseURL + "?" + q.Encode()
}

// PageURL returns the URL of the page starting at offset.
func (c *SocrataClient) PageURL(offset int) string {
	q := url.Values{}
	q.Set("$limit", strconv.Itoa(c.pageSize))
	q.Set("$offset", strconv.Itoa(offset))

	return c.baseURL + "?" + q.Encode()
}

// Count returns the number of rows in the resource.
func (c *SocrataClient) Count(ctx context.Context) (int, error) {
	var rows []map[string]any
	if err := c.scraper.GetJSON(ctx, c.CountURL(), &rows); err != nil {
		return 0, err
	}

	if len(rows) == 0 {
		return 0, ErrBadCount
	}

	for _, key := range []string{"count", "COUNT", "count_1"} {
		switch v := rows[0][key].(type) {
		case string:
			n, err := strconv.Atoi(v)
			if err != nil {
				return 0, fmt.Errorf("%w: %q", ErrBadCount, v)
			}

			return n, nil
		case float64:
			return int(v), nil
		}
	}

	return 0, fmt.Errorf("%w: %v", ErrBadCount, rows[0])
}

// FetchAll downloads every row, one page at a time. Pages stop early when the
// server returns an empty page.
func (c *SocrataClient) FetchAll(ctx context.Context) ([]models.RawRecord, error) {
	start := time.Now()

	total, err := c.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	c.log.Info("fetching socrata resource", "url", c.baseURL, "total", total, "page_size", c.pageSize)

	records := make([]models.RawRecord, 0, total)

	for offset := 0; offset < total; offset += c.pageSize {
		body, err := c.scraper.Fetch(ctx, c.PageURL(offset))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch page at offset %d: %w", offset, err)
		}

		page, err := DecodeRecords(body)
		if err != nil {
			return nil, fmt.Errorf("page at offset %d: %w", offset, err)
		}

		if len(page) == 0 {
			break
		}

		records = append(records, page...)
		c.log.Debug("fetched page", "offset", offset, "records", len(page), "progress", len(records))
	}

	c.log.Info("socrata fetch complete", "records", len(records), "elapsed", elapsed(start))

	return records, nil
}
