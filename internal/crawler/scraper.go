// Package crawler fetches raw datasets over HTTP or from local files.
package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"healthetl/internal/config"
	"healthetl/pkg/utils"
)

// Scraper errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrResponseTooLarge     = errors.New("response exceeds buffer limit")
)

// DefaultBufferSizeKb caps a single response body.
const DefaultBufferSizeKb = 256 * 1024

// Scraper handles HTTP fetches with config-driven retry logic.
type Scraper struct {
	client       *http.Client
	retryPolicy  *config.RetryPolicy
	limiter      *rate.Limiter
	headers      http.Header
	bufferSizeKb int
}

// NewScraper creates a new scraper instance with default config.
func NewScraper() *Scraper {
	return NewScraperWithConfig(&config.RetryPolicy{
		MaxAttempts:       3,
		InitialDelayMs:    500,
		MaxDelayMs:        30000,
		BackoffMultiplier: 2.0,
		TimeoutSec:        30,
	}, DefaultBufferSizeKb)
}

// NewScraperWithConfig creates a new scraper with custom retry policy.
func NewScraperWithConfig(retryPolicy *config.RetryPolicy, bufferSizeKb int) *Scraper {
	if bufferSizeKb <= 0 {
		bufferSizeKb = DefaultBufferSizeKb
	}

	return &Scraper{
		client: &http.Client{
			Timeout: retryPolicy.GetTimeout(),
		},
		retryPolicy:  retryPolicy,
		headers:      utils.NewHTTPHelper().BuildHeaders(nil),
		bufferSizeKb: bufferSizeKb,
	}
}

// WithRateLimit allows at most one request per interval. Zero disables limiting.
func (s *Scraper) WithRateLimit(every time.Duration) *Scraper {
	cp := *s
	if every > 0 {
		cp.limiter = rate.NewLimiter(rate.Every(every), 1)
	} else {
		cp.limiter = nil
	}

	return &cp
}

// WithHTTPClient swaps the underlying HTTP client.
func (s *Scraper) WithHTTPClient(client *http.Client) *Scraper {
	cp := *s
	cp.client = client

	return &cp
}

// FetchWithMetrics returns (body, statusCode, duration, error).
func (s *Scraper) FetchWithMetrics(ctx context.Context, url string) ([]byte, int, time.Duration, error) {
	var lastErr error

	var lastStatusCode int

	totalDuration := time.Duration(0)

	for attempt := 1; attempt <= s.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, s.retryPolicy.GetRetryDelay(attempt)); err != nil {
				return nil, lastStatusCode, totalDuration, err
			}
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, lastStatusCode, totalDuration, fmt.Errorf("rate limiter: %w", err)
			}
		}

		startTime := time.Now()
		body, status, err := s.fetchOnce(ctx, url)
		totalDuration += time.Since(startTime)
		lastStatusCode = status

		if err == nil {
			return body, status, totalDuration, nil
		}

		lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, s.retryPolicy.MaxAttempts, err)

		if ctx.Err() != nil {
			return nil, lastStatusCode, totalDuration, ctx.Err()
		}

		// Only retry transport failures and temporary statuses.
		if status != 0 && !isRetryableStatus(status) {
			break
		}
	}

	return nil, lastStatusCode, totalDuration, lastErr
}

func (s *Scraper) fetchOnce(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = s.headers.Clone()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	// bufferSizeKb is in KB; read one byte past it to detect truncation.
	limit := int64(s.bufferSizeKb) * 1024
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))

	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > limit {
		return nil, resp.StatusCode, fmt.Errorf("%w: %d KB", ErrResponseTooLarge, s.bufferSizeKb)
	}

	return body, resp.StatusCode, nil
}

// Fetch returns the body of url.
func (s *Scraper) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, _, _, err := s.FetchWithMetrics(ctx, url)

	return body, err
}

// GetJSON fetches url and decodes the JSON body into v.
func (s *Scraper) GetJSON(ctx context.Context, url string, v any) error {
	body, err := s.Fetch(ctx, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode JSON from %s: %w", url, err)
	}

	return nil
}

// ReadLocalFile reads content from a local file path.
func (s *Scraper) ReadLocalFile(filePath string) ([]byte, error) {
	content, _, _, err := s.ReadLocalFileWithMetrics(filePath)

	return content, err
}

// ReadLocalFileWithMetrics returns (content, fileSize, duration, error).
func (s *Scraper) ReadLocalFileWithMetrics(filePath string) ([]byte, int64, time.Duration, error) {
	startTime := time.Now()

	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, 0, time.Since(startTime), fmt.Errorf("failed to stat file %s: %w", filePath, err)
	}

	content, err := os.ReadFile(filePath)
	duration := time.Since(startTime)

	if err != nil {
		return nil, 0, duration, fmt.Errorf("failed to read local file %s: %w", filePath, err)
	}

	return content, fileInfo.Size(), duration, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable: // 503
		return true
	case http.StatusGatewayTimeout: // 504
		return true
	case http.StatusTooManyRequests: // 429
		return true
	case http.StatusRequestTimeout: // 408
		return true
	}

	return false
}
