package crawler

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"healthetl/internal/config"
	"healthetl/internal/logger"
)

// URL manager errors.
var (
	ErrNoSourcesAvailable  = errors.New("no sources available")
	ErrAllSourcesExhausted = errors.New("all sources exhausted")
)

// URLManager walks a dataset's locations in order: the local file when one is
// configured, otherwise the primary URL followed by its backups. It records
// the outcome of every attempt.
type URLManager struct {
	attemptLog map[string][]AttemptResult
	name       string
	candidates []string
	local      bool
	mu         sync.Mutex
}

// AttemptResult records the result of a fetch attempt.
type AttemptResult struct {
	Timestamp  time.Time
	URL        string
	Error      string
	Attempt    int
	Duration   time.Duration
	StatusCode int
	Success    bool
}

// NewURLManager creates a URL manager for one dataset source.
func NewURLManager(name string, src *config.SourceConfig) *URLManager {
	um := &URLManager{
		name:       name,
		attemptLog: make(map[string][]AttemptResult),
		local:      src.IsLocalFile(),
	}

	if um.local {
		um.candidates = []string{src.File}

		return um
	}

	for _, u := range src.GetAllURLs() {
		if u != "" {
			um.candidates = append(um.candidates, u)
		}
	}

	return um
}

// Candidates returns the locations to try, in order.
func (um *URLManager) Candidates() []string {
	return um.candidates
}

// IsLocal reports whether the source is a local file.
func (um *URLManager) IsLocal() bool {
	return um.local
}

// RecordAttempt records the result of a fetch attempt.
func (um *URLManager) RecordAttempt(url string, err error, statusCode int, duration time.Duration) {
	um.mu.Lock()
	defer um.mu.Unlock()

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	um.attemptLog[url] = append(um.attemptLog[url], AttemptResult{
		URL:        url,
		Attempt:    len(um.attemptLog[url]) + 1,
		Success:    err == nil,
		Error:      errMsg,
		Timestamp:  time.Now(),
		Duration:   duration,
		StatusCode: statusCode,
	})
}

// GetAttemptLog returns the attempt log for a URL.
func (um *URLManager) GetAttemptLog(url string) []AttemptResult {
	um.mu.Lock()
	defer um.mu.Unlock()

	return append([]AttemptResult(nil), um.attemptLog[url]...)
}

// GetAttemptStats returns statistics about fetch attempts.
func (um *URLManager) GetAttemptStats() AttemptStats {
	um.mu.Lock()
	defer um.mu.Unlock()

	stats := AttemptStats{
		TotalURLs:   len(um.candidates),
		URLAttempts: make(map[string]int),
	}

	for url, results := range um.attemptLog {
		stats.URLAttempts[url] = len(results)
		stats.TotalAttempts += len(results)

		urlSuccess := false

		for _, result := range results {
			if result.Success {
				stats.SuccessfulAttempts++
				urlSuccess = true
			} else {
				stats.FailedAttempts++
			}
		}

		if urlSuccess {
			stats.SuccessfulURLs++
		} else {
			stats.FailedURLs++
		}
	}

	return stats
}

// AttemptStats contains statistics about fetch attempts.
type AttemptStats struct {
	URLAttempts        map[string]int
	TotalURLs          int
	SuccessfulURLs     int
	FailedURLs         int
	TotalAttempts      int
	SuccessfulAttempts int
	FailedAttempts     int
}

// String returns a string representation of attempt stats.
func (s AttemptStats) String() string {
	return fmt.Sprintf(
		"URLs: %d total, %d success, %d failed | Attempts: %d total, %d success, %d failed",
		s.TotalURLs,
		s.SuccessfulURLs,
		s.FailedURLs,
		s.TotalAttempts,
		s.SuccessfulAttempts,
		s.FailedAttempts,
	)
}

// LogAttemptSummary logs a summary of fetch attempts using the provided logger.
func (um *URLManager) LogAttemptSummary(l *logger.Logger) {
	l = l.With("dataset", um.name)

	for i, url := range um.candidates {
		results := um.GetAttemptLog(url)
		if len(results) == 0 {
			l.Debug("fetch location not attempted", "index", i+1, "url", url)

			continue
		}

		for _, result := range results {
			if result.Success {
				l.Info("fetch succeeded", "url", url, "attempt", result.Attempt,
					"duration", result.Duration.Round(time.Millisecond))
			} else {
				l.Warn("fetch failed", "url", url, "attempt", result.Attempt,
					"status", result.StatusCode, "error", result.Error)
			}
		}
	}

	l.Info("fetch summary", "stats", um.GetAttemptStats().String())
}

// Reset clears the attempt log.
func (um *URLManager) Reset() {
	um.mu.Lock()
	defer um.mu.Unlock()

	um.attemptLog = make(map[string][]AttemptResult)
}
