package crawler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthetl/internal/config"
	"healthetl/internal/logger"
)

func fastPolicy() *config.RetryPolicy {
	return &config.RetryPolicy{
		MaxAttempts:       3,
		InitialDelayMs:    1,
		MaxDelayMs:        5,
		BackoffMultiplier: 2.0,
		TimeoutSec:        5,
	}
}

func TestScraper_RetriesTemporaryStatus(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)

			return
		}

		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, status, _, err := NewScraperWithConfig(fastPolicy(), 0).FetchWithMetrics(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestScraper_StopsOnPermanentStatus(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewScraperWithConfig(fastPolicy(), 0).Fetch(context.Background(), srv.URL)
	require.ErrorIs(t, err, ErrUnexpectedStatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestScraper_BufferLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	_, err := NewScraperWithConfig(fastPolicy(), 1).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestScraper_SendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("User-Agent")))
	}))
	defer srv.Close()

	body, err := NewScraperWithConfig(fastPolicy(), 0).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, string(body), "healthetl")
}

func TestScraper_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScraperWithConfig(fastPolicy(), 0).Fetch(ctx, srv.URL)
	assert.Error(t, err)
}

func TestClient_FetchSource_FallsBackToBackup(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("a,b\n1,2\n"))
	}))
	defer good.Close()

	client := NewClientWithDeps(NewScraperWithConfig(fastPolicy(), 0), logger.Discard())
	src := &config.SourceConfig{URL: bad.URL, BackupURLs: []string{"not a url", good.URL}}

	body, err := client.FetchSource(context.Background(), "who", src)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(body))
}

func TestClient_FetchSource_AllFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer bad.Close()

	client := NewClientWithDeps(NewScraperWithConfig(fastPolicy(), 0), logger.Discard())

	_, err := client.FetchSource(context.Background(), "who", &config.SourceConfig{URL: bad.URL})
	assert.ErrorIs(t, err, ErrAllSourcesExhausted)
	assert.ErrorIs(t, err, ErrUnexpectedStatusCode)

	_, err = client.FetchSource(context.Background(), "who", &config.SourceConfig{})
	assert.ErrorIs(t, err, ErrNoSourcesAvailable)
}

func TestClient_FetchSource_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("x\n1\n"), 0o644))

	client := NewClientWithDeps(NewScraperWithConfig(fastPolicy(), 0), logger.Discard())
	body, err := client.FetchSource(context.Background(), "fda", &config.SourceConfig{File: path, URL: "http://unused"})
	require.NoError(t, err)
	assert.Equal(t, "x\n1\n", string(body))

	_, err = client.FetchSource(context.Background(), "fda", &config.SourceConfig{File: path + ".missing"})
	assert.Error(t, err)
}

func TestURLManager_Stats(t *testing.T) {
	um := NewURLManager("cdc", &config.SourceConfig{URL: "http://a", BackupURLs: []string{"http://b"}})
	assert.Equal(t, []string{"http://a", "http://b"}, um.Candidates())

	um.RecordAttempt("http://a", assert.AnError, 503, time.Millisecond)
	um.RecordAttempt("http://b", nil, 200, time.Millisecond)

	stats := um.GetAttemptStats()
	assert.Equal(t, 2, stats.TotalURLs)
	assert.Equal(t, 1, stats.SuccessfulURLs)
	assert.Equal(t, 1, stats.FailedURLs)
	assert.Equal(t, 2, stats.TotalAttempts)
	assert.Contains(t, stats.String(), "1 success")

	um.LogAttemptSummary(logger.Discard())
	um.Reset()
	assert.Empty(t, um.GetAttemptLog("http://a"))
}

func TestSocrataClient_FetchAll(t *testing.T) {
	const total = 5

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("$select") == "count(*)" {
			_, _ = w.Write([]byte(`[{"count":"5"}]`))

			return
		}

		limit, _ := strconv.Atoi(q.Get("$limit"))
		offset, _ := strconv.Atoi(q.Get("$offset"))

		var rows []map[string]any
		for i := offset; i < total && i < offset+limit; i++ {
			rows = append(rows, map[string]any{
				"yearstart":  strconv.Itoa(2011 + i),
				"data_value": 30.5 + float64(i),
				"flag":       i%2 == 0,
				"missing":    nil,
			})
		}

		_ = json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	client := NewSocrataClient(NewScraperWithConfig(fastPolicy(), 0), srv.URL, 2, logger.Discard())

	n, err := client.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, total, n)

	records, err := client.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, total)
	assert.Equal(t, "2011", records[0]["yearstart"])
	assert.Equal(t, "34.5", records[4]["data_value"])
	assert.Equal(t, "true", records[0]["flag"])
	assert.False(t, records[0].Has("missing"))
}

func TestSocrataClient_BadCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewSocrataClient(NewScraperWithConfig(fastPolicy(), 0), srv.URL, 0, logger.Discard())
	_, err := client.Count(context.Background())
	assert.ErrorIs(t, err, ErrBadCount)
}

func TestFSISClient_QueryURL(t *testing.T) {
	client := NewFSISClient(NewScraper(), "https://example.com/recall/v/1", 0, logger.Discard())

	active := true
	u := client.QueryURL(RecallFilter{State: "Texas", Year: "2023", RiskLevel: "Unknown level", Active: &active})

	assert.Contains(t, u, "field_states_id=68")
	assert.Contains(t, u, "field_year_id=445")
	assert.Contains(t, u, "field_risk_level_id=All")
	assert.Contains(t, u, "field_active_notice=True")
	assert.Contains(t, u, "%24limit=50")
}

func TestRecallFilterFromMap(t *testing.T) {
	f := RecallFilterFromMap(map[string]string{"state": "Florida", "active": "false"})
	assert.Equal(t, "Florida", f.State)
	require.NotNil(t, f.Active)
	assert.False(t, *f.Active)

	assert.Nil(t, RecallFilterFromMap(nil).Active)
}

func TestFSISClient_FetchActiveAndClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		offset, _ := strconv.Atoi(q.Get("$offset"))
		status := q.Get("field_active_notice")

		// Active recalls span two pages of two; closed recalls fit in one.
		var rows []map[string]string
		switch {
		case status == "True" && offset == 0:
			rows = []map[string]string{{"field_title": "a1"}, {"field_title": "a2"}}
		case status == "True" && offset == 2:
			rows = []map[string]string{{"field_title": "a3"}}
		case status == "False" && offset == 0:
			rows = []map[string]string{{"field_title": "c1"}}
		}

		_ = json.NewEncoder(w).Encode(rows)
	}))
	defer srv.Close()

	client := NewFSISClient(NewScraperWithConfig(fastPolicy(), 0), srv.URL, 2, logger.Discard())

	records, err := client.FetchActiveAndClosed(context.Background(), RecallFilter{})
	require.NoError(t, err)

	titles := make([]string, 0, len(records))
	for _, r := range records {
		titles = append(titles, r["field_title"])
	}

	assert.Equal(t, []string{"a1", "a2", "a3", "c1"}, titles)
}
