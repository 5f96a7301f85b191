package crawler

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"healthetl/internal/logger"
	"healthetl/internal/models"
)

// DefaultFSISPageSize keeps FSIS pages small; larger pages time out upstream.
const DefaultFSISPageSize = 50

// Lookup tables from human-readable filter values to FSIS taxonomy ids.
var (
	FSISStates = map[string]string{
		"All": "All", "Alabama": "25", "Alaska": "26", "Arizona": "27",
		"California": "29", "Colorado": "30", "Florida": "33", "Georgia": "34",
		"Illinois": "37", "Texas": "68", "Washington": "72", "Nationwide": "557",
	}
	FSISRiskLevels = map[string]string{
		"All": "All", "High -Class I": "9", "Low -Class II": "7",
		"Marginal -Class III": "611", "Medium -Class I": "8",
		"Public Health Alert": "555",
	}
	FSISYears = map[string]string{
		"2023": "445", "2022": "444", "2021": "446", "2020": "1",
		"2019": "2", "2018": "3", "2017": "4", "2016": "5",
	}
)

// RecallFilter narrows an FSIS recall query. Unknown lookup values map to All.
type RecallFilter struct {
	Active       *bool
	State        string
	Year         string
	RiskLevel    string
	RecallNumber string
}

// RecallFilterFromMap reads filter keys state, year, risk_level, recall_number
// and active from configuration.
func RecallFilterFromMap(m map[string]string) RecallFilter {
	f := RecallFilter{
		State:        m["state"],
		Year:         m["year"],
		RiskLevel:    m["risk_level"],
		RecallNumber: m["recall_number"],
	}

	if v, err := strconv.ParseBool(m["active"]); err == nil {
		f.Active = &v
	}

	return f
}

func lookup(table map[string]string, key string) string {
	if id, ok := table[key]; ok {
		return id
	}

	return "All"
}

// FSISClient pages through the FSIS recall API.
type FSISClient struct {
	scraper  *Scraper
	log      *logger.Logger
	baseURL  string
	pageSize int
}

// NewFSISClient creates a client for the recall API at baseURL.
func NewFSISClient(scraper *Scraper, baseURL string, pageSize int, log *logger.Logger) *FSISClient {
	if pageSize <= 0 {
		pageSize = DefaultFSISPageSize
	}

	return &FSISClient{
		scraper:  scraper,
		log:      log,
		baseURL:  strings.TrimRight(baseURL, "?"),
		pageSize: pageSize,
	}
}

// QueryURL builds the first-page URL for a filter.
func (c *FSISClient) QueryURL(f RecallFilter) string {
	return c.pageURL(f, 0)
}

func (c *FSISClient) pageURL(f RecallFilter, offset int) string {
	q := url.Values{}

	if f.State != "" {
		q.Set("field_states_id", lookup(FSISStates, f.State))
	}

	if f.Year != "" {
		q.Set("field_year_id", lookup(FSISYears, f.Year))
	}

	if f.RiskLevel != "" {
		q.Set("field_risk_level_id", lookup(FSISRiskLevels, f.RiskLevel))
	}

	if f.RecallNumber != "" {
		q.Set("field_recall_number", f.RecallNumber)
	}

	if f.Active != nil {
		active := "False"
		if *f.Active {
			active = "True"
		}

		q.Set("field_active_notice", active)
	}

	q.Set("$limit", strconv.Itoa(c.pageSize))
	q.Set("$offset", strconv.Itoa(offset))

	return c.baseURL + "?" + q.Encode()
}

// FetchAll pages through every recall matching f until a short page.
func (c *FSISClient) FetchAll(ctx context.Context, f RecallFilter) ([]models.RawRecord, error) {
	start := time.Now()

	var records []models.RawRecord

	for offset := 0; ; offset += c.pageSize {
		body, err := c.scraper.Fetch(ctx, c.pageURL(f, offset))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch recalls at offset %d: %w", offset, err)
		}

		page, err := DecodeRecords(body)
		if err != nil {
			return nil, fmt.Errorf("recalls at offset %d: %w", offset, err)
		}

		records = append(records, page...)
		c.log.Debug("fetched recall page", "offset", offset, "records", len(page))

		if len(page) < c.pageSize {
			break
		}
	}

	c.log.Info("recall fetch complete", "records", len(records), "elapsed", elapsed(start))

	return records, nil
}

// FetchActiveAndClosed runs the active and closed queries concurrently and
// returns active recalls followed by closed ones.
func (c *FSISClient) FetchActiveAndClosed(ctx context.Context, base RecallFilter) ([]models.RawRecord, error) {
	var active, closed []models.RawRecord

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		f := base
		t := true
		f.Active = &t

		var err error
		active, err = c.FetchAll(ctx, f)

		return err
	})

	g.Go(func() error {
		f := base
		fl := false
		f.Active = &fl

		var err error
		closed, err = c.FetchAll(ctx, f)

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return append(active, closed...), nil
}
