package report

import (
	"cmp"
	"maps"
	"slices"
	"strconv"
	"strings"

	"healthetl/internal/models"
)

// nullColumns is how many of the emptiest columns a dataset summary lists.
const nullColumns = 5

// Count is one label and how often it occurred.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Share is the percentage of empty cells in a column.
type Share struct {
	Column  string  `json:"column"`
	Percent float64 `json:"percent"`
}

// YearRange is the inclusive span of years observed in a column.
type YearRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// DatasetSummary describes the shape of one processed file.
type DatasetSummary struct {
	NullPercentages []Share `json:"null_percentages"`
	Records         int     `json:"record_count"`
	Columns         int     `json:"column_count"`
}

// FDAStats summarizes the substances file.
type FDAStats struct {
	YearRange         *YearRange `json:"year_range"`
	TechnicalEffects  []Count    `json:"technical_effects"`
	Total             int        `json:"total"`
	CASValidationRate float64    `json:"cas_validation_rate"`
}

// GRASStats summarizes the notices file.
type GRASStats struct {
	YearRange            *YearRange `json:"year_range"`
	ResponseDistribution []Count    `json:"response_distribution"`
	Total                int        `json:"total"`
	FilingDateRate       float64    `json:"filing_date_rate"`
	ClosureDateRate      float64    `json:"closure_date_rate"`
}

// SourceStats is the record count and year span of an obesity source.
type SourceStats struct {
	YearRange    *YearRange `json:"year_range"`
	TotalRecords int        `json:"total_records"`
}

// CDCStats adds the baseline and latest mean rates to the CDC totals.
type CDCStats struct {
	BaselineRate *float64 `json:"baseline_rate"`
	LatestRate   *float64 `json:"latest_rate"`
	Change       *float64 `json:"change"`
	SourceStats
	BaselineYear int `json:"baseline_year"`
	LatestYear   int `json:"latest_year"`
}

// ObesityStats groups the WHO and CDC summaries. Either may be absent.
type ObesityStats struct {
	WHO *SourceStats `json:"who,omitempty"`
	CDC *CDCStats    `json:"cdc,omitempty"`
}

// RiskPatterns summarizes recall risk levels, reasons and affected states.
type RiskPatterns struct {
	RiskLevels []Count `json:"risk_levels"`
	TopReasons []Count `json:"top_recall_reasons"`
	States     []Count `json:"state_distribution"`
}

// YearValue is a per-year value.
type YearValue struct {
	Value *float64 `json:"value"`
	Year  int      `json:"year"`
}

// LocationRate is the mean obesity rate of one location.
type LocationRate struct {
	Location string  `json:"location"`
	Rate     float64 `json:"rate"`
}

// ObesityTrends holds the CDC yearly means and the latest-year extremes.
type ObesityTrends struct {
	YearlyRates []YearValue    `json:"yearly_rates"`
	YoYChanges  []YearValue    `json:"yoy_changes"`
	Highest     []LocationRate `json:"highest"`
	Lowest      []LocationRate `json:"lowest"`
	LatestYear  int            `json:"latest_year"`
}

func summarizeDataset(t models.Table) DatasetSummary {
	s := DatasetSummary{Records: len(t.Rows), Columns: len(t.Columns)}

	shares := make([]Share, 0, len(t.Columns))
	for _, c := range t.Columns {
		shares = append(shares, Share{Column: c, Percent: 100 - nonEmptyRate(t.Column(c))})
	}

	slices.SortStableFunc(shares, func(a, b Share) int {
		return cmp.Compare(b.Percent, a.Percent)
	})

	s.NullPercentages = shares[:min(nullColumns, len(shares))]

	return s
}

func analyzeFDA(t models.Table) *FDAStats {
	var effects []string
	for _, cell := range t.Column("technical_effects") {
		effects = append(effects, models.SplitList(cell)...)
	}

	return &FDAStats{
		Total:             len(t.Rows),
		TechnicalEffects:  valueCounts(effects),
		CASValidationRate: nonEmptyRate(t.Column("cas_reg_no")),
		YearRange:         yearRange(t.Column("approval_year")),
	}
}

func analyzeGRAS(t models.Table) *GRASStats {
	return &GRASStats{
		Total:                len(t.Rows),
		ResponseDistribution: valueCounts(t.Column("fda_response")),
		FilingDateRate:       nonEmptyRate(t.Column("date_of_filing")),
		ClosureDateRate:      nonEmptyRate(t.Column("date_of_closure")),
		YearRange:            yearRange(t.Column("filing_year")),
	}
}

func analyzeSource(t models.Table) *SourceStats {
	return &SourceStats{TotalRecords: len(t.Rows), YearRange: yearRange(t.Column("year"))}
}

func analyzeCDC(t models.Table, baseline, latest int) *CDCStats {
	means := yearlyMeans(t)

	s := &CDCStats{
		SourceStats:  *analyzeSource(t),
		BaselineYear: baseline,
		LatestYear:   latest,
		BaselineRate: lookupMean(means, baseline),
		LatestRate:   lookupMean(means, latest),
	}

	if s.BaselineRate != nil && s.LatestRate != nil {
		change := *s.LatestRate - *s.BaselineRate
		s.Change = &change
	}

	return s
}

func analyzeRisk(t models.Table, topN int) *RiskPatterns {
	var states []string

	for _, cell := range t.Column("states") {
		for _, s := range models.SplitList(cell) {
			if s != "Nationwide" {
				states = append(states, s)
			}
		}
	}

	reasons := valueCounts(t.Column("recall_reason"))
	stateCounts := valueCounts(states)

	return &RiskPatterns{
		RiskLevels: valueCounts(t.Column("risk_level")),
		TopReasons: reasons[:min(topN, len(reasons))],
		States:     stateCounts[:min(10, len(stateCounts))],
	}
}

func analyzeTrends(t models.Table, topN int) *ObesityTrends {
	means := yearlyMeans(t)
	years := slices.Sorted(maps.Keys(means))

	trends := &ObesityTrends{}

	for i, y := range years {
		mean := means[y]
		trends.YearlyRates = append(trends.YearlyRates, YearValue{Year: y, Value: &mean})

		yoy := YearValue{Year: y}
		if prev := means[years[max(i-1, 0)]]; i > 0 && prev != 0 {
			change := (mean - prev) / prev * 100
			yoy.Value = &change
		}

		trends.YoYChanges = append(trends.YoYChanges, yoy)
	}

	if len(years) == 0 {
		return trends
	}

	trends.LatestYear = years[len(years)-1]

	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, rec := range t.Records() {
		year, ok := parseInt(rec.Get("year"))
		if !ok || year != trends.LatestYear {
			continue
		}

		loc := rec.Get("locationabbr")

		v := models.ParseNumber(rec.Get("data_value"))
		if loc == "" || !v.Valid {
			continue
		}

		sums[loc] += v.Value
		counts[loc]++
	}

	rates := make([]LocationRate, 0, len(sums))
	for loc, sum := range sums {
		rates = append(rates, LocationRate{Location: loc, Rate: sum / float64(counts[loc])})
	}

	slices.SortFunc(rates, func(a, b LocationRate) int {
		return cmp.Or(cmp.Compare(b.Rate, a.Rate), strings.Compare(a.Location, b.Location))
	})

	trends.Highest = slices.Clone(rates[:min(topN, len(rates))])

	slices.SortFunc(rates, func(a, b LocationRate) int {
		return cmp.Or(cmp.Compare(a.Rate, b.Rate), strings.Compare(a.Location, b.Location))
	})

	trends.Lowest = slices.Clone(rates[:min(topN, len(rates))])

	return trends
}

// valueCounts tallies non-empty values, most frequent first and ties by label.
func valueCounts(values []string) []Count {
	counts := make(map[string]int)

	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			counts[v]++
		}
	}

	out := make([]Count, 0, len(counts))
	for label, n := range counts {
		out = append(out, Count{Label: label, Count: n})
	}

	slices.SortFunc(out, func(a, b Count) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), strings.Compare(a.Label, b.Label))
	})

	return out
}

// nonEmptyRate is the percentage of values that are not blank.
func nonEmptyRate(values []string) float64 {
	if len(values) == 0 {
		return 0
	}

	n := 0

	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}

	return float64(n) / float64(len(values)) * 100
}

func yearRange(values []string) *YearRange {
	var r *YearRange

	for _, v := range values {
		y, ok := parseInt(v)
		if !ok {
			continue
		}

		if r == nil {
			r = &YearRange{Start: y, End: y}

			continue
		}

		r.Start = min(r.Start, y)
		r.End = max(r.End, y)
	}

	return r
}

// yearCounts counts rows per year.
func yearCounts(values []string) map[int]float64 {
	out := make(map[int]float64)

	for _, v := range values {
		if y, ok := parseInt(v); ok {
			out[y]++
		}
	}

	return out
}

// yearlyMeans averages data_value per year of a CDC table.
func yearlyMeans(t models.Table) map[int]float64 {
	sums := make(map[int]float64)
	counts := make(map[int]int)

	years := t.Column("year")
	if years == nil {
		return sums
	}

	for i, cell := range t.Column("data_value") {
		y, ok := parseInt(years[i])
		v := models.ParseNumber(cell)

		if !ok || !v.Valid {
			continue
		}

		sums[y] += v.Value
		counts[y]++
	}

	means := make(map[int]float64, len(sums))
	for y, sum := range sums {
		means[y] = sum / float64(counts[y])
	}

	return means
}

// seriesByYear reads a year column and a numeric value column into a series.
// Duplicate years are summed.
func seriesByYear(t models.Table, yearColumn, valueColumn string) map[int]float64 {
	out := make(map[int]float64)

	years := t.Column(yearColumn)
	if years == nil {
		return out
	}

	for i, cell := range t.Column(valueColumn) {
		y, ok := parseInt(years[i])
		v := models.ParseNumber(cell)

		if ok && v.Valid {
			out[y] += v.Value
		}
	}

	return out
}

func lookupMean(means map[int]float64, year int) *float64 {
	m, ok := means[year]
	if !ok {
		return nil
	}

	return &m
}

// parseInt accepts integral cells, including "2011.0" style renderings.
func parseInt(cell string) (int, bool) {
	cell = strings.TrimSpace(cell)
	if n, err := strconv.Atoi(cell); err == nil {
		return n, true
	}

	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}

	return int(f), true
}
