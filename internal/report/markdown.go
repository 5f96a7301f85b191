package report

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"healthetl/internal/formatter"
)

const timestampLayout = "2006-01-02 15:04:05"

// Render formats results as the Markdown verification report. Sections whose
// data is missing are left out.
func Render(res *Results) string {
	var b strings.Builder

	b.WriteString("# Data Verification Report\n")
	fmt.Fprintf(&b, "Generated: %s\n", res.GeneratedAt.Format(timestampLayout))

	if res.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", res.RunID)
	}

	if len(res.Missing) > 0 {
		fmt.Fprintf(&b, "\n> Missing datasets: %s\n", strings.Join(res.Missing, ", "))
	}

	renderDatasets(&b, res)
	renderFDA(&b, res.FDA)
	renderGRAS(&b, res.GRAS)
	renderObesity(&b, res.Obesity)
	renderHeaders(&b, res.Headers)
	renderCorrelations(&b, res.Correlations)
	renderRisk(&b, res.Risk)
	renderTrends(&b, res.Trends)

	return b.String()
}

func renderDatasets(b *strings.Builder, res *Results) {
	if len(res.Datasets) == 0 {
		return
	}

	b.WriteString("\n## Datasets\n\n")

	keys := slices.Sorted(maps.Keys(res.Datasets))

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		d := res.Datasets[k]

		var nulls []string
		for _, s := range d.NullPercentages {
			nulls = append(nulls, fmt.Sprintf("%s %.1f%%", s.Column, s.Percent))
		}

		rows = append(rows, []string{k, integer(d.Records), integer(d.Columns), strings.Join(nulls, ", ")})
	}

	b.WriteString(formatter.Table([]string{"Dataset", "Records", "Columns", "Most empty columns"}, rows))
	b.WriteString("\n")
}

func renderFDA(b *strings.Builder, s *FDAStats) {
	if s == nil {
		return
	}

	b.WriteString("\n## FDA Substances\n")
	fmt.Fprintf(b, "- Total Records: %s\n", integer(s.Total))
	fmt.Fprintf(b, "- CAS Number Validation Rate: %.1f%%\n", s.CASValidationRate)
	fmt.Fprintf(b, "- Year Range: %s\n", s.YearRange)

	b.WriteString("\n### Technical Effects Distribution\n\n")
	b.WriteString(countTable("Technical effect", s.TechnicalEffects, s.Total))
}

func renderGRAS(b *strings.Builder, s *GRASStats) {
	if s == nil {
		return
	}

	b.WriteString("\n## GRAS Notices\n")
	fmt.Fprintf(b, "- Total Records: %s\n", integer(s.Total))
	fmt.Fprintf(b, "- Filing Dates Validation: %.1f%%\n", s.FilingDateRate)
	fmt.Fprintf(b, "- Closure Dates Validation: %.1f%%\n", s.ClosureDateRate)
	fmt.Fprintf(b, "- Year Range: %s\n", s.YearRange)

	b.WriteString("\n### FDA Response Distribution\n\n")
	b.WriteString(countTable("Response", s.ResponseDistribution, s.Total))
}

func renderObesity(b *strings.Builder, s *ObesityStats) {
	if s == nil {
		return
	}

	b.WriteString("\n## Obesity Data\n")

	if s.WHO != nil {
		b.WriteString("\n### WHO Statistics\n")
		fmt.Fprintf(b, "- Total Records: %s\n", integer(s.WHO.TotalRecords))
		fmt.Fprintf(b, "- Year Range: %s\n", s.WHO.YearRange)
	}

	if c := s.CDC; c != nil {
		b.WriteString("\n### CDC Statistics\n")
		fmt.Fprintf(b, "- Total Records: %s\n", integer(c.TotalRecords))
		fmt.Fprintf(b, "- Year Range: %s\n", c.YearRange)
		b.WriteString("- Obesity Rate Change:\n")
		fmt.Fprintf(b, "  - %d: %s\n", c.BaselineYear, optional(c.BaselineRate, "%.2f%%"))
		fmt.Fprintf(b, "  - %d: %s\n", c.LatestYear, optional(c.LatestRate, "%.2f%%"))
		fmt.Fprintf(b, "  - Change: %s\n", optional(c.Change, "%+.2f%%"))
	}
}

func renderHeaders(b *strings.Builder, headers map[string][]string) {
	if len(headers) == 0 {
		return
	}

	b.WriteString("\n## CSV Headers\n")

	for _, name := range slices.Sorted(maps.Keys(headers)) {
		fmt.Fprintf(b, "\n### %s\n", name)

		for i, col := range headers[name] {
			fmt.Fprintf(b, "%d. %s\n", i+1, col)
		}
	}
}

func renderCorrelations(b *strings.Builder, corr map[string]Correlation) {
	if len(corr) == 0 {
		return
	}

	b.WriteString("\n## Correlation Analysis\n\n### Food Safety Regulations vs Obesity Rates\n\n")

	var rows [][]string

	for _, metric := range Metrics {
		c, ok := corr[metric]
		if !ok {
			continue
		}

		coefficient := optional(c.Coefficient, "%.3f")
		if c.Note != "" {
			coefficient += " (" + c.Note + ")"
		}

		rows = append(rows, []string{
			cases.Title(language.English).String(strings.ReplaceAll(metric, "_", " ")),
			coefficient,
			optional(c.PValue, "%.3f"),
			c.YearRange,
			integer(c.YearsAnalyzed),
		})
	}

	b.WriteString(formatter.Table([]string{"Metric", "Correlation", "p-value", "Period", "Years"}, rows))
	b.WriteString("\n")
}

func renderRisk(b *strings.Builder, r *RiskPatterns) {
	if r == nil {
		return
	}

	b.WriteString("\n## Food Safety Risk Analysis\n\n### Recall Risk Levels\n\n")
	b.WriteString(countTable("Risk level", r.RiskLevels, 0))
	b.WriteString("\n### Top Recall Reasons\n\n")
	b.WriteString(countTable("Reason", r.TopReasons, 0))
	b.WriteString("\n### Most Affected States\n\n")
	b.WriteString(countTable("State", r.States, 0))
}

func renderTrends(b *strings.Builder, t *ObesityTrends) {
	if t == nil || len(t.YearlyRates) == 0 {
		return
	}

	b.WriteString("\n## Detailed Obesity Analysis\n\n### Yearly Mean Rates\n\n")

	rows := make([][]string, 0, len(t.YearlyRates))
	for i, y := range t.YearlyRates {
		rows = append(rows, []string{
			fmt.Sprint(y.Year),
			optional(y.Value, "%.2f%%"),
			optional(t.YoYChanges[i].Value, "%+.2f%%"),
		})
	}

	b.WriteString(formatter.Table([]string{"Year", "Mean rate", "YoY change"}, rows))

	fmt.Fprintf(b, "\n\n### States with Highest Obesity Rates (%d)\n\n", t.LatestYear)
	b.WriteString(rateTable(t.Highest))
	fmt.Fprintf(b, "\n### States with Lowest Obesity Rates (%d)\n\n", t.LatestYear)
	b.WriteString(rateTable(t.Lowest))
}

// countTable renders counts, with each count's share of total when total is
// positive.
func countTable(label string, counts []Count, total int) string {
	header := []string{label, "Count"}
	if total > 0 {
		header = append(header, "Share")
	}

	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		row := []string{c.Label, integer(c.Count)}
		if total > 0 {
			row = append(row, fmt.Sprintf("%.1f%%", float64(c.Count)/float64(total)*100))
		}

		rows = append(rows, row)
	}

	return formatter.Table(header, rows) + "\n"
}

func rateTable(rates []LocationRate) string {
	rows := make([][]string, 0, len(rates))
	for _, r := range rates {
		rows = append(rows, []string{r.Location, fmt.Sprintf("%.1f%%", r.Rate)})
	}

	return formatter.Table([]string{"State", "Rate"}, rows) + "\n"
}

// String renders the range as "start - end", or n/a.
func (r *YearRange) String() string {
	if r == nil {
		return "n/a"
	}

	return fmt.Sprintf("%d - %d", r.Start, r.End)
}

// integer formats n with thousands separators.
func integer(n int) string {
	return message.NewPrinter(language.English).Sprintf("%d", n)
}

func optional(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}

	return fmt.Sprintf(format, *v)
}
