package report

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// InsufficientData is the year range reported when fewer than two years
// overlap.
const InsufficientData = "Insufficient data for correlation"

// Correlation is a Pearson correlation between a yearly metric and the mean
// obesity rate over the years both series cover.
type Correlation struct {
	Coefficient   *float64 `json:"correlation"`
	PValue        *float64 `json:"p_value"`
	YearRange     string   `json:"year_range"`
	Note          string   `json:"note,omitempty"`
	YearsAnalyzed int      `json:"years_analyzed"`
}

// Pearson correlates metric with obesity over their common years. The
// p-value is two-sided.
func Pearson(metric, obesity map[int]float64) Correlation {
	var years []int

	for _, y := range slices.Sorted(maps.Keys(metric)) {
		if _, ok := obesity[y]; ok {
			years = append(years, y)
		}
	}

	c := Correlation{YearsAnalyzed: len(years)}
	if len(years) < 2 {
		c.YearRange = InsufficientData

		return c
	}

	c.YearRange = fmt.Sprintf("%d-%d", years[0], years[len(years)-1])

	x := make([]float64, len(years))
	y := make([]float64, len(years))

	for i, yr := range years {
		x[i] = metric[yr]
		y[i] = obesity[yr]
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		c.Note = "constant series"

		return c
	}

	p := pValue(r, len(years))
	c.Coefficient = &r
	c.PValue = &p

	return c
}

func pValue(r float64, n int) float64 {
	if n <= 2 {
		return 1
	}

	if math.Abs(r) >= 1 {
		return 0
	}

	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))

	return 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))
}
