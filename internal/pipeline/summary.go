package pipeline

import (
	"maps"
	"math"
	"slices"

	"healthetl/internal/models"
)

// SummarizeYears counts approvals per year with running totals and the
// percentage change of the running total. Unknown years (zero) are ignored.
// When from and to are both set, every year in [from, to] gets a line and
// years outside the range are dropped; otherwise only observed years appear.
func SummarizeYears(years []int, from, to int) []models.YearSummary {
	counts := make(map[int]int)

	for _, y := range years {
		if y != 0 {
			counts[y]++
		}
	}

	var span []int

	if from != 0 && to != 0 {
		for y := from; y <= to; y++ {
			span = append(span, y)
		}
	} else {
		span = slices.Sorted(maps.Keys(counts))
	}

	out := make([]models.YearSummary, 0, len(span))
	cumulative := 0

	for i, y := range span {
		prev := cumulative
		cumulative += counts[y]

		line := models.YearSummary{Year: y, NewApprovals: counts[y], Cumulative: cumulative}
		if i > 0 {
			line.PctChange = pctChange(prev, cumulative)
		}

		out = append(out, line)
	}

	return out
}

func pctChange(prev, cur int) models.Number {
	if prev == 0 {
		return models.Number{}
	}

	v := float64(cur-prev) / float64(prev) * 100
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return models.Number{}
	}

	return models.Number{Value: v, Valid: true}
}
