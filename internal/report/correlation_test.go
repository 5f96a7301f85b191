package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPearson_KnownValue(t *testing.T) {
	metric := map[int]float64{2001: 1, 2002: 2, 2003: 3, 2004: 4, 2005: 5, 1999: 9}
	obesity := map[int]float64{2001: 2, 2002: 4, 2003: 5, 2004: 4, 2005: 5, 2010: 40}

	c := Pearson(metric, obesity)

	require.NotNil(t, c.Coefficient)
	require.NotNil(t, c.PValue)
	assert.InDelta(t, 0.7745967, *c.Coefficient, 1e-6)
	assert.InDelta(t, 0.1240271, *c.PValue, 1e-5)
	assert.Equal(t, 5, c.YearsAnalyzed)
	assert.Equal(t, "2001-2005", c.YearRange)
}

func TestPearson_PerfectLine(t *testing.T) {
	c := Pearson(
		map[int]float64{1: 1, 2: 2, 3: 3, 4: 4},
		map[int]float64{1: 10, 2: 20, 3: 30, 4: 40},
	)

	require.NotNil(t, c.Coefficient)
	assert.InDelta(t, 1, *c.Coefficient, 1e-12)
	assert.Zero(t, *c.PValue)
}

func TestPearson_TwoYears(t *testing.T) {
	c := Pearson(map[int]float64{1: 1, 2: 3}, map[int]float64{1: 5, 2: 2})

	require.NotNil(t, c.PValue)
	assert.InDelta(t, -1, *c.Coefficient, 1e-12)
	assert.Equal(t, 1.0, *c.PValue)
}

func TestPearson_InsufficientData(t *testing.T) {
	c := Pearson(map[int]float64{2011: 3}, map[int]float64{2011: 30, 2012: 31})

	assert.Nil(t, c.Coefficient)
	assert.Nil(t, c.PValue)
	assert.Equal(t, 1, c.YearsAnalyzed)
	assert.Equal(t, InsufficientData, c.YearRange)
}

func TestPearson_ConstantSeries(t *testing.T) {
	c := Pearson(
		map[int]float64{1: 7, 2: 7, 3: 7},
		map[int]float64{1: 1, 2: 2, 3: 3},
	)

	assert.Nil(t, c.Coefficient)
	assert.NotEmpty(t, c.Note)
	assert.Equal(t, "1-3", c.YearRange)
}
