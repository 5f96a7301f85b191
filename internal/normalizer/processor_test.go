package normalizer

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProcessor(t *testing.T) {
	p, err := NewProcessor(SubstancesOptions())
	require.NoError(t, err)
	require.NotNil(t, p)

	cas, ok := p.Identifier("7732-18-5")
	assert.True(t, ok)
	assert.Equal(t, "7732-18-5", cas)

	year, ok := p.Year("2019-06-01")
	assert.True(t, ok)
	assert.Equal(t, 2019, year)

	assert.Equal(t, []string{"FLAVOR", "PRESERVATIVE"}, p.Categories("FLAVORING AGENT, PRESERVATIVE"))
	assert.Equal(t, "no questions", p.Response("FDA has no questions"))
	assert.Equal(t, "Salt & pepper", p.Text(" Salt &amp; pepper "))
}

func TestNewProcessor_DefaultCategories(t *testing.T) {
	opts := SubstancesOptions()
	opts.Categories = nil

	p, err := NewProcessor(opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"TEXTURE"}, p.Categories("stabilizer"))
}

func TestNewProcessor_InvalidOptions(t *testing.T) {
	_, err := NewProcessor(Options{MinYear: 2020, MaxYear: 2000})
	assert.ErrorIs(t, err, ErrInvalidYearRange)
}

func TestProcessor_CleanedValuesRevalidate(t *testing.T) {
	p, err := NewProcessor(SubstancesOptions())
	require.NoError(t, err)

	for _, in := range []string{"2019-06-01", "GRN 30", "Published 2003"} {
		year, ok := p.Year(in)
		require.True(t, ok, "input %q", in)

		again, ok := p.Year(strconv.Itoa(year))
		assert.True(t, ok)
		assert.Equal(t, year, again)
	}

	text := p.Text("<b>x</b> &amp; y")
	assert.Equal(t, text, p.Text(text))
}
