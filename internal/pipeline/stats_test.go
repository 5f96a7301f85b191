package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStats_Merge(t *testing.T) {
	a := NewStats("fda")
	a.Total = 2
	a.Check(FieldCASRegNo, true)
	a.Check(FieldCASRegNo, false)
	a.AddCategories("FLAVOR", "COLOR")
	a.AddSource("gras_pub_no")

	b := NewStats("fda")
	b.Total = 2
	b.Skipped = 1
	b.Check(FieldCASRegNo, true)
	b.AddCategories("FLAVOR")
	b.AddSource("")

	a.Merge(b)
	a.Merge(nil)

	assert.Equal(t, 4, a.Total)
	assert.Equal(t, 1, a.Skipped)
	assert.Equal(t, 2, a.Valid[FieldCASRegNo])
	assert.Equal(t, map[string]int{"FLAVOR": 2, "COLOR": 1}, a.Categories)
	assert.Equal(t, map[string]int{"gras_pub_no": 1}, a.Sources)
	assert.InDelta(t, 50.0, a.Rate(FieldCASRegNo), 1e-9)
}

func TestStats_RateEmpty(t *testing.T) {
	assert.Zero(t, NewStats("who").Rate(FieldYear))
}

func TestStats_Counts(t *testing.T) {
	s := NewStats("fsis")
	s.Total = 3
	s.Filtered = 2
	s.Check(FieldRecallDate, true)

	c := s.Counts()
	assert.Equal(t, "fsis", c.Dataset)
	assert.Equal(t, 3, c.Total)
	assert.Equal(t, 2, c.Filtered)
	assert.Equal(t, 1, c.Valid[FieldRecallDate])

	c.Valid[FieldRecallDate] = 99
	assert.Equal(t, 1, s.Valid[FieldRecallDate], "counts must not alias the accumulator")
}
