package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcile(t *testing.T) {
	year, ok := Reconcile(0, 0, 2005, 1999)
	assert.True(t, ok)
	assert.Equal(t, 2005, year)

	year, ok = Reconcile(0, 0)
	assert.False(t, ok)
	assert.Zero(t, year)

	_, ok = Reconcile[int]()
	assert.False(t, ok)

	s, ok := Reconcile("", "b", "c")
	assert.True(t, ok)
	assert.Equal(t, "b", s)
}

func TestReconcileFrom(t *testing.T) {
	got, ok := ReconcileFrom(
		Candidate[int]{Source: "gras_pub_no", Value: 0},
		Candidate[int]{Source: "reg_administrative", Value: 2005},
		Candidate[int]{Source: "regs_labeling_&_standards", Value: 1999},
	)
	assert.True(t, ok)
	assert.Equal(t, "reg_administrative", got.Source)
	assert.Equal(t, 2005, got.Value)

	got, ok = ReconcileFrom(Candidate[int]{Source: "a"})
	assert.False(t, ok)
	assert.Empty(t, got.Source)
}
