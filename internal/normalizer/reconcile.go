package normalizer

// Reconcile returns the first candidate that is not the zero value.
// Candidates are consulted in the order given.
func Reconcile[T comparable](candidates ...T) (T, bool) {
	var zero T

	for _, c := range candidates {
		if c != zero {
			return c, true
		}
	}

	return zero, false
}

// Candidate is a value tagged with the source it was derived from.
type Candidate[T comparable] struct {
	Source string
	Value  T
}

// ReconcileFrom is Reconcile that also reports which source won.
func ReconcileFrom[T comparable](candidates ...Candidate[T]) (Candidate[T], bool) {
	var zero T

	for _, c := range candidates {
		if c.Value != zero {
			return c, true
		}
	}

	return Candidate[T]{}, false
}
