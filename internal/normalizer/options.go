package normalizer

import (
	"errors"
	"fmt"
)

// Option validation errors.
var (
	ErrInvalidYearRange   = errors.New("min_year must not exceed max_year")
	ErrNoticeNotMonotonic = errors.New("notice table must be monotonic")
	ErrEmptyCategoryLabel = errors.New("category label is required")
	ErrUnknownProfile     = errors.New("unknown extraction profile")
)

// Options declares one extraction variant. The processors share a single code
// path and differ only in these values.
type Options struct {
	NoticeTable   NoticeTable
	NoticeMarkers []string
	Categories    CategoryTable
	MinYear       int
	// MaxYear of zero means the current calendar year.
	MaxYear int
	// NoticeCeiling of zero means notice numbers are not capped.
	NoticeCeiling int
}

// Built-in profile names.
const (
	ProfileSubstances       = "substances"
	ProfileSubstancesLegacy = "substances-legacy"
)

// SubstancesOptions is the current processor variant.
func SubstancesOptions() Options {
	return Options{
		MinYear:       1990,
		NoticeCeiling: 50,
		NoticeTable:   CoarseNoticeTable,
		NoticeMarkers: []string{"GRN"},
		Categories:    TechnicalEffects,
	}
}

// LegacySubstancesOptions is the earlier processor variant with a 1900 floor
// and the fine-grained notice table.
func LegacySubstancesOptions() Options {
	return Options{
		MinYear:       1900,
		NoticeTable:   FineNoticeTable,
		NoticeMarkers: []string{"GRAS", "Notice", "GRN"},
		Categories:    TechnicalEffects,
	}
}

// Profile returns the built-in options registered under name.
func Profile(name string) (Options, error) {
	switch name {
	case ProfileSubstances, "":
		return SubstancesOptions(), nil
	case ProfileSubstancesLegacy:
		return LegacySubstancesOptions(), nil
	}

	return Options{}, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
}

// Validate checks the options for internal consistency.
func (o Options) Validate() error {
	if o.MaxYear != 0 && o.MinYear > o.MaxYear {
		return fmt.Errorf("%w: %d > %d", ErrInvalidYearRange, o.MinYear, o.MaxYear)
	}

	if !o.NoticeTable.Monotonic() {
		return ErrNoticeNotMonotonic
	}

	for i, c := range o.Categories {
		if c.Label == "" {
			return fmt.Errorf("%w: categories[%d]", ErrEmptyCategoryLabel, i)
		}
	}

	return nil
}
