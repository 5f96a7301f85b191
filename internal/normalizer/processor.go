// Package normalizer turns free-text source cells into validated values:
// cleaned text, CAS registry numbers, calendar years and canonical categories.
package normalizer

import (
	"fmt"
	"time"
)

// Processor bundles the extractors configured for one dataset profile.
type Processor struct {
	years        *YearExtractor
	standardizer *Standardizer
	responses    *Classifier
}

// NewProcessor creates a processor for opts.
func NewProcessor(opts Options) (*Processor, error) {
	years, err := NewYearExtractor(opts)
	if err != nil {
		return nil, fmt.Errorf("invalid extraction options: %w", err)
	}

	categories := opts.Categories
	if len(categories) == 0 {
		categories = TechnicalEffects
	}

	return &Processor{
		years:        years,
		standardizer: NewStandardizer(categories),
		responses:    NewClassifier(FDAResponses),
	}, nil
}

// Text normalizes a free-text cell.
func (p *Processor) Text(text string) string {
	return Normalize(text)
}

// Identifier validates a CAS registry number.
func (p *Processor) Identifier(text string) (string, bool) {
	return ValidateIdentifier(text)
}

// Year extracts a calendar year.
func (p *Processor) Year(text string) (int, bool) {
	return p.years.Extract(text)
}

// NoticeYear estimates the filing year of a GRAS notice number.
func (p *Processor) NoticeYear(n int) (int, bool) {
	return p.years.EstimateFromNotice(n)
}

// Date parses a calendar date.
func (p *Processor) Date(text string) (time.Time, bool) {
	return p.years.ParseDate(text)
}

// Categories standardizes a category description.
func (p *Processor) Categories(text string) []string {
	return p.standardizer.Standardize(text)
}

// Response classifies an FDA response letter.
func (p *Processor) Response(text string) string {
	return p.responses.Classify(text)
}

// Extractor exposes the underlying year extractor.
func (p *Processor) Extractor() *YearExtractor {
	return p.years
}
