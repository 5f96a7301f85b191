package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const monthNames = `jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|` +
	`sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?`

var (
	isoDate   = regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
	localDate = regexp.MustCompile(`(\d{1,2})[-/](\d{1,2})[-/](\d{4})`)
	longDate  = regexp.MustCompile(`(?i)\b(` + monthNames + `)\.?\s+(\d{1,2}),?\s+(\d{4})`)
	bareYear  = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})(?:\D|$)`)
)

// YearExtractor pulls a plausible calendar year out of free text.
// It is safe for concurrent use once built.
type YearExtractor struct {
	opts   Options
	notice *regexp.Regexp
	now    func() time.Time
}

// NewYearExtractor builds an extractor for the given options.
func NewYearExtractor(opts Options) (*YearExtractor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	return &YearExtractor{
		opts:   opts,
		notice: noticeMarkerPattern(opts.NoticeMarkers),
		now:    time.Now,
	}, nil
}

func noticeMarkerPattern(markers []string) *regexp.Regexp {
	if len(markers) == 0 {
		return nil
	}

	quoted := make([]string, 0, len(markers))
	for _, m := range markers {
		if m = strings.TrimSpace(m); m != "" {
			quoted = append(quoted, regexp.QuoteMeta(m))
		}
	}

	if len(quoted) == 0 {
		return nil
	}

	return regexp.MustCompile(`(?i)(?:` + strings.Join(quoted, "|") + `)\D*(\d+)`)
}

// Bounds returns the inclusive year range the extractor accepts.
func (e *YearExtractor) Bounds() (int, int) {
	maxYear := e.opts.MaxYear
	if maxYear == 0 {
		maxYear = e.now().Year()
	}

	return e.opts.MinYear, maxYear
}

// InRange reports whether year lies within Bounds.
func (e *YearExtractor) InRange(year int) bool {
	lo, hi := e.Bounds()

	return year >= lo && year <= hi
}

// Extract returns the first in-range year found in text. Date shapes are
// tried before bare years, and GRAS notice numbers are mapped through the
// configured notice table as a last resort.
func (e *YearExtractor) Extract(text string) (int, bool) {
	text = Normalize(text)
	if text == "" || looksLikeIdentifier(text) {
		return 0, false
	}

	if m := isoDate.FindStringSubmatch(text); m != nil {
		if year, ok := e.direct(m[1]); ok {
			return year, true
		}
	}

	if m := localDate.FindStringSubmatch(text); m != nil {
		if year, ok := e.direct(m[3]); ok {
			return year, true
		}
	}

	if m := longDate.FindStringSubmatch(text); m != nil {
		if year, ok := e.direct(m[3]); ok {
			return year, true
		}
	}

	if m := bareYear.FindStringSubmatch(text); m != nil {
		if year, ok := e.direct(m[1]); ok {
			return year, true
		}
	}

	if e.notice != nil {
		if m := e.notice.FindStringSubmatch(text); m != nil {
			if year, ok := e.estimate(m[1]); ok {
				return year, true
			}
		}
	}

	if m := noticeFormula.FindStringSubmatch(text); m != nil {
		return e.estimate(m[1])
	}

	return 0, false
}

// EstimateFromNotice maps a GRAS notice number onto an approximate year.
func (e *YearExtractor) EstimateFromNotice(n int) (int, bool) {
	if n <= 0 {
		return 0, false
	}

	if e.opts.NoticeCeiling > 0 && n > e.opts.NoticeCeiling {
		return 0, false
	}

	year, ok := e.opts.NoticeTable.Year(n)
	if !ok || !e.InRange(year) {
		return 0, false
	}

	return year, true
}

func (e *YearExtractor) direct(digits string) (int, bool) {
	year, err := strconv.Atoi(digits)
	if err != nil || !e.InRange(year) {
		return 0, false
	}

	return year, true
}

func (e *YearExtractor) estimate(digits string) (int, bool) {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}

	return e.EstimateFromNotice(n)
}
