package normalizer

import (
	"strconv"
	"strings"
	"time"
)

// ISODate is the layout dates are written in.
const ISODate = "2006-01-02"

var dateLayouts = []string{
	"1/2/2006",
	"01/02/2006",
	ISODate,
	"2006/01/02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan. 2, 2006",
	"2006",
}

// ParseDate reads a calendar date from a free-text cell. Whole-cell layouts
// are tried first, then dates embedded in longer text. Dates outside the
// extractor's year range are rejected.
func (e *YearExtractor) ParseDate(text string) (time.Time, bool) {
	text = Normalize(text)
	if text == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return e.accept(t)
		}
	}

	if m := isoDate.FindStringSubmatch(text); m != nil {
		if t, ok := e.assemble(m[1], m[2], m[3]); ok {
			return t, true
		}
	}

	if m := localDate.FindStringSubmatch(text); m != nil {
		if t, ok := e.assemble(m[3], m[1], m[2]); ok {
			return t, true
		}
	}

	if m := longDate.FindStringSubmatch(text); m != nil {
		if month, ok := monthNumber(m[1]); ok {
			if t, ok := e.assemble(m[3], strconv.Itoa(month), m[2]); ok {
				return t, true
			}
		}
	}

	return time.Time{}, false
}

func (e *YearExtractor) accept(t time.Time) (time.Time, bool) {
	if !e.InRange(t.Year()) {
		return time.Time{}, false
	}

	return t, true
}

// assemble builds a date from digit groups, rejecting impossible days such as
// February 30 instead of letting time.Date roll them over.
func (e *YearExtractor) assemble(year, month, day string) (time.Time, bool) {
	y, errY := strconv.Atoi(year)
	m, errM := strconv.Atoi(month)
	d, errD := strconv.Atoi(day)

	if errY != nil || errM != nil || errD != nil || m < 1 || m > 12 || d < 1 {
		return time.Time{}, false
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, false
	}

	return e.accept(t)
}

func monthNumber(name string) (int, bool) {
	name = strings.ToLower(name)
	if len(name) < 3 {
		return 0, false
	}

	for m := time.January; m <= time.December; m++ {
		if strings.HasPrefix(strings.ToLower(m.String()), name[:3]) {
			return int(m), true
		}
	}

	return 0, false
}
