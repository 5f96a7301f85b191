package normalizer

import (
	"regexp"
	"strconv"
)

// NoticeStep maps notice numbers up to UpTo onto years:
// BaseYear + (n - Offset) / PerYear, never earlier than MinYear. A step with
// UpTo == 0 is open-ended and must be the last one in a table.
type NoticeStep struct {
	UpTo     int `yaml:"up_to"`
	BaseYear int `yaml:"base_year"`
	Offset   int `yaml:"offset"`
	PerYear  int `yaml:"per_year"`
	MinYear  int `yaml:"min_year"`
}

// NoticeTable is a monotonic step function from GRAS notice numbers to the
// approximate year they were filed. It is a heuristic, not a filing date.
type NoticeTable []NoticeStep

// CoarseNoticeTable covers the first fifty notices only and keeps every
// marker within 1990-1997.
var CoarseNoticeTable = NoticeTable{
	{UpTo: 25, BaseYear: 1990, Offset: 0, PerYear: 5},
	{UpTo: 50, BaseYear: 1995, Offset: 25, PerYear: 10},
}

// FineNoticeTable follows the filing velocity of the whole inventory. The
// steps at 51, 401 and 501 restart below the year reached by the previous
// step, so MinYear holds them at that year.
var FineNoticeTable = NoticeTable{
	{UpTo: 25, BaseYear: 1990, Offset: 0, PerYear: 5},
	{UpTo: 50, BaseYear: 1997, Offset: 25, PerYear: 5},
	{UpTo: 100, BaseYear: 2000, Offset: 50, PerYear: 10, MinYear: 2002},
	{UpTo: 200, BaseYear: 2005, Offset: 100, PerYear: 20},
	{UpTo: 300, BaseYear: 2010, Offset: 200, PerYear: 20},
	{UpTo: 400, BaseYear: 2015, Offset: 300, PerYear: 20},
	{UpTo: 500, BaseYear: 2018, Offset: 400, PerYear: 25, MinYear: 2020},
	{UpTo: 0, BaseYear: 2020, Offset: 500, PerYear: 50, MinYear: 2022},
}

// NoticeTables lists the built-in tables by name.
var NoticeTables = map[string]NoticeTable{
	"coarse": CoarseNoticeTable,
	"fine":   FineNoticeTable,
}

// Year returns the approximate year for a notice number.
func (t NoticeTable) Year(n int) (int, bool) {
	if n < 0 {
		return 0, false
	}

	for _, step := range t {
		if step.UpTo != 0 && n > step.UpTo {
			continue
		}

		perYear := step.PerYear
		if perYear < 1 {
			perYear = 1
		}

		delta := n - step.Offset
		if delta < 0 {
			delta = 0
		}

		return max(step.BaseYear+delta/perYear, step.MinYear), true
	}

	return 0, false
}

// Monotonic reports whether the table never maps a larger notice number to
// an earlier year.
func (t NoticeTable) Monotonic() bool {
	limit := 0
	for _, step := range t {
		limit = max(limit, step.UpTo)
	}

	prev := -1

	for n := 0; n <= limit+100; n++ {
		year, ok := t.Year(n)
		if !ok {
			continue
		}

		if year < prev {
			return false
		}

		prev = year
	}

	return true
}

const (
	// MinNoticeNumber and MaxNoticeNumber bound accepted GRN numbers.
	MinNoticeNumber = 1
	MaxNoticeNumber = 1500
)

var (
	noticeFormula = regexp.MustCompile(`=T\("(\d+)"\)`)
	noticeNumber  = regexp.MustCompile(`(?i)(?:GRN\s*)?(\d+)`)
)

// ParseNoticeNumber extracts a GRAS notice number from a cell holding either
// a spreadsheet formula (=T("123")), a "GRN 123" label or a plain number.
func ParseNoticeNumber(text string) (int, bool) {
	text = Normalize(text)
	if text == "" {
		return 0, false
	}

	if m := noticeFormula.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])

		return n, err == nil
	}

	m := noticeNumber.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil || n < MinNoticeNumber || n > MaxNoticeNumber {
		return 0, false
	}

	return n, true
}
