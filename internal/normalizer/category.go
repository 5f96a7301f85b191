package normalizer

import (
	"regexp"
	"slices"
	"strings"
)

// Category is one canonical label and the phrases that signal it.
type Category struct {
	Label    string   `yaml:"label"`
	Keywords []string `yaml:"keywords"`
}

// CategoryTable is an ordered list of categories. Order matters only for
// first-match classification.
type CategoryTable []Category

// TechnicalEffects groups FDA "used for" descriptions into broad effects.
var TechnicalEffects = CategoryTable{
	{Label: "FLAVOR", Keywords: []string{"FLAVORING AGENT", "FLAVOR ENHANCER", "FLAVORING"}},
	{Label: "PRESERVATIVE", Keywords: []string{"ANTIMICROBIAL", "PRESERVATIVE", "ANTIOXIDANT"}},
	{Label: "TEXTURE", Keywords: []string{"THICKENER", "EMULSIFIER", "STABILIZER", "TEXTURIZER"}},
	{Label: "COLOR", Keywords: []string{"COLOR", "COLORING", "COLORANT"}},
	{Label: "NUTRIENT", Keywords: []string{"NUTRIENT", "VITAMIN", "MINERAL", "SUPPLEMENT"}},
	{Label: "PROCESSING", Keywords: []string{"PROCESSING AID", "CATALYST", "ENZYME"}},
}

// FDA response labels that are not part of the table itself.
const (
	ResponseUnknown = "unknown"
	ResponseOther   = "other"
)

// FDAResponses classifies the closing letter of a GRAS notice.
var FDAResponses = CategoryTable{
	{Label: "no questions", Keywords: []string{"no questions", "no further questions", "fda has no questions"}},
	{Label: "insufficient basis", Keywords: []string{"insufficient basis", "insufficient information"}},
	{Label: "cease to evaluate", Keywords: []string{
		"cease", "ceased to evaluate", "stopped evaluation", "fda ceased to evaluate",
	}},
	{Label: "withdrawn", Keywords: []string{"withdraw", "withdrawn", "at the notifier's request"}},
	{Label: "pending", Keywords: []string{"pending", "under evaluation", "in progress"}},
}

// Labels returns the category labels in table order.
func (t CategoryTable) Labels() []string {
	labels := make([]string, 0, len(t))
	for _, c := range t {
		labels = append(labels, c.Label)
	}

	return labels
}

// Has reports whether label belongs to the table.
func (t CategoryTable) Has(label string) bool {
	for _, c := range t {
		if c.Label == label {
			return true
		}
	}

	return false
}

var punctuation = regexp.MustCompile(`[^A-Z0-9_\s]`)

// Standardizer maps free-text category descriptions onto canonical labels.
type Standardizer struct {
	table CategoryTable
}

// NewStandardizer returns a standardizer over table with upper-cased keywords.
func NewStandardizer(table CategoryTable) *Standardizer {
	upper := make(CategoryTable, 0, len(table))
	for _, c := range table {
		keywords := make([]string, 0, len(c.Keywords))
		for _, k := range c.Keywords {
			if k = canonicalPhrase(k); k != "" {
				keywords = append(keywords, k)
			}
		}

		upper = append(upper, Category{Label: c.Label, Keywords: keywords})
	}

	return &Standardizer{table: upper}
}

// Standardize returns every label with a keyword occurring in text, sorted.
// Missing text yields nil.
func (s *Standardizer) Standardize(text string) []string {
	text = canonicalPhrase(text)
	if text == "" {
		return nil
	}

	var labels []string

	for _, c := range s.table {
		for _, k := range c.Keywords {
			if strings.Contains(text, k) {
				labels = append(labels, c.Label)

				break
			}
		}
	}

	slices.Sort(labels)

	return slices.Compact(labels)
}

func canonicalPhrase(text string) string {
	text = strings.ToUpper(Normalize(text))
	text = punctuation.ReplaceAllString(text, " ")

	return strings.Join(strings.Fields(text), " ")
}

// Classifier assigns a single label: the first category, in table order,
// with a keyword found in the text.
type Classifier struct {
	table CategoryTable
}

// NewClassifier returns a first-match classifier over table.
func NewClassifier(table CategoryTable) *Classifier {
	return &Classifier{table: table}
}

// Classify returns ResponseUnknown for missing text and ResponseOther when
// no keyword matches.
func (c *Classifier) Classify(text string) string {
	text = strings.ToLower(Normalize(text))
	if text == "" {
		return ResponseUnknown
	}

	for _, cat := range c.table {
		for _, k := range cat.Keywords {
			if strings.Contains(text, strings.ToLower(k)) {
				return cat.Label
			}
		}
	}

	return ResponseOther
}
