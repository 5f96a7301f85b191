package normalizer

import (
	"regexp"
	"strings"
)

// identifierPattern locates a registry number (CAS shape) anywhere in a cell.
var identifierPattern = regexp.MustCompile(`(\d+)-(\d{2})-(\d)`)

// identifierShape matches cells that consist of an identifier and nothing else.
var identifierShape = regexp.MustCompile(`^\d+-\d{2}-\d$`)

// ValidateIdentifier extracts a CAS registry number from free text and checks
// its check digit. It returns the canonical base-branch-check form, or false
// when no structurally and numerically valid identifier is present.
func ValidateIdentifier(text string) (string, bool) {
	text = Normalize(text)
	if text == "" {
		return "", false
	}

	match := identifierPattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}

	base, branch, check := match[1], match[2], match[3]

	if Checksum(base+branch) != int(check[0]-'0') {
		return "", false
	}

	return strings.Join([]string{base, branch, check}, "-"), true
}

// Checksum computes the CAS check digit for the concatenated base and branch
// digits: the rightmost digit has weight 1, the next weight 2, and so on.
// Non-digit runes are ignored.
func Checksum(digits string) int {
	total := 0
	weight := 1

	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			continue
		}

		total += int(c-'0') * weight
		weight++
	}

	return total % 10
}

// looksLikeIdentifier reports whether the whole cell has identifier shape.
func looksLikeIdentifier(text string) bool {
	return identifierShape.MatchString(text)
}
