package normalizer

import (
	"html"
	"regexp"
	"strings"
)

const (
	bullet       = '•'
	enDash       = '–'
	emDash       = '—'
	diamond      = '♦'
	diamondsHTML = "&diams;"
	// enclosingCutset is stripped from both ends of a value. Single quotes
	// are only removed as a matched pair.
	enclosingCutset = "\" \t\r\n"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// Normalize cleans a free-text cell: enclosing quotes and whitespace are
// trimmed, markup tags are dropped, entities are decoded, non-portable
// characters become spaces and whitespace runs collapse to one space.
//
// An empty result means the value is missing. The cleanup is repeated until
// the text stops changing, so Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	current := text

	for {
		next := normalizeOnce(current)
		if next == current {
			return next
		}

		current = next
	}
}

func normalizeOnce(text string) string {
	text = trimEnclosing(text)
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, diamondsHTML, string(bullet))
	text = html.UnescapeString(text)
	text = tagPattern.ReplaceAllString(text, " ")
	text = strings.Map(portableRune, text)
	text = strings.Join(strings.Fields(text), " ")

	return trimEnclosing(text)
}

func trimEnclosing(text string) string {
	for {
		text = strings.Trim(text, enclosingCutset)
		if len(text) < 2 || text[0] != '\'' || text[len(text)-1] != '\'' {
			return text
		}

		text = text[1 : len(text)-1]
	}
}

// portableRune keeps printable 7-bit ASCII plus the bullet and dash
// allow-list; anything else becomes a space.
func portableRune(r rune) rune {
	switch {
	case r == diamond:
		return bullet
	case r == bullet, r == enDash, r == emDash:
		return r
	case r >= 0x20 && r <= 0x7e:
		return r
	default:
		return ' '
	}
}
