package output

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars = regexp.MustCompile(`[^\w\s-]`)
	slugSeps     = regexp.MustCompile(`[-\s]+`)
	asciiFold    = transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
)

// Slugify lower-cases value, drops anything that is not a word character,
// space or hyphen, and collapses runs of spaces and hyphens into one hyphen.
// Non-ASCII letters are folded to their base form where one exists.
func Slugify(value string) string {
	folded, _, err := transform.String(asciiFold, value)
	if err != nil {
		folded = value
	}
	s := nonSlugChars.ReplaceAllString(strings.ToLower(folded), "")
	s = slugSeps.ReplaceAllString(s, "-")
	return strings.Trim(s, "-_")
}
