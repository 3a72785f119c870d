package helpers

import (
	"regexp"
	"strings"
	"unicode"
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a display name into a document key: lowercase, runs of anything
// that is not a-z or 0-9 collapsed to one hyphen, no leading or trailing hyphens.
func Slugify(value string) string {
	s := strings.ToLower(strings.TrimSpace(value))
	s = nonSlugRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// TitleCase lowercases value and capitalizes the first letter of each word,
// where words start after whitespace or a hyphen.
func TitleCase(value string) string {
	return capitalizeWords(strings.ToLower(strings.TrimSpace(value)))
}

// CapitalizeWords is TitleCase without the lowercasing, for echoing user input back.
func CapitalizeWords(value string) string {
	return capitalizeWords(strings.TrimSpace(value))
}

func capitalizeWords(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	atStart := true
	for _, r := range s {
		if atStart && !unicode.IsSpace(r) {
			b.WriteRune(unicode.ToUpper(r))
			atStart = r == '-'
			continue
		}
		b.WriteRune(r)
		atStart = unicode.IsSpace(r) || r == '-'
	}
	return b.String()
}

// NameFromSlug rebuilds a readable name for records stored without one.
func NameFromSlug(id string) string {
	return TitleCase(strings.ReplaceAll(id, "-", " "))
}
