package authority

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var smallWords = map[string]bool{
	"of": true, "the": true, "and": true, "for": true, "in": true,
	"on": true, "at": true, "to": true, "by": true,
}

// TitleCase capitalizes each word of s, keeping small connecting words
// lower case after the first word. The result depends only on s.
func TitleCase(s string) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return s
	}
	caser := cases.Title(language.English)
	for i, w := range words {
		lower := strings.ToLower(w)
		if i > 0 && smallWords[lower] {
			words[i] = lower
			continue
		}
		words[i] = caser.String(lower)
	}
	return strings.Join(words, " ")
}

// Slug lower-cases s and joins its alphanumeric runs with hyphens.
func Slug(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
