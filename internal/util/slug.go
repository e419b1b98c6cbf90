package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify converts a title into a URL-safe slug: lowercased, accents
// folded to their base letters, punctuation stripped, whitespace
// collapsed into single hyphens. The result only ever contains
// [a-z0-9_-].
func Slugify(input string) string {
	lowered := strings.ToLower(strings.TrimSpace(input))
	// NFKD splits accented letters into base letter plus combining
	// marks; the marks fall outside the allowed set and drop out below.
	folded := norm.NFKD.String(lowered)

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	slug := strings.Join(fields, "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}

// SafeFilename strips characters that are unsafe in object keys and file
// names, keeping word characters, dots and hyphens.
func SafeFilename(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}
