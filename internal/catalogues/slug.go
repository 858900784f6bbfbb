package catalogues

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Slugify lowercases the name and collapses everything outside [a-z0-9] into
// single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r) && r < 128:
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// slugWithSuffix appends a short random suffix to dodge a slug collision.
func slugWithSuffix(slug string) string {
	return slug + "-" + uuid.NewString()[:8]
}
