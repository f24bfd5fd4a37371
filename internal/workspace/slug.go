package workspace

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fallbackSlug is used when a name has no alphanumeric characters.
const fallbackSlug = "workspace"

// Slugify lower-cases name, strips diacritics and collapses every run of
// non-alphanumeric characters to a single dash.
func Slugify(name string) string {
	stripped, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), name)
	if err != nil {
		stripped = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(stripped) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// NewSlug returns a unique workspace slug for name: the slugified name (or
// "workspace") followed by the first 8 characters of a random UUID.
func NewSlug(name string) string {
	base := Slugify(name)
	if base == "" {
		base = fallbackSlug
	}
	return base + "-" + uuid.NewString()[:8]
}
