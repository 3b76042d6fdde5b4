// CLAUDE:SUMMARY Comparison-key normalization (NFD accent stripping, lowercase, whitespace folding) for course names.
package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeKey derives the comparison key for a course name: accents stripped
// (e.g. Estadística -> estadistica), lowercased, trimmed, inner whitespace
// collapsed to single spaces. Idempotent; empty or whitespace-only input maps
// to the empty string.
func NormalizeKey(s string) string {
	result, _, _ := transform.String(stripAccents, strings.ToLower(s))
	return strings.Join(strings.Fields(result), " ")
}
