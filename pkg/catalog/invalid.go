// CLAUDE:SUMMARY Placeholder/sentinel course-name detection so junk input never creates catalog entities.
package catalog

import (
	"regexp"
	"strings"
)

// Placeholder values the review site emits when a student left the course
// field blank or the content was withheld. These must never reach the fuzzy
// matcher nor create a course entity.
var sentinelNames = map[string]struct{}{
	"-":     {},
	"--":    {},
	"---":   {},
	"-----": {},
	"...":   {},
	"0":     {},
	"n/a":   {},
	"n.a.":  {},
	"na":    {},
	"x":     {},
}

var sentinelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[-_.·*]+$`),  // runs of filler punctuation
	regexp.MustCompile(`^[0-9]+$`),    // bare numbers
	regexp.MustCompile(`^\?+$`),       // question marks
	regexp.MustCompile(`^(?i)ningun[oa]?$`),
}

// IsSentinel reports whether name is a placeholder rather than a course name.
// Empty and whitespace-only strings are sentinels.
func IsSentinel(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return true
	}
	if _, ok := sentinelNames[strings.ToLower(trimmed)]; ok {
		return true
	}
	for _, re := range sentinelPatterns {
		if re.MatchString(trimmed) {
			return true
		}
	}
	return false
}
