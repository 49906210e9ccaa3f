// Package filter strips UI chrome that renders inline with message text.
package filter

import (
	"regexp"
	"strings"
)

// noise is a denylist: message bodies have no predictable shape, so only
// short lines known to be controls or metadata are dropped.
var noise = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(copy|העתק|שתף|share|like|אהבתי|download|הורד|reply|השב)$`),
	regexp.MustCompile(`(?i)^\d+\s*(likes?|אהבות?)$`),
	regexp.MustCompile(`^(\d{1,2}:\d{2}|\d{1,2}:\d{2}:\d{2})$`),
	regexp.MustCompile(`(?i)^(today|היום|yesterday|אתמול)$`),
}

// FilterNoise drops blank lines and lines that, trimmed, are a UI action word,
// a likes count, a bare clock time or a relative date. Remaining lines keep
// their order and original spacing.
func FilterNoise(raw string) string {
	lines := strings.Split(raw, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if !IsNoise(line) {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// IsNoise reports whether FilterNoise would drop line.
func IsNoise(line string) bool {
	cleaned := strings.TrimSpace(line)
	if cleaned == "" {
		return true
	}
	for _, re := range noise {
		if re.MatchString(cleaned) {
			return true
		}
	}
	return false
}
