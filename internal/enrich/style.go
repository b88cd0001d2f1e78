package enrich

import (
	"regexp"
	"strings"
)

// bannedPrefixes are opening patterns that mark generated copy as
// machine-written. A line starting with any of these is a violation.
var bannedPrefixes = []string{
	"love how", "love that", "love your", "love ",
	"i noticed", "i saw", "i checked", "i came across", "i see",
	"impressive", "great to see", "congrats",
}

var (
	trailingRight = regexp.MustCompile(`,?\s*right\?\s*$`)
	trailingNo    = regexp.MustCompile(`,?\s*no\?\s*$`)
)

// CheckViolation returns the banned prefix the text starts with, or ""
// when the text is clean. Matching is case-insensitive.
func CheckViolation(text string) string {
	lowered := strings.ToLower(strings.TrimSpace(text))
	for _, p := range bannedPrefixes {
		if strings.HasPrefix(lowered, p) {
			return strings.TrimSpace(p)
		}
	}
	return ""
}

// Sanitize normalizes punctuation the style contract bans: em-dashes
// become commas or hyphens, and trailing tag questions become periods.
// It does not fix banned prefixes; those trigger regeneration instead.
func Sanitize(text string) string {
	s := text
	s = strings.ReplaceAll(s, " —", ",")
	s = strings.ReplaceAll(s, "— ", " ")
	s = strings.ReplaceAll(s, "—", " - ")
	s = trailingRight.ReplaceAllString(s, ".")
	s = trailingNo.ReplaceAllString(s, ".")
	return strings.TrimSpace(s)
}
