// Package normalize turns voice-spelled input into canonical values and back
// into unambiguous spoken read-backs. Everything here is pure and deterministic.
package normalize

import (
	"regexp"
	"strings"
)

var (
	fillerWords = regexp.MustCompile(`\b(um|uh|like|so)\b`)
	atSign      = regexp.MustCompile(`\bat\s*sign\b`)
	spokenAt    = regexp.MustCompile(`\s+at\s+`)
	spokenDot   = regexp.MustCompile(`\b(dot|period)\s+`)
	spokenDash  = regexp.MustCompile(`\b(dash|hyphen)\b`)
	underscore  = regexp.MustCompile(`\bunderscore\b`)
	whitespace  = regexp.MustCompile(`\s+`)

	emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// SpokenEmail reconstructs an email address from speech-to-text output such as
// "b r i a n at y a h o o dot c o m". The result is not guaranteed to be valid;
// check it with ValidEmail.
func SpokenEmail(spoken string) string {
	text := strings.ToLower(strings.TrimSpace(spoken))
	text = fillerWords.ReplaceAllString(text, "")
	text = atSign.ReplaceAllString(text, "@")
	text = spokenAt.ReplaceAllString(text, "@")
	text = spokenDot.ReplaceAllString(text, ".")
	text = spokenDash.ReplaceAllString(text, "-")
	text = underscore.ReplaceAllString(text, "_")
	return whitespace.ReplaceAllString(text, "")
}

// ValidEmail reports whether s has the local@domain.tld shape: exactly one '@',
// no whitespace, and at least one dot in the domain.
func ValidEmail(s string) bool {
	return emailShape.MatchString(s)
}
