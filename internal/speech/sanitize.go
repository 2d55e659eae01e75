package speech

import (
	"regexp"
	"strings"
)

var (
	citationPattern = regexp.MustCompile(`\[\d+\]`)
	headingPattern  = regexp.MustCompile(`#+`)
)

// sanitizeText strips markup noise that reads badly when spoken. Grounded
// model output leaks citation markers, emphasis asterisks and heading hashes
// even with markdown disabled in the persona wrapper. Text that sanitizes to
// empty is passed through; the provider decides validity.
func sanitizeText(raw string) string {
	raw = citationPattern.ReplaceAllString(raw, "")
	raw = strings.ReplaceAll(raw, "*", "")
	raw = headingPattern.ReplaceAllString(raw, "")
	return strings.TrimSpace(raw)
}
