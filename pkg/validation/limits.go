package validation

import (
	"fmt"
	"unicode/utf8"
)

// CharacterLimits caps free-text fields of the landing page and VCard.
var CharacterLimits = struct {
	Headline    int
	Description int
	AlertText   int
}{
	Headline:    120,
	Description: 500,
	AlertText:   40,
}

// Truncate cuts s to at most limit runes. It is applied on input, so a value
// stored through it never exceeds the cap.
func Truncate(s string, limit int) string {
	if limit < 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// MaxLength is the redundant message path for capped fields.
func MaxLength(label, s string, limit int) string {
	if utf8.RuneCountInString(s) > limit {
		return fmt.Sprintf("%s must be %d characters or less", label, limit)
	}
	return ""
}
