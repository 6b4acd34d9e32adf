// Package placeholder finds {{token}} substitution markers. They are filled
// in by the recipient-facing renderer; giftwise only shows them.
package placeholder

import "regexp"

var pattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// Segment is a run of literal text or a single placeholder.
type Segment struct {
	Text        string // the literal text, or the full marker for a placeholder
	Token       string // set for placeholders only
	Placeholder bool
}

// Find returns the distinct tokens in text in order of first appearance.
func Find(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range pattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Split cuts text into literal and placeholder segments.
func Split(text string) []Segment {
	var out []Segment
	last := 0
	for _, loc := range pattern.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			out = append(out, Segment{Text: text[last:loc[0]]})
		}
		out = append(out, Segment{Text: text[loc[0]:loc[1]], Token: text[loc[2]:loc[3]], Placeholder: true})
		last = loc[1]
	}
	if last < len(text) {
		out = append(out, Segment{Text: text[last:]})
	}
	return out
}

// Contains reports whether s holds at least one marker.
func Contains(s string) bool { return pattern.MatchString(s) }

// ReplaceFunc rewrites every marker with fn(marker, token).
func ReplaceFunc(text string, fn func(marker, token string) string) string {
	return pattern.ReplaceAllStringFunc(text, func(m string) string {
		return fn(m, pattern.FindStringSubmatch(m)[1])
	})
}
