package feed

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	whitespacePattern = regexp.MustCompile(`[\s\p{Z}]+`)
	noisePattern      = regexp.MustCompile(`(?i)Advertisement|Subscribe|Newsletter`)
	stripPolicy       = bluemonday.StrictPolicy()
)

// CleanText collapses whitespace runs to a single space, drops the
// Advertisement/Subscribe/Newsletter noise words and trims the result.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = whitespacePattern.ReplaceAllString(text, " ")
	text = noisePattern.ReplaceAllString(text, "")

	return strings.TrimSpace(text)
}

// StripTags removes all markup from s and decodes entities.
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	return html.UnescapeString(stripPolicy.Sanitize(s))
}
