package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var slugInvalid = regexp.MustCompile(`[^a-z0-9äö]+`)

// Slugify derives the artifact identifier for a title. The title is NFC
// normalized and lowercased, runs of characters outside [a-z0-9äö] become a
// single dash, and leading or trailing dashes are trimmed. An empty result
// means the title has no usable characters.
func Slugify(title string) string {
	lowered := strings.ToLower(norm.NFC.String(strings.TrimSpace(title)))
	return strings.Trim(slugInvalid.ReplaceAllString(lowered, "-"), "-")
}

// FirstWords returns the first n whitespace separated words of text joined by
// single spaces, with "..." appended when words were dropped.
func FirstWords(text string, n int) string {
	if n <= 0 {
		return ""
	}
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "..."
}
