package words

import (
	"strings"
	"unicode"
)

// Split breaks text into lines on "\n" and "\r\n", trims surrounding
// whitespace from every line and drops the empty ones. Order and duplicates
// are preserved. Split is idempotent:
//
//	Split(strings.Join(Split(s), "\n")) == Split(s)
func Split(text string) []string {
	lines := strings.Split(text, "\n")
	words := make([]string, 0, len(lines))
	for _, line := range lines {
		w := strings.TrimFunc(line, isSpace)
		if w == "" {
			continue
		}
		words = append(words, w)
	}
	return words
}

// isSpace matches the characters a browser's String.prototype.trim strips,
// which includes the byte order mark.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
