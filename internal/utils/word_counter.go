package utils

import (
	"strings"
	"unicode"
)

// CountWords counts the words of a markdown body, ignoring fenced code and
// markup characters.
func CountWords(markdown string) int {
	count := 0
	inFence := false
	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		for _, field := range strings.Fields(trimmed) {
			if strings.IndexFunc(field, isWordRune) >= 0 {
				count++
			}
		}
	}
	return count
}

// a token of markup only (#, -, *, >, |) is not a word
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
