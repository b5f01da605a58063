// Package tags discovers inline tag markers in diary text.
package tags

import (
	"strings"
	"unicode"

	"github.com/MrSnakeDoc/daylog/internal/domain"
)

// Marker starts a tag line.
const Marker = '#'

// SplitLines splits content into lines the same way everywhere a line
// number is produced or consumed. "\n" terminates a line and a trailing
// "\r" is dropped, so CRLF text numbers identically to LF text.
func SplitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Index returns the tag occurrences of content in ascending line order.
// A line is a tag line when, once trimmed, it starts with Marker directly
// followed by a non-whitespace token; the token is the tag name.
// Index never fails: text without markers yields an empty slice.
func Index(content string) []domain.TagOccurrence {
	occurrences := make([]domain.TagOccurrence, 0)
	if content == "" {
		return occurrences
	}

	for i, line := range SplitLines(content) {
		if name, ok := ParseTagLine(line); ok {
			occurrences = append(occurrences, domain.TagOccurrence{Name: name, Line: i})
		}
	}
	return occurrences
}

// ParseTagLine returns the tag name carried by line, if any.
func ParseTagLine(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 2 || trimmed[0] != Marker {
		return "", false
	}

	rest := trimmed[1:]
	end := strings.IndexFunc(rest, unicode.IsSpace)
	if end == 0 {
		// "# Heading" is markdown, not a tag
		return "", false
	}
	if end > 0 {
		rest = rest[:end]
	}
	return rest, true
}

// Spans turns the occurrences of one entry into body spans. Each span ends
// at the next occurrence's line, the last one at domain.EndOfContent.
func Spans(date domain.DateKey, occurrences []domain.TagOccurrence) []domain.TagSpan {
	spans := make([]domain.TagSpan, len(occurrences))
	for i, occ := range occurrences {
		next := domain.EndOfContent
		if i+1 < len(occurrences) {
			next = occurrences[i+1].Line
		}
		spans[i] = domain.TagSpan{Date: date, TagLine: occ.Line, NextTagLine: next}
	}
	return spans
}

// Slice returns the lines [startLine, endLine) of content joined by "\n".
// endLine may be domain.EndOfContent. Out-of-range bounds are clamped; a
// start beyond the content yields "".
func Slice(content string, startLine, endLine int) string {
	lines := SplitLines(content)
	if startLine < 0 {
		startLine = 0
	}
	if startLine >= len(lines) {
		return ""
	}
	if endLine == domain.EndOfContent || endLine > len(lines) {
		endLine = len(lines)
	}
	if endLine <= startLine {
		return ""
	}
	return strings.Join(lines[startLine:endLine], "\n")
}
