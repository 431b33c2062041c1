package parser

import (
	"strings"
	"unicode/utf8"
)

const byteOrderMark = "\uFEFF"

// Normalize decodes raw file bytes into text that can be stored as-is:
// invalid UTF-8 sequences become U+FFFD, NUL bytes are dropped and a
// leading byte order mark is removed.
func Normalize(data []byte) string {
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	text = strings.ReplaceAll(text, "\x00", "")
	return strings.TrimPrefix(text, byteOrderMark)
}

// SplitLines splits text on LF or CRLF. Lines are returned untrimmed.
func SplitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// lookahead returns the first n non-empty lines, trimmed
func lookahead(lines []string, n int) []string {
	out := make([]string, 0, n)
	for _, raw := range lines {
		if t := strings.TrimSpace(raw); t != "" {
			out = append(out, t)
		}
		if len(out) >= n {
			break
		}
	}
	return out
}

// skipLeadingBlank drops blank lines ahead of the first non-blank one
func skipLeadingBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	return lines
}
