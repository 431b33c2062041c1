package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var rowPattern = regexp.MustCompile(`^\s*(\d+)\s*\|(.*)$`)

// Entry is one pipe-delimited check-in row
type Entry struct {
	RowNumber *int     `json:"row_number"`
	Callsign  *string  `json:"callsign"`
	Comment   *string  `json:"comment"`
	Tags      []string `json:"tags"`
	Tokens    []string `json:"tokens"`
	RawLine   string   `json:"raw_line"`
}

// IsRow reports whether line is a "n|CALLSIGN|..." check-in row
func IsRow(line string) bool {
	return rowPattern.MatchString(line)
}

// ExtractEntry parses a check-in row. It reports false for titles, notes
// and anything else that does not start with a row number and a pipe.
func ExtractEntry(line string) (Entry, bool) {
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	if line == "" {
		return Entry{}, false
	}
	m := rowPattern.FindStringSubmatch(line)
	if m == nil {
		return Entry{}, false
	}

	e := Entry{RawLine: line}
	// Digit runs too long for an int leave the row number unset
	if n, err := strconv.Atoi(m[1]); err == nil {
		e.RowNumber = &n
	}

	parts := strings.Split(m[2], "|")
	if cs := strings.TrimSpace(parts[0]); cs != "" {
		e.Callsign = &cs
	}
	e.Tokens = make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		e.Tokens = append(e.Tokens, strings.TrimSpace(p))
	}
	e.Comment, e.Tags = commentAndTags(e.Tokens)
	return e, true
}

// commentAndTags classifies fully parenthesized tokens as tags and picks
// the longest remaining token containing a letter as the comment.
// Ties go to the earlier token.
func commentAndTags(tokens []string) (*string, []string) {
	tags := []string{}
	var comment string
	found := false
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if isTag(tok) {
			tags = append(tags, tok)
			continue
		}
		if !hasLetter(tok) {
			continue
		}
		if !found || utf8.RuneCountInString(tok) > utf8.RuneCountInString(comment) {
			comment = tok
			found = true
		}
	}
	if !found {
		return nil, tags
	}
	return &comment, tags
}

func isTag(tok string) bool {
	return len(tok) >= 2 && strings.HasPrefix(tok, "(") && strings.HasSuffix(tok, ")")
}

func hasLetter(tok string) bool {
	return strings.IndexFunc(tok, unicode.IsLetter) >= 0
}
