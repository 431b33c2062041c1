// Package parser turns free-form net log text into a typed header and an
// ordered list of check-in entries.
//
// Logs look roughly like:
//
//	TCARES Training Net 07/27/25
//	Start time: 1900 CST
//	Stop: 1939
//	Duration: 39 mins.
//	1|N0CALL|Net Control|(NCS)
//	2|W1ABC|Mobile
//
// but nothing about the layout is fixed. Extraction is best effort: lines
// that do not look like a row are skipped and header values that cannot be
// read are left unset.
package parser

// Log is the result of parsing one file
type Log struct {
	Header  Header  `json:"header"`
	Entries []Entry `json:"entries"`
}

// Parse extracts the header and every check-in row from text. It is a pure
// function of its input.
func Parse(text string) Log {
	lines := SplitLines(text)
	hdr := ExtractHeader(lines)
	lines = skipLeadingBlank(lines)

	entries := []Entry{}
	for _, line := range lines {
		if e, ok := ExtractEntry(line); ok {
			entries = append(entries, e)
		}
	}
	return Log{Header: hdr, Entries: entries}
}

// ParseBytes normalizes raw file bytes and parses them
func ParseBytes(data []byte) Log {
	return Parse(Normalize(data))
}
