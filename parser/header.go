package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// HeaderLookahead is how many non-empty lines are scanned for header fields
const HeaderLookahead = 10

var (
	startPattern    = regexp.MustCompile(`(?i)\bstart(?:\s*time)?\b[^0-9]*([0-9][0-9:]*)`)
	stopPattern     = regexp.MustCompile(`(?i)\b(?:stop|end)(?:\s*time)?\b[^0-9]*([0-9][0-9:]*)`)
	durationPattern = regexp.MustCompile(`(?i)duration[:\s]*([0-9]{1,3})\s*min`)
)

// Header is the metadata block that precedes the entry rows.
// A nil field was not found or did not pass validation.
type Header struct {
	SessionDate *string `json:"session_date"`
	Start       *string `json:"start"`
	Stop        *string `json:"stop"`
	Duration    *int    `json:"duration"`
}

// ExtractHeader scans the leading lines of a file for the session date,
// start and stop times and the duration. Each field is filled by the first
// line that yields a usable value; a line may fill several fields.
func ExtractHeader(lines []string) Header {
	var hdr Header
	candidates := lookahead(lines, HeaderLookahead)

	for _, line := range candidates {
		if iso, ok := findDate(line); ok {
			hdr.SessionDate = &iso
			break
		}
	}
	if hdr.SessionDate == nil && len(lines) > 0 {
		first := strings.TrimSpace(lines[0])
		if dateOnly.MatchString(first) {
			if iso, ok := findDate(first); ok {
				hdr.SessionDate = &iso
			}
		}
	}

	for _, line := range candidates {
		if hdr.Start == nil {
			hdr.Start = clockAfter(startPattern, line)
		}
		if hdr.Stop == nil {
			hdr.Stop = clockAfter(stopPattern, line)
		}
		if hdr.Duration == nil {
			hdr.Duration = minutesIn(line)
		}
	}
	return hdr
}

// clockAfter returns the first keyword capture on line that is a valid clock.
// "Start Date: 07/27/25 Start Time: 1900" yields 19:00:00.
func clockAfter(re *regexp.Regexp, line string) *string {
	for _, m := range re.FindAllStringSubmatch(line, -1) {
		if clock, ok := NormalizeClock(m[1]); ok {
			return &clock
		}
	}
	return nil
}

func minutesIn(line string) *int {
	m := durationPattern.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}
