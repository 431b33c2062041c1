package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical session date form
const DateLayout = "2006-01-02"

var (
	dateInText = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})\b`)
	dateOnly   = regexp.MustCompile(`^\d{1,2}[/-]\d{1,2}[/-]\d{2,4}$`)
)

// CanonicalDate converts US ordered month/day/year strings into YYYY-MM-DD.
// Two digit years are taken as 2000+yy. It reports false when the values do
// not name a real calendar date.
func CanonicalDate(month, day, year string) (string, bool) {
	m, err := strconv.Atoi(month)
	if err != nil {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return "", false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return "", false
	}
	if len(year) == 2 {
		y += 2000
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || t.Month() != time.Month(m) {
		return "", false
	}
	return t.Format(DateLayout), true
}

// findDate returns the first valid date-shaped substring of text
func findDate(text string) (string, bool) {
	for _, m := range dateInText.FindAllStringSubmatch(text, -1) {
		if iso, ok := CanonicalDate(m[1], m[2], m[3]); ok {
			return iso, true
		}
	}
	return "", false
}

// NormalizeClock turns a written clock value such as "1900", "900" or
// "19:00" into HH:MM:00. Values that are not 3-4 digits once non-digits
// are removed, or that name an impossible hour or minute, are rejected.
func NormalizeClock(value string) (string, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, value)
	if len(digits) < 3 || len(digits) > 4 {
		return "", false
	}
	digits = strings.Repeat("0", 4-len(digits)) + digits
	hour, _ := strconv.Atoi(digits[:2])
	minute, _ := strconv.Atoi(digits[2:])
	if hour > 23 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d:00", hour, minute), true
}
