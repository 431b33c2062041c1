package models

import "time"

// CheckIn represents one parsed row of a session's entry list
type CheckIn struct {
	ID        int64    `json:"id"`
	SessionID int64    `json:"session_id"`
	RowNumber *int     `json:"row_number"`
	Callsign  *string  `json:"callsign"`
	Comment   *string  `json:"comment"`
	Tags      []string `json:"tags"`
	Tokens    []string `json:"tokens"`
	RawLine   string   `json:"raw_line"`
}

// Heard is the number of check-ins a callsign made in sessions held on Date.
// Callsign is stored text, not yet normalized.
type Heard struct {
	Callsign string
	Date     time.Time
	Count    int
}

// InactivityRecord is one row of the last-heard report
type InactivityRecord struct {
	Callsign      string `json:"callsign"`
	FirstHeard    string `json:"first_heard"`
	LastHeard     string `json:"last_heard"`
	TotalCheckins int    `json:"total_checkins"`
	DaysSince     int    `json:"days_since"`
}
