package types

import "time"

// ArchiveStats summarizes everything ingested so far
type ArchiveStats struct {
	TotalSessions   int     `json:"total_sessions"`
	TotalCheckins   int     `json:"total_checkins"`
	UniqueCallsigns int     `json:"unique_callsigns"`
	FirstSession    *string `json:"first_session"`
	LastSession     *string `json:"last_session"`
}

// ImportStats tracks a batch import of log files
type ImportStats struct {
	StartTime  time.Time `json:"start_time"`
	LastUpdate time.Time `json:"last_update"`
	Files      int       `json:"files"`
	Sessions   int       `json:"sessions"`
	Inserted   int64     `json:"inserted"`
	Duplicates int       `json:"duplicates"`
	Failed     int       `json:"failed"`
}
