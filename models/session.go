package models

import "time"

// Session represents one ingested net log file
type Session struct {
	ID              int64     `json:"id"`
	SessionDate     string    `json:"session_date"`
	StartTime       *string   `json:"start_time"`
	StopTime        *string   `json:"stop_time"`
	DurationMinutes *int      `json:"duration_minutes"`
	SourceFilename  string    `json:"source_filename"`
	ContentHash     string    `json:"content_hash,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Page is one window of a listing together with its pagination metadata
type Page[T any] struct {
	Rows     []T `json:"rows"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}
