package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/vainnor/checkins/config"
)

// Store is the Postgres backed session and check-in archive. It is safe for
// concurrent use; every call runs on its own pooled connection.
type Store struct {
	db *sql.DB
}

// NewStore wraps an already opened database handle
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to Postgres, sizes the pool and verifies the connection
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(cfg.IdleTimeout)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}
	return &Store{db: db}, nil
}

// CreateTables creates the schema if it does not exist yet
func (s *Store) CreateTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id BIGSERIAL PRIMARY KEY,
			session_date DATE NOT NULL,
			start_time TIME,
			stop_time TIME,
			duration_minutes INTEGER CHECK (duration_minutes >= 0),
			source_filename TEXT NOT NULL,
			content_hash VARCHAR(16),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS checkins (
			id BIGSERIAL PRIMARY KEY,
			session_id BIGINT NOT NULL REFERENCES sessions(id),
			row_number INTEGER,
			callsign TEXT,
			comment TEXT,
			tags TEXT[],
			tokens JSONB NOT NULL DEFAULT '[]'::jsonb,
			raw_line TEXT
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions (created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_content_hash ON sessions (content_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_checkins_session_row ON checkins (session_id, row_number)`,
		`CREATE INDEX IF NOT EXISTS idx_checkins_callsign ON checkins (UPPER(TRIM(callsign)))`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error creating tables: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ErrorCode returns the Postgres SQLSTATE of err, if it carries one
func ErrorCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
