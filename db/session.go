package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/vainnor/checkins/models"
)

// Writer inserts the rows of one ingestion inside a transaction
type Writer interface {
	InsertSession(ctx context.Context, session *models.Session) (int64, error)
	InsertCheckIn(ctx context.Context, checkin *models.CheckIn) error
	SessionIDByHash(ctx context.Context, hash string) (int64, bool, error)
}

// InTx runs fn inside a single transaction. The transaction commits only
// when fn returns nil; any error rolls back every row fn wrote.
func (s *Store) InTx(ctx context.Context, fn func(Writer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txWriter{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type txWriter struct {
	tx *sql.Tx
}

// InsertSession creates a session row and returns its id
func (w *txWriter) InsertSession(ctx context.Context, session *models.Session) (int64, error) {
	var id int64
	err := w.tx.QueryRowContext(ctx, `
		INSERT INTO sessions (
			session_date, start_time, stop_time,
			duration_minutes, source_filename, content_hash
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, session.SessionDate, session.StartTime, session.StopTime,
		session.DurationMinutes, session.SourceFilename, nullString(session.ContentHash),
	).Scan(&id, &session.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	session.ID = id
	return id, nil
}

// InsertCheckIn creates one check-in row. Empty tag lists are stored as NULL.
func (w *txWriter) InsertCheckIn(ctx context.Context, c *models.CheckIn) error {
	tokens := c.Tokens
	if tokens == nil {
		tokens = []string{}
	}
	tokensJSON, err := json.Marshal(tokens)
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	var tags interface{}
	if len(c.Tags) > 0 {
		tags = pq.Array(c.Tags)
	}

	_, err = w.tx.ExecContext(ctx, `
		INSERT INTO checkins (
			session_id, row_number, callsign, comment,
			tags, tokens, raw_line
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.SessionID, c.RowNumber, c.Callsign, c.Comment, tags, string(tokensJSON), c.RawLine)
	if err != nil {
		return fmt.Errorf("insert check-in row %s: %w", rowLabel(c.RowNumber), err)
	}
	return nil
}

// SessionIDByHash finds the newest session ingested from identical content
func (w *txWriter) SessionIDByHash(ctx context.Context, hash string) (int64, bool, error) {
	var id int64
	err := w.tx.QueryRowContext(ctx, `
		SELECT id FROM sessions
		WHERE content_hash = $1
		ORDER BY id DESC
		LIMIT 1
	`, hash).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup content hash: %w", err)
	}
	return id, true, nil
}

// ListSessions returns one page of sessions, most recently ingested first
func (s *Store) ListSessions(ctx context.Context, limit, offset int) ([]models.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			id, session_date, start_time::text, stop_time::text,
			duration_minutes, source_filename, content_hash, created_at
		FROM sessions
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]models.Session, 0, limit)
	for rows.Next() {
		var (
			session  models.Session
			date     sql.NullTime
			start    sql.NullString
			stop     sql.NullString
			duration sql.NullInt64
			checksum sql.NullString
		)
		err := rows.Scan(
			&session.ID,
			&date,
			&start,
			&stop,
			&duration,
			&session.SourceFilename,
			&checksum,
			&session.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if date.Valid {
			session.SessionDate = formatDate(date.Time)
		}
		session.StartTime = stringPtr(start)
		session.StopTime = stringPtr(stop)
		if duration.Valid {
			d := int(duration.Int64)
			session.DurationMinutes = &d
		}
		session.ContentHash = checksum.String
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// CountSessions returns the number of stored sessions
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func rowLabel(n *int) string {
	if n == nil {
		return "?"
	}
	return fmt.Sprint(*n)
}
