package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
	"github.com/vainnor/checkins/models"
)

// callsignFilter builds the WHERE clause shared by the listing and count
// queries. An empty callsign matches every row.
func callsignFilter(callsign string, params []interface{}) (string, []interface{}) {
	if callsign == "" {
		return "", params
	}
	params = append(params, callsign)
	return fmt.Sprintf(" WHERE UPPER(TRIM(callsign)) = $%d", len(params)), params
}

// ListCheckins returns one page of check-ins, newest session first and in
// source row order within a session. callsign must already be normalized.
func (s *Store) ListCheckins(ctx context.Context, callsign string, limit, offset int) ([]models.CheckIn, error) {
	where, params := callsignFilter(callsign, nil)
	params = append(params, limit, offset)
	query := `
		SELECT
			id, session_id, row_number, callsign, comment,
			tags, tokens, raw_line
		FROM checkins` + where + fmt.Sprintf(`
		ORDER BY session_id DESC, row_number ASC, id ASC
		LIMIT $%d OFFSET $%d`, len(params)-1, len(params))

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	defer rows.Close()

	checkins := make([]models.CheckIn, 0, limit)
	for rows.Next() {
		var (
			c         models.CheckIn
			rowNumber sql.NullInt64
			call      sql.NullString
			comment   sql.NullString
			tags      pq.StringArray
			tokens    []byte
			rawLine   sql.NullString
		)
		err := rows.Scan(
			&c.ID,
			&c.SessionID,
			&rowNumber,
			&call,
			&comment,
			&tags,
			&tokens,
			&rawLine,
		)
		if err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		if rowNumber.Valid {
			n := int(rowNumber.Int64)
			c.RowNumber = &n
		}
		c.Callsign = stringPtr(call)
		c.Comment = stringPtr(comment)
		c.Tags = []string(tags)
		if c.Tags == nil {
			c.Tags = []string{}
		}
		c.Tokens = []string{}
		if len(tokens) > 0 {
			if err := json.Unmarshal(tokens, &c.Tokens); err != nil {
				return nil, fmt.Errorf("decode tokens of check-in %d: %w", c.ID, err)
			}
		}
		c.RawLine = rawLine.String
		checkins = append(checkins, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	return checkins, nil
}

// CountCheckins returns the number of check-ins matching callsign
func (s *Store) CountCheckins(ctx context.Context, callsign string) (int, error) {
	where, params := callsignFilter(callsign, nil)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM checkins`+where, params...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count check-ins: %w", err)
	}
	return n, nil
}
