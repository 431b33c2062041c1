package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vainnor/checkins/models"
	"github.com/vainnor/checkins/types"
)

// HeardLog returns how often each stored callsign checked in on each session
// date. Rows without a usable callsign are left out.
func (s *Store) HeardLog(ctx context.Context) ([]models.Heard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.callsign, s.session_date, COUNT(*)
		FROM checkins c
		JOIN sessions s ON s.id = c.session_id
		WHERE c.callsign IS NOT NULL AND TRIM(c.callsign) <> ''
		GROUP BY c.callsign, s.session_date
	`)
	if err != nil {
		return nil, fmt.Errorf("load heard log: %w", err)
	}
	defer rows.Close()

	var heard []models.Heard
	for rows.Next() {
		var h models.Heard
		if err := rows.Scan(&h.Callsign, &h.Date, &h.Count); err != nil {
			return nil, fmt.Errorf("scan heard log: %w", err)
		}
		heard = append(heard, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load heard log: %w", err)
	}
	return heard, nil
}

// ArchiveStats counts sessions, check-ins and distinct operators
func (s *Store) ArchiveStats(ctx context.Context) (types.ArchiveStats, error) {
	var (
		stats       types.ArchiveStats
		first, last sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM sessions),
			(SELECT COUNT(*) FROM checkins),
			(SELECT COUNT(DISTINCT UPPER(TRIM(callsign))) FROM checkins
				WHERE callsign IS NOT NULL AND TRIM(callsign) <> ''),
			(SELECT MIN(session_date) FROM sessions),
			(SELECT MAX(session_date) FROM sessions)
	`).Scan(&stats.TotalSessions, &stats.TotalCheckins, &stats.UniqueCallsigns, &first, &last)
	if err != nil {
		return stats, fmt.Errorf("archive stats: %w", err)
	}
	if first.Valid {
		d := formatDate(first.Time)
		stats.FirstSession = &d
	}
	if last.Valid {
		d := formatDate(last.Time)
		stats.LastSession = &d
	}
	return stats, nil
}
