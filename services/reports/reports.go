// Package reports builds the last-heard (inactivity) report from the archive.
package reports

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/vainnor/checkins/apperr"
	"github.com/vainnor/checkins/models"
	"github.com/vainnor/checkins/types"
)

const (
	DefaultWeeks = 6
	MinWeeks     = 1
	MaxWeeks     = 520
)

const dateLayout = "2006-01-02"

// HeardLog loads per callsign, per session date check-in counts
type HeardLog interface {
	HeardLog(ctx context.Context) ([]models.Heard, error)
}

// Report is the inactivity list for one weeks threshold
type Report struct {
	Weeks int                       `json:"weeks"`
	Rows  []models.InactivityRecord `json:"rows"`
}

// Service computes reports against a HeardLog source
type Service struct {
	store HeardLog
	now   func() time.Time
}

func NewService(store HeardLog) *Service {
	return &Service{store: store, now: time.Now}
}

// ParseWeeks coerces a raw weeks parameter
func ParseWeeks(raw string) int {
	return ClampWeeks(types.IntParam(raw, DefaultWeeks))
}

// ClampWeeks limits a weeks threshold to [MinWeeks, MaxWeeks]
func ClampWeeks(weeks int) int {
	return types.Clamp(weeks, MinWeeks, MaxWeeks)
}

// InactiveSince lists operators not heard for at least weeks weeks, oldest
// last-heard first. The result is recomputed from the store on every call.
func (s *Service) InactiveSince(ctx context.Context, weeks int) (*Report, error) {
	weeks = ClampWeeks(weeks)
	heard, err := s.store.HeardLog(ctx)
	if err != nil {
		return nil, apperr.Persistence("Failed to build inactivity report", err)
	}
	return &Report{Weeks: weeks, Rows: Aggregate(heard, weeks, s.now())}, nil
}

type operator struct {
	first, last time.Time
	total       int
}

// Aggregate groups heard rows by normalized callsign and keeps those whose
// last check-in is on or before today minus weeks weeks. Dates are compared
// as calendar days in today's location.
func Aggregate(heard []models.Heard, weeks int, today time.Time) []models.InactivityRecord {
	today = civil(today)
	cutoff := today.AddDate(0, 0, -7*weeks)

	ops := make(map[string]*operator)
	for _, h := range heard {
		call := strings.ToUpper(strings.TrimSpace(h.Callsign))
		if call == "" {
			continue
		}
		day := civil(h.Date)
		op, ok := ops[call]
		if !ok {
			ops[call] = &operator{first: day, last: day, total: h.Count}
			continue
		}
		if day.Before(op.first) {
			op.first = day
		}
		if day.After(op.last) {
			op.last = day
		}
		op.total += h.Count
	}

	rows := make([]models.InactivityRecord, 0)
	for call, op := range ops {
		if op.last.After(cutoff) {
			continue
		}
		rows = append(rows, models.InactivityRecord{
			Callsign:      call,
			FirstHeard:    op.first.Format(dateLayout),
			LastHeard:     op.last.Format(dateLayout),
			TotalCheckins: op.total,
			DaysSince:     daysBetween(op.last, today),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].LastHeard != rows[j].LastHeard {
			return rows[i].LastHeard < rows[j].LastHeard
		}
		return rows[i].Callsign < rows[j].Callsign
	})
	return rows
}

// civil drops the clock and zone, keeping the calendar date as UTC midnight
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

