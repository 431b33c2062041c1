// Package listing serves paginated views of stored sessions and check-ins.
package listing

import (
	"context"
	"strings"

	"github.com/vainnor/checkins/apperr"
	"github.com/vainnor/checkins/models"
	"github.com/vainnor/checkins/types"
)

const (
	DefaultSessionPageSize = 10
	DefaultCheckinPageSize = 25
	MaxPageSize            = 200
)

// Store reads one window of rows and the total they are drawn from
type Store interface {
	ListSessions(ctx context.Context, limit, offset int) ([]models.Session, error)
	CountSessions(ctx context.Context) (int, error)
	ListCheckins(ctx context.Context, callsign string, limit, offset int) ([]models.CheckIn, error)
	CountCheckins(ctx context.Context, callsign string) (int, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// ParsePage coerces a raw page parameter to an integer >= 1
func ParsePage(raw string) int {
	return ClampPage(types.IntParam(raw, 1))
}

// ParsePageSize coerces a raw page size, falling back to def
func ParsePageSize(raw string, def int) int {
	return ClampPageSize(types.IntParam(raw, def))
}

func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func ClampPageSize(size int) int {
	return types.Clamp(size, 1, MaxPageSize)
}

// NormalizeCallsign prepares a callsign filter for exact matching
func NormalizeCallsign(callsign string) string {
	return strings.ToUpper(strings.TrimSpace(callsign))
}

// Sessions returns one page of sessions, most recently ingested first
func (s *Service) Sessions(ctx context.Context, page, pageSize int) (*models.Page[models.Session], error) {
	page, pageSize = ClampPage(page), ClampPageSize(pageSize)

	total, err := s.store.CountSessions(ctx)
	if err != nil {
		return nil, apperr.Persistence("Failed to list sessions", err)
	}
	rows, err := s.store.ListSessions(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperr.Persistence("Failed to list sessions", err)
	}
	if rows == nil {
		rows = []models.Session{}
	}
	return &models.Page[models.Session]{Rows: rows, Page: page, PageSize: pageSize, Total: total}, nil
}

// Checkins returns one page of check-ins, optionally only those of callsign
// (case-insensitive, exact).
func (s *Service) Checkins(ctx context.Context, callsign string, page, pageSize int) (*models.Page[models.CheckIn], error) {
	page, pageSize = ClampPage(page), ClampPageSize(pageSize)
	callsign = NormalizeCallsign(callsign)

	total, err := s.store.CountCheckins(ctx, callsign)
	if err != nil {
		return nil, apperr.Persistence("Failed to list check-ins", err)
	}
	rows, err := s.store.ListCheckins(ctx, callsign, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperr.Persistence("Failed to list check-ins", err)
	}
	if rows == nil {
		rows = []models.CheckIn{}
	}
	return &models.Page[models.CheckIn]{Rows: rows, Page: page, PageSize: pageSize, Total: total}, nil
}
