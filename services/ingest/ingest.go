// Package ingest turns one uploaded net log into a stored session and its
// check-ins, all or nothing.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/vainnor/checkins/apperr"
	"github.com/vainnor/checkins/db"
	"github.com/vainnor/checkins/models"
	"github.com/vainnor/checkins/parser"
	"github.com/zeebo/xxh3"
)

// Where the session date came from
const (
	DateFromHeader   = "header"
	DateFromFilename = "filename"
)

// MissingDateMessage explains the accepted date sources to the uploader
const MissingDateMessage = "Could not determine session date from header or filename. " +
	"Please include a date like MM/DD/YYYY in the header, or use a filename with MM-DD-YYYY."

var filenameDates = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,2})-(\d{1,2})-(\d{4})`),
	regexp.MustCompile(`(\d{1,2})_(\d{1,2})_(\d{4})`),
}

// Store runs a unit of work atomically
type Store interface {
	InTx(ctx context.Context, fn func(db.Writer) error) error
}

// Result summarizes a successful ingestion
type Result struct {
	SessionID   int64         `json:"session_id"`
	Inserted    int           `json:"inserted"`
	Header      parser.Header `json:"header"`
	DateSource  string        `json:"date_source"`
	DuplicateOf *int64        `json:"duplicate_of,omitempty"`
}

// Service ingests net log files into a Store
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates an ingestion service. A nil logger uses slog.Default().
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Ingest parses data and stores one session plus one check-in per row.
// The session date comes from the header, else from a MM-DD-YYYY or
// MM_DD_YYYY date in filename; without either nothing is stored and an
// input error is returned. Any store failure rolls back the whole file.
func (s *Service) Ingest(ctx context.Context, data []byte, filename string) (*Result, error) {
	parsed := parser.ParseBytes(data)

	hdr := parsed.Header
	source := DateFromHeader
	if hdr.SessionDate == nil {
		date, ok := DateFromName(filename)
		if !ok {
			return nil, apperr.Input(MissingDateMessage)
		}
		hdr.SessionDate = &date
		source = DateFromFilename
		s.logger.Warn("session date taken from filename", "filename", filename, "session_date", date)
	}

	session := &models.Session{
		SessionDate:     *hdr.SessionDate,
		StartTime:       hdr.Start,
		StopTime:        hdr.Stop,
		DurationMinutes: hdr.Duration,
		SourceFilename:  filename,
		ContentHash:     ContentHash(data),
	}

	var duplicateOf *int64
	err := s.store.InTx(ctx, func(w db.Writer) error {
		if prior, found, err := w.SessionIDByHash(ctx, session.ContentHash); err != nil {
			return err
		} else if found {
			duplicateOf = &prior
		}

		sessionID, err := w.InsertSession(ctx, session)
		if err != nil {
			return err
		}
		for i := range parsed.Entries {
			if err := w.InsertCheckIn(ctx, checkInFor(sessionID, parsed.Entries[i])); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("ingest failed", "filename", filename, "error", err, "sqlstate", db.ErrorCode(err))
		return nil, apperr.Persistence("Failed to store net log", err)
	}

	if duplicateOf != nil {
		s.logger.Warn("identical content was ingested before", "filename", filename,
			"session_id", session.ID, "duplicate_of", *duplicateOf)
	}
	s.logger.Info("net log ingested", "session_id", session.ID, "filename", filename,
		"session_date", session.SessionDate, "inserted", len(parsed.Entries), "date_source", source)

	return &Result{
		SessionID:   session.ID,
		Inserted:    len(parsed.Entries),
		Header:      hdr,
		DateSource:  source,
		DuplicateOf: duplicateOf,
	}, nil
}

// DateFromName finds a MM-DD-YYYY or MM_DD_YYYY date anywhere in a file name
func DateFromName(name string) (string, bool) {
	for _, re := range filenameDates {
		for _, m := range re.FindAllStringSubmatch(name, -1) {
			if iso, ok := parser.CanonicalDate(m[1], m[2], m[3]); ok {
				return iso, true
			}
		}
	}
	return "", false
}

// ContentHash fingerprints raw file content
func ContentHash(data []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(data))
}

func checkInFor(sessionID int64, e parser.Entry) *models.CheckIn {
	return &models.CheckIn{
		SessionID: sessionID,
		RowNumber: e.RowNumber,
		Callsign:  e.Callsign,
		Comment:   e.Comment,
		Tags:      e.Tags,
		Tokens:    e.Tokens,
		RawLine:   e.RawLine,
	}
}
