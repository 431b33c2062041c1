package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/vainnor/checkins/apperr"
	"github.com/vainnor/checkins/db"
	"github.com/vainnor/checkins/models"
)

// memStore keeps committed rows in memory. Writes made inside InTx only
// become visible when fn returns nil.
type memStore struct {
	sessions []models.Session
	checkins []models.CheckIn

	failCheckInAt int // 1-based; 0 never fails
	txCount       int
}

type memTx struct {
	store    *memStore
	sessions []models.Session
	checkins []models.CheckIn
	inserts  int
}

func (m *memStore) InTx(ctx context.Context, fn func(db.Writer) error) error {
	m.txCount++
	tx := &memTx{store: m}
	if err := fn(tx); err != nil {
		return err
	}
	m.sessions = append(m.sessions, tx.sessions...)
	m.checkins = append(m.checkins, tx.checkins...)
	return nil
}

func (tx *memTx) InsertSession(ctx context.Context, s *models.Session) (int64, error) {
	s.ID = int64(len(tx.store.sessions) + len(tx.sessions) + 1)
	tx.sessions = append(tx.sessions, *s)
	return s.ID, nil
}

func (tx *memTx) InsertCheckIn(ctx context.Context, c *models.CheckIn) error {
	tx.inserts++
	if tx.store.failCheckInAt > 0 && tx.inserts == tx.store.failCheckInAt {
		return errors.New("connection reset")
	}
	c.ID = int64(len(tx.store.checkins) + len(tx.checkins) + 1)
	tx.checkins = append(tx.checkins, *c)
	return nil
}

func (tx *memTx) SessionIDByHash(ctx context.Context, hash string) (int64, bool, error) {
	for i := len(tx.store.sessions) - 1; i >= 0; i-- {
		if tx.store.sessions[i].ContentHash == hash {
			return tx.store.sessions[i].ID, true, nil
		}
	}
	return 0, false, nil
}

func newTestService(store *memStore) *Service {
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

const weeklyNet = "Weekly Net 07/27/25\nStart: 1900\nStop: 1930\nDuration: 30 mins.\n1|N0CALL|Net Control|(NCS)\n2|W1ABC|Mobile\n"

func TestIngestWeeklyNet(t *testing.T) {
	store := &memStore{}
	res, err := newTestService(store).Ingest(context.Background(), []byte(weeklyNet), "net.txt")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Inserted != 2 || res.SessionID != 1 || res.DateSource != DateFromHeader {
		t.Fatalf("result = %+v", res)
	}
	if res.DuplicateOf != nil {
		t.Errorf("duplicate_of = %d, want nil", *res.DuplicateOf)
	}

	if len(store.sessions) != 1 {
		t.Fatalf("stored %d sessions, want 1", len(store.sessions))
	}
	s := store.sessions[0]
	if s.SessionDate != "2025-07-27" || *s.StartTime != "19:00:00" || *s.StopTime != "19:30:00" || *s.DurationMinutes != 30 {
		t.Errorf("session = %+v", s)
	}
	if s.SourceFilename != "net.txt" || s.ContentHash != ContentHash([]byte(weeklyNet)) {
		t.Errorf("session source = %q hash = %q", s.SourceFilename, s.ContentHash)
	}

	if len(store.checkins) != 2 {
		t.Fatalf("stored %d check-ins, want 2", len(store.checkins))
	}
	first := store.checkins[0]
	if first.SessionID != 1 || *first.RowNumber != 1 || *first.Callsign != "N0CALL" || *first.Comment != "Net Control" {
		t.Errorf("check-in 1 = %+v", first)
	}
	if !reflect.DeepEqual(first.Tags, []string{"(NCS)"}) {
		t.Errorf("check-in 1 tags = %v", first.Tags)
	}
	if !reflect.DeepEqual(first.Tokens, []string{"Net Control", "(NCS)"}) {
		t.Errorf("check-in 1 tokens = %v", first.Tokens)
	}
	if first.RawLine != "1|N0CALL|Net Control|(NCS)" {
		t.Errorf("check-in 1 raw line = %q", first.RawLine)
	}
}

func TestIngestDateFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"07-27-2025.log", "2025-07-27"},
		{"net_7_27_2025.txt", "2025-07-27"},
		{"archive/weekly-1-5-2024-final.txt", "2024-01-05"},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			store := &memStore{}
			res, err := newTestService(store).Ingest(context.Background(), []byte("Weekly Net\n1|N0CALL\n"), tt.filename)
			if err != nil {
				t.Fatalf("Ingest: %v", err)
			}
			if res.DateSource != DateFromFilename || *res.Header.SessionDate != tt.want {
				t.Errorf("result = %+v, date %q", res, *res.Header.SessionDate)
			}
			if store.sessions[0].SessionDate != tt.want {
				t.Errorf("stored date = %q, want %q", store.sessions[0].SessionDate, tt.want)
			}
		})
	}
}

func TestIngestHeaderDateWinsOverFilename(t *testing.T) {
	store := &memStore{}
	res, err := newTestService(store).Ingest(context.Background(), []byte(weeklyNet), "01-02-2020.log")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if *res.Header.SessionDate != "2025-07-27" || res.DateSource != DateFromHeader {
		t.Errorf("result = %+v", res)
	}
}

func TestIngestWithoutDate(t *testing.T) {
	store := &memStore{}
	_, err := newTestService(store).Ingest(context.Background(), []byte("Weekly Net\n1|N0CALL\n"), "notes.txt")
	if apperr.KindOf(err) != apperr.KindInput {
		t.Fatalf("error kind = %v (%v), want input", apperr.KindOf(err), err)
	}
	if apperr.Message(err) != MissingDateMessage {
		t.Errorf("message = %q", apperr.Message(err))
	}
	if store.txCount != 0 || len(store.sessions) != 0 || len(store.checkins) != 0 {
		t.Errorf("store touched: tx=%d sessions=%d checkins=%d", store.txCount, len(store.sessions), len(store.checkins))
	}
}

func TestIngestRollsBackOnFailure(t *testing.T) {
	store := &memStore{failCheckInAt: 2}
	text := "Net 5/4/2024\n1|KJ7ABC\n2|W1ABC\n3|N0CALL\n"
	_, err := newTestService(store).Ingest(context.Background(), []byte(text), "net.txt")
	if apperr.KindOf(err) != apperr.KindPersistence {
		t.Fatalf("error kind = %v (%v), want persistence", apperr.KindOf(err), err)
	}
	if len(store.sessions) != 0 || len(store.checkins) != 0 {
		t.Errorf("partial write: sessions=%d checkins=%d", len(store.sessions), len(store.checkins))
	}
}

func TestIngestFlagsDuplicateContent(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store)
	first, err := svc.Ingest(context.Background(), []byte(weeklyNet), "a.txt")
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	second, err := svc.Ingest(context.Background(), []byte(weeklyNet), "b.txt")
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if second.DuplicateOf == nil || *second.DuplicateOf != first.SessionID {
		t.Fatalf("duplicate_of = %v, want %d", second.DuplicateOf, first.SessionID)
	}
	if second.SessionID == first.SessionID || len(store.sessions) != 2 || len(store.checkins) != 4 {
		t.Errorf("second ingest not stored separately: %+v", second)
	}
}

func TestIngestCountsEveryRowLine(t *testing.T) {
	text := "Net 5/4/2024\nStart 1830\n\n1|KJ7ABC|Portable\nchatter between rows\nx|BROKEN\n2|\n  3 |W1ABC|(EC)\n"
	store := &memStore{}
	res, err := newTestService(store).Ingest(context.Background(), []byte(text), "net.txt")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Inserted != 3 || len(store.checkins) != 3 {
		t.Fatalf("inserted = %d stored = %d, want 3", res.Inserted, len(store.checkins))
	}
	if store.checkins[1].Callsign != nil {
		t.Errorf("empty callsign stored as %q", *store.checkins[1].Callsign)
	}
}

func TestIngestEmptyLog(t *testing.T) {
	store := &memStore{}
	res, err := newTestService(store).Ingest(context.Background(), []byte("Net 5/4/2024\n"), "net.txt")
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if res.Inserted != 0 || len(store.sessions) != 1 {
		t.Errorf("result = %+v, sessions = %d", res, len(store.sessions))
	}
}

func TestDateFromName(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{"07-27-2025.log", "2025-07-27", true},
		{"7_4_2024.txt", "2024-07-04", true},
		{"13-45-2024.txt", "", false},
		{"07-27-25.log", "", false},
		{"2025-07-27.log", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := DateFromName(tt.name)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("DateFromName(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("1|N0CALL"))
	if len(a) != 16 {
		t.Fatalf("hash %q has length %d", a, len(a))
	}
	if a != ContentHash([]byte("1|N0CALL")) {
		t.Error("hash is not stable")
	}
	if a == ContentHash([]byte("1|N0CALL ")) {
		t.Error("different content hashed equal")
	}
}
