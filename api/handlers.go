package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/vainnor/checkins/apperr"
	"github.com/vainnor/checkins/models"
	"github.com/vainnor/checkins/services/ingest"
	"github.com/vainnor/checkins/services/listing"
	"github.com/vainnor/checkins/services/reports"
	"github.com/vainnor/checkins/types"
)

const defaultUploadName = "upload.log"

type Ingester interface {
	Ingest(ctx context.Context, data []byte, filename string) (*ingest.Result, error)
}

type Lister interface {
	Sessions(ctx context.Context, page, pageSize int) (*models.Page[models.Session], error)
	Checkins(ctx context.Context, callsign string, page, pageSize int) (*models.Page[models.CheckIn], error)
}

type Reporter interface {
	InactiveSince(ctx context.Context, weeks int) (*reports.Report, error)
}

type StatsSource interface {
	ArchiveStats(ctx context.Context) (types.ArchiveStats, error)
}

// Handler serves the check-in archive API
type Handler struct {
	Ingest         Ingester
	Listing        Lister
	Reports        Reporter
	Stats          StatsSource
	MaxUploadBytes int64
	Logger         *slog.Logger
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// PostIngest stores the multipart "file" field as one session
func (h *Handler) PostIngest(w http.ResponseWriter, r *http.Request) {
	limit := h.MaxUploadBytes
	if limit > 0 {
		if r.ContentLength > limit {
			h.tooLarge(w, limit)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	file, part, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.tooLarge(w, limit)
			return
		}
		writeError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeAppError(w, r, apperr.Internal("Failed to read upload", err))
		return
	}

	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = part.Filename
	}
	if filename == "" {
		filename = defaultUploadName
	}

	result, err := h.Ingest.Ingest(r.Context(), data, filename)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetSessions lists sessions, most recently ingested first
func (h *Handler) GetSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.Listing.Sessions(r.Context(),
		listing.ParsePage(q.Get("page")),
		listing.ParsePageSize(q.Get("pageSize"), listing.DefaultSessionPageSize))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetCheckins lists check-ins, optionally for one callsign
func (h *Handler) GetCheckins(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.Listing.Checkins(r.Context(), q.Get("callsign"),
		listing.ParsePage(q.Get("page")),
		listing.ParsePageSize(q.Get("pageSize"), listing.DefaultCheckinPageSize))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetInactive returns the last-heard report for ?weeks=N
func (h *Handler) GetInactive(w http.ResponseWriter, r *http.Request) {
	report, err := h.Reports.InactiveSince(r.Context(), reports.ParseWeeks(r.URL.Query().Get("weeks")))
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetStats returns archive totals
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Stats.ArchiveStats(r.Context())
	if err != nil {
		h.writeAppError(w, r, apperr.Persistence("Failed to load archive stats", err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{OK: true})
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not Found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

func allowOnly(methods ...string) http.HandlerFunc {
	allow := strings.Join(methods, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		MethodNotAllowed(w, r)
	}
}

func (h *Handler) tooLarge(w http.ResponseWriter, limit int64) {
	writeError(w, http.StatusRequestEntityTooLarge,
		fmt.Sprintf("File too large (limit %s)", humanize.IBytes(uint64(limit))))
}

func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(apperr.KindOf(err))
	if status >= http.StatusInternalServerError {
		h.logger().Error("request failed", "method", r.Method, "path", r.URL.Path,
			"request_id", RequestID(r.Context()), "error", err)
	}
	writeError(w, status, apperr.Message(err))
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInput:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("error encoding response", "error", err)
	}
}
