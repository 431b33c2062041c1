package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter creates and configures a new router with all API endpoints.
// A nil limiter disables rate limiting.
func NewRouter(h *Handler, limiter *RateLimiter, logger *slog.Logger) *mux.Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()
	r.Use(WithRequestID, AccessLog(logger), SecurityHeaders)
	r.NotFoundHandler = http.HandlerFunc(NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(MethodNotAllowed)

	route(r, "/health", "GET", Health)

	// Apply rate limiting middleware to all API routes
	api := r.PathPrefix("/api").Subrouter()
	if limiter != nil {
		api.Use(limiter.Middleware)
	}

	// Ingestion and listings
	route(api, "/ingest", "POST", h.PostIngest)
	route(api, "/sessions", "GET", h.GetSessions)
	route(api, "/checkins", "GET", h.GetCheckins)

	// Reports
	route(api, "/reports/inactive", "GET", h.GetInactive)
	route(api, "/stats", "GET", h.GetStats)

	return r
}

// route registers fn for method on path; other methods on path get a 405
// with an Allow header. Method mismatches inside a PathPrefix subrouter do
// not reach the parent's MethodNotAllowedHandler, hence the explicit route.
func route(r *mux.Router, path, method string, fn http.HandlerFunc) {
	r.HandleFunc(path, fn).Methods(method)
	r.HandleFunc(path, allowOnly(method))
}
