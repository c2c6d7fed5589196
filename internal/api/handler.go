// Package api implements the read-only HTTP API consumed by the dashboard.
//
// Routes:
//
//	GET /jobs?limit&offset&keywords&category → paginated active jobs
//	GET /jobs/{uuid}                         → single job (active or removed)
//	GET /crawl/stats                         → active count + recent runs
//	GET /health                              → liveness
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/NaqibL/mcf/internal/model"
	"github.com/NaqibL/mcf/internal/store"
)

// Store is the slice of the persistence layer the handlers need.
type Store interface {
	SearchJobs(ctx context.Context, opts store.SearchOptions) ([]model.Job, error)
	GetJob(ctx context.Context, jobUUID string) (model.Job, error)
	RecentRuns(ctx context.Context, limit int) ([]model.CrawlRun, error)
	ActiveJobCount(ctx context.Context) (int, error)
}

// Handler holds shared dependencies.
type Handler struct {
	store Store
	log   zerolog.Logger
}

// NewHandler returns a configured Handler.
func NewHandler(st Store, log zerolog.Logger) *Handler {
	return &Handler{store: st, log: log}
}

// RegisterRoutes mounts all read API routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/jobs", h.handleJobs)
	mux.HandleFunc("/jobs/", h.handleJob)
	mux.HandleFunc("/crawl/stats", h.handleStats)
	mux.HandleFunc("/health", h.handleHealth)
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	opts := store.SearchOptions{
		Keywords: r.URL.Query().Get("keywords"),
		Category: r.URL.Query().Get("category"),
	}

	var err error
	if opts.Limit, err = queryInt(r, "limit", 100); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if opts.Offset, err = queryInt(r, "offset", 0); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	jobs, err := h.store.SearchJobs(r.Context(), opts)
	if err != nil {
		h.log.Error().Err(err).Msg("search jobs failed")
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}

	jsonOK(w, map[string]any{"jobs": jobs, "total": len(jobs)})
}

func (h *Handler) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobUUID := strings.TrimPrefix(r.URL.Path, "/jobs/")
	if jobUUID == "" || strings.Contains(jobUUID, "/") {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}

	job, err := h.store.GetJob(r.Context(), jobUUID)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("job_uuid", jobUUID).Msg("get job failed")
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}

	jsonOK(w, job)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	count, err := h.store.ActiveJobCount(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("active job count failed")
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}

	runs, err := h.store.RecentRuns(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("recent runs failed")
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}

	jsonOK(w, map[string]any{
		"active_job_count": count,
		"recent_runs":      runs,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]string{"status": "ok", "service": "mcf-api"})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func queryInt(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, errInvalidParam(key, s)
	}
	return v, nil
}

type paramError struct{ key, value string }

func errInvalidParam(key, value string) error { return paramError{key, value} }

func (e paramError) Error() string {
	return e.key + " must be a non-negative integer, got " + strconv.Quote(e.value)
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
