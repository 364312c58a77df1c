package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/akiroussama/codeClashServer/internal/httputil"
	"github.com/akiroussama/codeClashServer/internal/logging"
	"github.com/akiroussama/codeClashServer/internal/metrics"
	"github.com/akiroussama/codeClashServer/internal/models"
	"github.com/akiroussama/codeClashServer/internal/ratelimit"
	"github.com/akiroussama/codeClashServer/internal/service"
	"github.com/akiroussama/codeClashServer/internal/store"
)

// Ingestor accepts producer submissions.
type Ingestor interface {
	SubmitFileEvent(ctx context.Context, ev models.FileEvent, raw []byte) (int64, error)
	SubmitTestStatus(ctx context.Context, rec *models.TestStatusRecord) (int64, error)
}

// Querier serves reads over the stored history.
type Querier interface {
	ListFileEvents(ctx context.Context) ([]models.FileEvent, error)
	ListTestStatus(ctx context.Context) ([]models.TestStatusRecord, error)
	LatestTestStatus(ctx context.Context) (*models.TestStatusRecord, error)
	LatestPerUser(ctx context.Context) ([]models.TestStatusRecord, error)
	FilteredLatestPerUser(ctx context.Context, f store.Filters) ([]models.TestStatusRecord, error)
}

type Handler struct {
	ingest       Ingestor
	query        Querier
	limiter      ratelimit.RateLimiter
	maxEventSize int64
}

func New(ingest Ingestor, query Querier, limiter ratelimit.RateLimiter, maxEventSize int64) *Handler {
	if limiter == nil {
		limiter = &ratelimit.NoOpRateLimiter{}
	}
	if maxEventSize <= 0 {
		maxEventSize = 1 << 20
	}
	return &Handler{
		ingest:       ingest,
		query:        query,
		limiter:      limiter,
		maxEventSize: maxEventSize,
	}
}

type updatePayload struct {
	FileName  string `json:"fileName"`
	Timestamp string `json:"timestamp"`
}

// HandleUpdate accepts a file-save notification, persists it, and pushes
// the raw payload to every connected observer.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !h.allow(w, r) {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxEventSize))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	var payload updatePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	ev := models.FileEvent{FileName: payload.FileName, Timestamp: payload.Timestamp}
	if _, err := h.ingest.SubmitFileEvent(r.Context(), ev, body); err != nil {
		metrics.EventsTotal.WithLabelValues("update", "error").Inc()
		slog.ErrorContext(r.Context(), "failed to ingest file event", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to store event")
		return
	}
	metrics.EventsTotal.WithLabelValues("update", "ok").Inc()

	w.WriteHeader(http.StatusOK)
}

// HandleEvents returns the full file-event history in insertion order.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	events, err := h.query.ListFileEvents(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list file events", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to fetch events")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

type testStatusPayload struct {
	User           string          `json:"user"`
	Timestamp      string          `json:"timestamp"`
	TestStatus     models.Document `json:"testStatus"`
	ProjectInfo    models.Document `json:"projectInfo"`
	GitInfo        models.Document `json:"gitInfo"`
	TestRunnerInfo models.Document `json:"testRunnerInfo"`
	Environment    models.Document `json:"environment"`
	Execution      models.Document `json:"execution"`
}

// HandleTestStatus serves POST (submit a report) and GET (full history).
func (h *Handler) HandleTestStatus(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.submitTestStatus(w, r)
	case http.MethodGet:
		h.listTestStatus(w, r)
	default:
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) submitTestStatus(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r) {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, h.maxEventSize))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer r.Body.Close()

	var payload testStatusPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	rec := &models.TestStatusRecord{
		User:           payload.User,
		Timestamp:      payload.Timestamp,
		TestStatus:     payload.TestStatus,
		ProjectInfo:    payload.ProjectInfo,
		GitInfo:        payload.GitInfo,
		TestRunnerInfo: payload.TestRunnerInfo,
		Environment:    payload.Environment,
		Execution:      payload.Execution,
	}

	id, err := h.ingest.SubmitTestStatus(r.Context(), rec)
	if err != nil {
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			metrics.EventsTotal.WithLabelValues("test-status", "rejected").Inc()
			httputil.WriteError(w, http.StatusBadRequest, vErr.Reason)
			return
		}
		metrics.EventsTotal.WithLabelValues("test-status", "error").Inc()
		slog.ErrorContext(r.Context(), "failed to ingest test status", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to store test status")
		return
	}
	metrics.EventsTotal.WithLabelValues("test-status", "ok").Inc()

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "test status saved",
		"id":      id,
	})
}

func (h *Handler) listTestStatus(w http.ResponseWriter, r *http.Request) {
	records, err := h.query.ListTestStatus(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list test status", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to fetch test status")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

// HandleLatestTestResults returns the single most recent record, raw, not
// grouped by user.
func (h *Handler) HandleLatestTestResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rec, err := h.query.LatestTestStatus(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNoResults) {
			httputil.WriteJSON(w, http.StatusNotFound, map[string]string{
				"message": "no test results recorded",
			})
			return
		}
		slog.ErrorContext(r.Context(), "failed to get latest test status", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to fetch latest test results")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// HandleLatestTestResultsByUser returns one record per distinct user.
func (h *Handler) HandleLatestTestResultsByUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	records, err := h.query.LatestPerUser(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to query latest per user", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to fetch latest test results")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

// HandleFilteredTestResults serves the filtered latest-per-user query. An
// empty result set answers 404 with the filter parameters echoed back.
func (h *Handler) HandleFilteredTestResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	filters := store.Filters{
		Username: q.Get("username"),
		Date:     q.Get("date"),
	}

	var ok bool
	if filters.TotalTests, ok = httputil.ParseOptionalInt(q.Get("totalTests")); !ok {
		httputil.WriteError(w, http.StatusBadRequest, "totalTests must be an integer")
		return
	}
	if filters.Failed, ok = httputil.ParseOptionalInt(q.Get("failed")); !ok {
		httputil.WriteError(w, http.StatusBadRequest, "failed must be an integer")
		return
	}
	if filters.Passed, ok = httputil.ParseOptionalInt(q.Get("passed")); !ok {
		httputil.WriteError(w, http.StatusBadRequest, "passed must be an integer")
		return
	}

	records, err := h.query.FilteredLatestPerUser(r.Context(), filters)
	if err != nil {
		if errors.Is(err, store.ErrNoResults) {
			httputil.WriteJSON(w, http.StatusNotFound, map[string]interface{}{
				"message":    "no matching test results",
				"parameters": filterParameters(q),
			})
			return
		}
		slog.ErrorContext(r.Context(), "failed to query filtered test results", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to fetch filtered test results")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

// filterParameters echoes back the filters the caller provided, to aid
// debugging empty result sets.
func filterParameters(q map[string][]string) map[string]string {
	out := map[string]string{}
	for _, key := range []string{"username", "date", "totalTests", "failed", "passed"} {
		if vals, present := q[key]; present && len(vals) > 0 && vals[0] != "" {
			out[key] = vals[0]
		}
	}
	return out
}

// allow consults the rate limiter keyed by client IP. Limiter errors fail
// open: a broken redis must not take ingestion down with it.
func (h *Handler) allow(w http.ResponseWriter, r *http.Request) bool {
	ip := httputil.GetClientIP(r)
	allowed, err := h.limiter.Allow(r.Context(), ip)
	if err != nil {
		slog.WarnContext(r.Context(), "rate limiter unavailable", logging.Error(err), logging.IP(ip))
		return true
	}
	if !allowed {
		httputil.WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return false
	}
	return true
}
