package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akiroussama/codeClashServer/internal/handlers"
	"github.com/akiroussama/codeClashServer/internal/middleware"
	"github.com/akiroussama/codeClashServer/internal/models"
	"github.com/akiroussama/codeClashServer/internal/registry"
	"github.com/akiroussama/codeClashServer/internal/store"
)

// Mock services for routing tests
type mockIngestor struct{}

func (m *mockIngestor) SubmitFileEvent(ctx context.Context, ev models.FileEvent, raw []byte) (int64, error) {
	return 1, nil
}

func (m *mockIngestor) SubmitTestStatus(ctx context.Context, rec *models.TestStatusRecord) (int64, error) {
	return 1, nil
}

type mockQuerier struct{}

func (m *mockQuerier) ListFileEvents(ctx context.Context) ([]models.FileEvent, error) {
	return []models.FileEvent{}, nil
}

func (m *mockQuerier) ListTestStatus(ctx context.Context) ([]models.TestStatusRecord, error) {
	return []models.TestStatusRecord{}, nil
}

func (m *mockQuerier) LatestTestStatus(ctx context.Context) (*models.TestStatusRecord, error) {
	return nil, store.ErrNoResults
}

func (m *mockQuerier) LatestPerUser(ctx context.Context) ([]models.TestStatusRecord, error) {
	return []models.TestStatusRecord{}, nil
}

func (m *mockQuerier) FilteredLatestPerUser(ctx context.Context, f store.Filters) ([]models.TestStatusRecord, error) {
	return nil, store.ErrNoResults
}

func newTestRouter() http.Handler {
	h := handlers.New(&mockIngestor{}, &mockQuerier{}, nil, 0)
	ws := handlers.NewWSHandler(registry.New(16, time.Second))
	health := handlers.NewHealthHandler(nil)
	return NewRouter(h, ws, health)
}

func TestNewRouter(t *testing.T) {
	if newTestRouter() == nil {
		t.Fatal("NewRouter() returned nil")
	}
}

func TestRouter_Endpoints(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/update"},
		{http.MethodGet, "/events"},
		{http.MethodGet, "/test-status"},
		{http.MethodGet, "/latest-test-results"},
		{http.MethodGet, "/latest-test-results-by-user"},
		{http.MethodGet, "/filtered-test-results"},
		{http.MethodGet, "/healthz"},
		{http.MethodGet, "/readyz"},
		{http.MethodGet, "/metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code == http.StatusNotFound && tt.path != "/latest-test-results" && tt.path != "/filtered-test-results" {
				t.Errorf("%s not registered", tt.path)
			}
		})
	}
}

func TestRequestLog(t *testing.T) {
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(old)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	wrapped := middleware.RequestID(requestLog(inner))

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("access log is not JSON: %v", err)
	}
	if entry["method"] != "GET" {
		t.Errorf("expected method GET, got %v", entry["method"])
	}
	if entry["path"] != "/events" {
		t.Errorf("expected path /events, got %v", entry["path"])
	}
	if entry["status"] != float64(http.StatusTeapot) {
		t.Errorf("expected status 418, got %v", entry["status"])
	}
	if entry["request_id"] == nil || entry["request_id"] == "" {
		t.Error("expected request_id in access log")
	}
}

func TestRequestLog_DefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(old)

	// Handlers that never call WriteHeader log as 200.
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	requestLog(inner).ServeHTTP(rr, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("access log is not JSON: %v", err)
	}
	if entry["status"] != float64(http.StatusOK) {
		t.Errorf("expected status 200, got %v", entry["status"])
	}
}

func TestRouter_RequestIDHeader(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header")
	}
}
