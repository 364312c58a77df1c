package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akiroussama/codeClashServer/internal/handlers"
	"github.com/akiroussama/codeClashServer/internal/middleware"
)

// NewRouter constructs a ServeMux with all API routes registered.
func NewRouter(h *handlers.Handler, ws *handlers.WSHandler, health *handlers.HealthHandler) http.Handler {
	mux := http.NewServeMux()

	// Producer + query endpoints
	mux.HandleFunc("/update", h.HandleUpdate)
	mux.HandleFunc("/events", h.HandleEvents)
	mux.HandleFunc("/test-status", h.HandleTestStatus)
	mux.HandleFunc("/latest-test-results", h.HandleLatestTestResults)
	mux.HandleFunc("/latest-test-results-by-user", h.HandleLatestTestResultsByUser)
	mux.HandleFunc("/filtered-test-results", h.HandleFilteredTestResults)

	// Observer channel
	mux.HandleFunc("/ws", ws.HandleConnect)

	// Health endpoints
	mux.HandleFunc("/healthz", health.Health)
	mux.HandleFunc("/readyz", health.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	cors := middleware.CORS(middleware.DefaultCORSConfig())
	return middleware.RequestID(cors(requestLog(mux)))
}
