package server

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/akiroussama/codeClashServer/internal/httputil"
	"github.com/akiroussama/codeClashServer/internal/logging"
	"github.com/akiroussama/codeClashServer/internal/middleware"
)

// statusRecorder captures the response status for the access log. Hijack is
// forwarded so websocket upgrades still work through the wrapper.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// requestLog emits one access log line per completed request.
func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		attrs := []any{
			logging.Method(r.Method),
			logging.Path(r.URL.Path),
			logging.Status(rec.status),
			logging.IP(httputil.GetClientIP(r)),
			slog.Duration("duration", time.Since(start)),
		}
		if reqID := middleware.GetRequestID(r.Context()); reqID != "" {
			attrs = append(attrs, slog.String("request_id", reqID))
		}
		slog.Info("request completed", attrs...)
	})
}
