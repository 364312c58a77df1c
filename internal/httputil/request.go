package httputil

import (
	"net/http"
	"strconv"
	"strings"
)

// GetClientIP extracts the real client IP from request headers, handling
// reverse-proxy setups. Order: X-Forwarded-For (first entry), X-Real-IP,
// then RemoteAddr.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// ParseOptionalInt parses a query parameter as an integer filter value.
// Returns (nil, true) when the parameter is absent, and (nil, false) when
// it is present but not an integer.
func ParseOptionalInt(s string) (*int, bool) {
	if s == "" {
		return nil, true
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, false
	}
	return &v, true
}
