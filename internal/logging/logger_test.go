package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/akiroussama/codeClashServer/internal/middleware"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		level  slog.Level
		format string
	}{
		{
			name:   "json format with info level",
			level:  slog.LevelInfo,
			format: "json",
		},
		{
			name:   "text format with debug level",
			level:  slog.LevelDebug,
			format: "text",
		},
		{
			name:   "default format (json) with error level",
			level:  slog.LevelError,
			format: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level, tt.format)
			if logger == nil {
				t.Fatal("expected non-nil logger")
			}
			if logger.Logger == nil {
				t.Fatal("expected non-nil underlying logger")
			}
		})
	}
}

func TestWithContext_RequestID(t *testing.T) {
	logger := New(slog.LevelInfo, "json")

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	enriched := logger.WithContext(ctx)
	if enriched == nil {
		t.Fatal("expected non-nil logger from WithContext")
	}

	// A context without a request ID returns the base logger unchanged.
	if got := logger.WithContext(context.Background()); got != logger.Logger {
		t.Error("expected base logger for context without request ID")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFields(t *testing.T) {
	if attr := Service("relay"); attr.Key != FieldService || attr.Value.String() != "relay" {
		t.Errorf("Service() = %v", attr)
	}
	if attr := Username("alice"); attr.Key != FieldUsername || attr.Value.String() != "alice" {
		t.Errorf("Username() = %v", attr)
	}
	if attr := EventID(7); attr.Key != FieldEventID || attr.Value.Int64() != 7 {
		t.Errorf("EventID() = %v", attr)
	}
}
