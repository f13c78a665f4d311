package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_Format(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info", "json").Info("hello", "rows", 3)
	if !strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), `"rows":3`) {
		t.Errorf("json output = %q", buf.String())
	}

	buf.Reset()
	New(&buf, "info", "text").Info("hello", "rows", 3)
	if !strings.Contains(buf.String(), "rows=3") {
		t.Errorf("text output = %q", buf.String())
	}

	buf.Reset()
	New(&buf, "warn", "text").Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %q", buf.String())
	}
}

func TestWithFields_RequestID(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	slog.SetDefault(New(&buf, "debug", "text"))

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	WithFields(ctx, "session_id", "abc").Info("sorted")

	out := buf.String()
	for _, want := range []string{"request_id=req-42", "session_id=abc", "msg=sorted"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestSetupFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	path := filepath.Join(t.TempDir(), "tableview.log")
	closer, err := SetupFile(path, "info", "text")
	if err != nil {
		t.Fatalf("SetupFile() error = %v", err)
	}
	slog.Info("written to file")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file = %q", data)
	}

	closer, err = SetupFile("", "info", "text")
	if err != nil {
		t.Fatalf("SetupFile(\"\") error = %v", err)
	}
	closer.Close()
}
