package swapicache

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestZerologLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))

	logger.Debug("debug message", "key", "people/1")
	logger.Info("info message")
	logger.Warn("warn message", "statusCode", 404)
	logger.Error("error message")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 log lines, got %d: %s", len(lines), buf.String())
	}

	var first map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON log line: %v", err)
	}
	if first["level"] != "debug" || first["message"] != "debug message" || first["key"] != "people/1" {
		t.Errorf("unexpected first line: %v", first)
	}
	if !strings.Contains(lines[2], `"statusCode":404`) {
		t.Errorf("missing structured field: %s", lines[2])
	}
}

func TestClientDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	transport := newFakeTransport()
	transport.set("people/1", MustParseDocument(lukeJSON), nil)
	client := New(
		WithTransport(transport),
		WithLogger(NewZerologLogger(zerolog.New(&buf))),
		WithRequestIDGenerator(func() string { return "req-42" }),
	)

	_, _ = client.Fetch(context.Background(), "people/1")
	_, _ = client.Fetch(context.Background(), "people/1")
	_, _ = client.Fetch(context.Background(), "people/999")

	out := buf.String()
	for _, want := range []string{"Fetching resource", "Successfully fetched data", "Using cached data", "Fetch failed", `"requestID":"req-42"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestClientDebugLoggingDisabled(t *testing.T) {
	var buf bytes.Buffer
	transport := newFakeTransport()
	transport.set("people/1", MustParseDocument(lukeJSON), nil)
	client := New(
		WithTransport(transport),
		WithLogger(NewZerologLogger(zerolog.New(&buf))),
		WithDebug(false),
	)

	_, _ = client.Fetch(context.Background(), "people/1")
	_, _ = client.Fetch(context.Background(), "people/1")
	_, _ = client.Fetch(context.Background(), "people/999")

	out := buf.String()
	if strings.Contains(out, "Using cached data") || strings.Contains(out, "Successfully fetched data") {
		t.Errorf("debug lines logged with debug off:\n%s", out)
	}
	if !strings.Contains(out, "Fetch failed") {
		t.Errorf("failures are logged regardless of debug:\n%s", out)
	}
}
