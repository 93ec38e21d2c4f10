package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	mcperrors "github.com/modelctx/mcp-client-go/pkg/errors"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, NewTextFormatter())

	logger.Debug("hidden")
	logger.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message should be filtered at the default level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("info message should pass the default level")
	}

	buf.Reset()
	logger.SetLevel(DebugLevel)
	logger.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Error("debug message should pass after lowering the level")
	}
}

func TestWithFieldsAccumulate(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, NewTextFormatter()).
		WithFields(String("component", "session")).
		WithFields(Int("attempt", 2))

	logger.Info("retrying")

	out := buf.String()
	if !strings.Contains(out, "session") {
		t.Errorf("expected component in output, got %q", out)
	}
	if !strings.Contains(out, "attempt=2") {
		t.Errorf("expected attempt field in output, got %q", out)
	}
}

func TestWithErrorExtractsCode(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, NewTextFormatter())

	logger.WithError(mcperrors.RequestTimeout("ping", "1s")).Warn("request failed")

	out := buf.String()
	if !strings.Contains(out, "error_code=-32010") {
		t.Errorf("expected error_code field, got %q", out)
	}
	if !strings.Contains(out, "error_category=timeout") {
		t.Errorf("expected error_category field, got %q", out)
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, NewJSONFormatter())

	logger.Info("connected", String("server", "srv"), Int("tools", 3))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["msg"] != "connected" {
		t.Errorf("msg = %v, want connected", entry["msg"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
	if entry["server"] != "srv" {
		t.Errorf("server = %v, want srv", entry["server"])
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	// Must not panic and must stay silent through the chain.
	logger.WithFields(String("k", "v")).WithError(nil).Error("ignored")
}
