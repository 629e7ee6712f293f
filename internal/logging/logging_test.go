package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		" WARN ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"info":    LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelInfo, FormatText)

	logger.Debug("hidden")
	logger.Info("event extracted", "stage", "EXTRACTING", "pr", 7)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug record should be filtered at info level")
	}
	if !strings.Contains(out, "event extracted") || !strings.Contains(out, "stage=EXTRACTING") {
		t.Errorf("unexpected output: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("non-terminal writer should not get color codes")
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelDebug, FormatJSON)
	logger.Debug("reasoning complete", "llm_ms", 12)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["msg"] != "reasoning complete" || rec["llm_ms"] != float64(12) {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestDiscard(t *testing.T) {
	Discard().Error("nothing happens")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "text": FormatText, "JSON": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for unknown format")
	}
}
