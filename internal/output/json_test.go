package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/dshills/prsentry/internal/pipeline"
)

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &JSONWriter{}
	if err := w.Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var parsed pipeline.Report
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	if parsed.Repo != "a/b" {
		t.Errorf("Repo = %q, want %q", parsed.Repo, "a/b")
	}
	if len(parsed.Analyses) != 1 || len(parsed.Analyses[0].Result.Concerns) != 2 {
		t.Fatalf("unexpected analyses: %+v", parsed.Analyses)
	}
	if got := parsed.Analyses[0].Result.Concerns[1].LineStart; got != 10 {
		t.Errorf("LineStart = %d, want 10", got)
	}
	if len(parsed.Outcomes) != 2 || parsed.Outcomes[1].Status != "skipped" {
		t.Errorf("unexpected outcomes: %+v", parsed.Outcomes)
	}

	var raw map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	concerns := raw["analyses"].([]any)[0].(map[string]any)["result"].(map[string]any)["concerns"].([]any)
	if _, ok := concerns[0].(map[string]any)["line_number_start"]; !ok {
		t.Error("concerns should use the wire field names")
	}
}
