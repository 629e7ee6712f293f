package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dshills/prsentry/internal/pipeline"
	"github.com/dshills/prsentry/internal/review"
)

func TestTextWriter_NoConcerns(t *testing.T) {
	report := &pipeline.Report{
		Analyses: []pipeline.Analysis{{
			Mode:   review.ModeReview,
			Result: review.Result{OverallAssessment: "Clean change.", Approve: true, Concerns: []review.Concern{}},
		}},
	}

	var buf bytes.Buffer
	w := &TextWriter{}
	if err := w.Write(&buf, report); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Code Review: Approve") {
		t.Error("Output should show the decision")
	}
	if !strings.Contains(out, "Concerns: 0") {
		t.Error("Output should show zero concerns")
	}
	if !strings.Contains(out, "No issues found") {
		t.Error("Output should say no issues found")
	}
}

func TestTextWriter_WithConcerns(t *testing.T) {
	var buf bytes.Buffer
	w := &TextWriter{}
	if err := w.Write(&buf, sampleReport()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Pull request: a/b #7",
		"EXTRACTING -> ANALYZING -> DONE",
		"Code Review: Request changes",
		"Concerns: 2 (0 critical, 1 high, 0 medium, 1 low)",
		"main.go:10-12",
		"Suggestion:",
		"quality 50%",
		"no matches (generic placeholder findings)",
		"comment (review)",
		"skipped",
		"Completed in 1200ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output missing %q:\n%s", want, out)
		}
	}

	// reported order is kept, not re-sorted by severity
	if strings.Index(out, "util.go") > strings.Index(out, "main.go") {
		t.Error("Concerns should keep their reported order")
	}
}

func TestTextWriter_TestMode(t *testing.T) {
	report := &pipeline.Report{TestMode: true, Stages: []pipeline.Stage{pipeline.StageTestShortcut}}

	var buf bytes.Buffer
	if err := (&TextWriter{}).Write(&buf, report); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.Contains(buf.String(), "Test mode") {
		t.Error("Output should mention test mode")
	}
}

func TestWrapText(t *testing.T) {
	short := "short text"
	lines := wrapText(short, 70)
	if len(lines) != 1 || lines[0] != short {
		t.Errorf("wrapText short = %v", lines)
	}

	long := strings.Repeat("word ", 30)
	lines = wrapText(long, 20)
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("Line too long (%d): %q", len(l), l)
		}
	}
}

func TestGetWriter(t *testing.T) {
	for _, f := range Formats {
		if _, err := GetWriter(f); err != nil {
			t.Errorf("GetWriter(%q) error: %v", f, err)
		}
	}
	if _, err := GetWriter("sarif"); err == nil {
		t.Error("GetWriter(sarif) should fail")
	}
}
