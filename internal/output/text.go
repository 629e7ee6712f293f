package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/prsentry/internal/heuristic"
	"github.com/dshills/prsentry/internal/pipeline"
	"github.com/dshills/prsentry/internal/review"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *pipeline.Report) error {
	ew := &errWriter{w: w}

	ew.println("prsentry report")
	if report.Repo != "" {
		ew.printf("Pull request: %s #%d\n", report.Repo, report.PRNumber)
	}
	if len(report.Stages) > 0 {
		ew.printf("Stages: %s\n", joinStages(report.Stages))
	}
	if report.TestMode {
		ew.println("Test mode: analysis skipped")
	}
	ew.println(strings.Repeat("─", 60))

	for _, a := range report.Analyses {
		writeAnalysis(ew, a)
	}

	if report.Commits != nil || len(report.Findings) > 0 {
		ew.println("\nHeuristic baseline")
		ew.println(strings.Repeat("─", 40))
		if c := report.Commits; c != nil {
			ew.printf("  Commits: %d (%d good, %d bad), quality %d%%\n", c.Total, c.Good, c.Bad, c.QualityScore)
			for _, s := range c.Suggestions {
				ew.printf("    - %s\n", s)
			}
		}
		if len(report.Findings) > 0 {
			if !heuristic.Matched(report.Findings) {
				ew.println("  Pattern scan: no matches (generic placeholder findings)")
			}
			for _, f := range report.Findings {
				ew.printf("  [%s] %s (%s): %s\n", f.Severity, f.Title, f.File, f.Description)
			}
		}
	}

	if len(report.Outcomes) > 0 {
		ew.println("\nDelivery")
		ew.println(strings.Repeat("─", 40))
		for _, o := range report.Outcomes {
			label := o.Destination
			if o.Mode != "" {
				label += " (" + o.Mode + ")"
			}
			ew.printf("  %-24s %-9s %s\n", label, o.Status, o.Detail)
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Completed in %dms (fetch: %dms, LLM: %dms)\n",
		report.Timing.TotalMs, report.Timing.FetchMs, report.Timing.LLMMs)

	return ew.err
}

func writeAnalysis(ew *errWriter, a pipeline.Analysis) {
	res := a.Result
	decision := "Request changes"
	if res.Approve {
		decision = "Approve"
	}
	counts := review.CountSeverities(res.Concerns)

	ew.printf("\n%s: %s\n", a.Mode.Title(), decision)
	ew.printf("Concerns: %d", counts.Total())
	if counts.Total() > 0 {
		ew.printf(" (%d critical, %d high, %d medium, %d low)",
			counts.Critical, counts.High, counts.Medium, counts.Low)
	}
	ew.println("")
	if a.ParseError != "" {
		ew.printf("Warning: %s\n", a.ParseError)
	}
	for _, line := range wrapText(res.OverallAssessment, 70) {
		ew.printf("  %s\n", line)
	}

	if len(res.Concerns) == 0 {
		ew.println("\n  No issues found. Looks good!")
		return
	}

	// Concerns keep the order the model reported them in.
	for i, c := range res.Concerns {
		ew.printf("\n  %d. %s %s  %s:%d-%d  %s\n",
			i+1, severityIcon(c.Severity), c.Severity, orUnknown(c.FilePath), c.LineStart, c.LineEnd, c.Type)
		if c.VulnerabilityType != "" {
			ew.printf("     Vulnerability: %s\n", c.VulnerabilityType)
		}
		for _, line := range wrapText(c.Description, 70) {
			ew.printf("     %s\n", line)
		}
		if c.Suggestion != "" {
			ew.println("     Suggestion:")
			for _, line := range wrapText(c.Suggestion, 70) {
				ew.printf("       %s\n", line)
			}
		}
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func joinStages(stages []pipeline.Stage) string {
	parts := make([]string, len(stages))
	for i, s := range stages {
		parts[i] = string(s)
	}
	return strings.Join(parts, " -> ")
}

func orUnknown(path string) string {
	if path == "" {
		return "unknown"
	}
	return path
}

func severityIcon(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return "[!!!]"
	case review.SeverityHigh:
		return "[!!]"
	case review.SeverityMedium:
		return "[!]"
	case review.SeverityLow:
		return "[-]"
	default:
		return "[?]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
