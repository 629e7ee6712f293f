package output

import (
	"io"
	"strings"

	"github.com/dshills/prsentry/internal/pipeline"
	"github.com/dshills/prsentry/internal/review"
)

// MarkdownWriter outputs each analysis as a comment-friendly markdown
// section.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *pipeline.Report) error {
	ew := &errWriter{w: w}

	ew.printf("## prsentry review")
	if report.Repo != "" {
		ew.printf(" of %s #%d", report.Repo, report.PRNumber)
	}
	ew.printf("\n\n")

	if len(report.Analyses) == 0 {
		ew.println("No analysis was run.")
		return ew.err
	}

	for _, a := range report.Analyses {
		writeMarkdownAnalysis(ew, a)
	}
	return ew.err
}

func writeMarkdownAnalysis(ew *errWriter, a pipeline.Analysis) {
	res := a.Result
	counts := review.CountSeverities(res.Concerns)
	decision := ":x: Request changes"
	if res.Approve {
		decision = ":white_check_mark: Approve"
	}

	ew.printf("### %s: %s\n\n", a.Mode.Title(), decision)
	ew.printf("%s\n\n", res.OverallAssessment)

	ew.printf("| Severity | Count |\n")
	ew.printf("|----------|-------|\n")
	ew.printf("| Critical | %d    |\n", counts.Critical)
	ew.printf("| High     | %d    |\n", counts.High)
	ew.printf("| Medium   | %d    |\n", counts.Medium)
	ew.printf("| Low      | %d    |\n", counts.Low)
	ew.printf("| **Total** | **%d** |\n\n", counts.Total())

	if counts.Total() == 0 {
		ew.println("No issues found. :white_check_mark:")
		ew.println("")
		return
	}

	ew.printf("<details>\n<summary>Concerns (%d)</summary>\n\n", len(res.Concerns))
	for i, c := range res.Concerns {
		ew.printf("#### %d. %s %s: %s\n\n", i+1, mdSeverityIcon(c.Severity), c.Severity, c.Type)
		ew.printf("**`%s:%d-%d`**", orUnknown(c.FilePath), c.LineStart, c.LineEnd)
		if c.VulnerabilityType != "" {
			ew.printf(" | %s", c.VulnerabilityType)
		}
		ew.printf("\n\n%s\n\n", c.Description)

		if c.Suggestion != "" {
			ew.printf("**Suggestion:**\n\n")
			if looksLikeCode(c.Suggestion) {
				ew.printf("```%s\n%s\n```\n\n", inferLang(c.FilePath), c.Suggestion)
			} else {
				ew.printf("> %s\n\n", strings.ReplaceAll(c.Suggestion, "\n", "\n> "))
			}
		}
		ew.printf("---\n\n")
	}
	ew.printf("</details>\n\n")
}

func mdSeverityIcon(s review.Severity) string {
	switch s {
	case review.SeverityCritical:
		return ":red_circle:"
	case review.SeverityHigh:
		return ":orange_circle:"
	case review.SeverityMedium:
		return ":yellow_circle:"
	case review.SeverityLow:
		return ":green_circle:"
	default:
		return ":white_circle:"
	}
}

func looksLikeCode(s string) bool {
	codeIndicators := []string{
		"func ", "if ", "for ", "return ", "var ", "const ",
		"def ", "class ", "import ", "from ",
		"{", "}", "=>", "->", ":=", "==",
		"()", "[];",
	}
	for _, indicator := range codeIndicators {
		if strings.Contains(s, indicator) {
			return true
		}
	}
	return false
}

func inferLang(path string) string {
	langMap := map[string]string{
		".go":   "go",
		".py":   "python",
		".js":   "javascript",
		".ts":   "typescript",
		".java": "java",
		".rb":   "ruby",
		".cpp":  "cpp",
		".c":    "c",
		".sh":   "bash",
		".sql":  "sql",
		".yaml": "yaml",
		".yml":  "yaml",
	}
	for ext, lang := range langMap {
		if strings.HasSuffix(path, ext) {
			return lang
		}
	}
	return ""
}
