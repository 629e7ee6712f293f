package heuristic

import (
	"strings"

	"github.com/dshills/prsentry/internal/diff"
)

// Finding is a pattern-matched vulnerability hint.
type Finding struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	File        string `json:"file"`
	// Placeholder marks the fixed fallback findings returned when no
	// pattern matched. They do not describe the scanned code.
	Placeholder bool `json:"placeholder,omitempty"`
}

var sourceExtensions = map[string]bool{
	".py":   true,
	".js":   true,
	".ts":   true,
	".jsx":  true,
	".tsx":  true,
	".java": true,
	".cpp":  true,
	".c":    true,
	".go":   true,
}

var sqlVerbs = []string{"select", "insert", "update", "delete"}

// PlaceholderFindings is returned by ScanVulnerabilities when nothing matched.
var PlaceholderFindings = []Finding{
	{
		Title:       "Missing Input Validation",
		Description: "Function lacks proper input validation",
		Severity:    "medium",
		File:        "src/utils.py:78",
		Placeholder: true,
	},
	{
		Title:       "Potential Memory Leak",
		Description: "Resource not properly closed",
		Severity:    "low",
		File:        "src/database.py:45",
		Placeholder: true,
	},
}

// ScanVulnerabilities pattern-matches the patches of source files. When no
// pattern matches it returns a copy of PlaceholderFindings, never an empty
// slice.
func ScanVulnerabilities(files []diff.FileDiff) []Finding {
	var findings []Finding
	for _, f := range files {
		if !sourceExtensions[f.Ext()] {
			continue
		}
		patch := strings.ToLower(f.Text)

		if strings.Contains(patch, "password") && strings.Contains(patch, "=") {
			findings = append(findings, Finding{
				Title:       "Potential Hardcoded Password",
				Description: "Password or credential found in code changes",
				Severity:    "high",
				File:        f.Path,
			})
		}
		if strings.Contains(patch, "sql") && containsAny(patch, sqlVerbs) {
			findings = append(findings, Finding{
				Title:       "Potential SQL Injection",
				Description: "SQL query found - ensure proper parameterization",
				Severity:    "medium",
				File:        f.Path,
			})
		}
		if strings.Contains(patch, "eval(") || strings.Contains(patch, "exec(") {
			findings = append(findings, Finding{
				Title:       "Code Injection Risk",
				Description: "Use of eval() or exec() can be dangerous",
				Severity:    "critical",
				File:        f.Path,
			})
		}
	}

	if len(findings) == 0 {
		return append([]Finding(nil), PlaceholderFindings...)
	}
	return findings
}

// Matched reports whether findings came from real pattern matches.
func Matched(findings []Finding) bool {
	for _, f := range findings {
		if !f.Placeholder {
			return true
		}
	}
	return false
}
