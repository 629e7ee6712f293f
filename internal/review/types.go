package review

import (
	"fmt"
	"strings"
)

// Mode selects the prompt template an analysis runs with.
type Mode string

const (
	ModeReview        Mode = "review"
	ModeVulnerability Mode = "vulnerability"
)

// AllModes lists every supported analysis mode in delivery order.
var AllModes = []Mode{ModeReview, ModeVulnerability}

// ParseMode accepts the canonical mode names and their long aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "review", "pr_review":
		return ModeReview, nil
	case "vulnerability", "vulnerability_check", "vuln":
		return ModeVulnerability, nil
	default:
		return "", fmt.Errorf("unknown analysis mode: %q", s)
	}
}

// Title returns a human-readable label for headings.
func (m Mode) Title() string {
	switch m {
	case ModeVulnerability:
		return "Vulnerability Scan"
	default:
		return "Code Review"
	}
}

// Severity represents the severity level of a concern.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// ParseSeverity normalizes s to one of the four severity literals.
func ParseSeverity(s string) (Severity, bool) {
	switch sev := Severity(strings.ToUpper(strings.TrimSpace(s))); sev {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return sev, true
	default:
		return "", false
	}
}

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Concern is a single issue raised by an analysis.
type Concern struct {
	FilePath          string   `json:"file_path"`
	LineStart         int      `json:"line_number_start"`
	LineEnd           int      `json:"line_number_end"`
	Severity          Severity `json:"severity"`
	Type              string   `json:"type"`
	VulnerabilityType string   `json:"vulnerability_type,omitempty"`
	Description       string   `json:"description"`
	Suggestion        string   `json:"suggestion"`
}

// Result is the validated outcome of one analysis.
type Result struct {
	OverallAssessment string    `json:"overall_assessment"`
	Approve           bool      `json:"approve"`
	Concerns          []Concern `json:"concerns"`
}

const (
	// ParseFailureAssessment is the assessment of a result produced from
	// unparseable model output.
	ParseFailureAssessment = "Failed to parse the AI model's response"
	// ParsingErrorType is the concern type carrying the raw model output.
	ParsingErrorType = "Parsing Error"
)

// FallbackResult builds the result substituted for unparseable output.
func FallbackResult(raw string) Result {
	return Result{
		OverallAssessment: ParseFailureAssessment,
		Approve:           false,
		Concerns: []Concern{{
			Severity:    SeverityCritical,
			Type:        ParsingErrorType,
			Description: raw,
		}},
	}
}

// SeverityCounts holds counts by severity level.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Total returns the number of counted concerns.
func (c SeverityCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low
}

// CountSeverities tallies concerns by severity.
func CountSeverities(concerns []Concern) SeverityCounts {
	var c SeverityCounts
	for _, con := range concerns {
		switch con.Severity {
		case SeverityCritical:
			c.Critical++
		case SeverityHigh:
			c.High++
		case SeverityMedium:
			c.Medium++
		case SeverityLow:
			c.Low++
		}
	}
	return c
}

// HighestSeverity returns the most severe level present, or "" when empty.
func HighestSeverity(concerns []Concern) Severity {
	var highest Severity
	for _, c := range concerns {
		if SeverityRank(c.Severity) > SeverityRank(highest) {
			highest = c.Severity
		}
	}
	return highest
}
