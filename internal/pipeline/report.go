package pipeline

import (
	"github.com/dshills/prsentry/internal/delivery"
	"github.com/dshills/prsentry/internal/heuristic"
	"github.com/dshills/prsentry/internal/review"
)

// Report describes one pipeline run.
type Report struct {
	Repo     string                         `json:"repo,omitempty"`
	PRNumber int                            `json:"prNumber,omitempty"`
	TestMode bool                           `json:"testMode"`
	Stages   []Stage                        `json:"stages"`
	Analyses []Analysis                     `json:"analyses,omitempty"`
	Commits  *heuristic.CommitQualityReport `json:"commits,omitempty"`
	Findings []heuristic.Finding            `json:"findings,omitempty"`
	Outcomes []delivery.Outcome             `json:"outcomes"`
	Timing   Timing                         `json:"timing"`
}

// Analysis is the validated result of one mode.
type Analysis struct {
	Mode   review.Mode   `json:"mode"`
	Result review.Result `json:"result"`
	// ParseError is set when Result is the fallback for unparseable output.
	ParseError string             `json:"parseError,omitempty"`
	Outcomes   []delivery.Outcome `json:"outcomes,omitempty"`
}

// Timing holds stage durations in milliseconds.
type Timing struct {
	TotalMs int64 `json:"totalMs"`
	FetchMs int64 `json:"fetchMs"`
	LLMMs   int64 `json:"llmMs"`
}

func (r *Report) enter(s Stage) {
	r.Stages = append(r.Stages, s)
}

// Last returns the most recent stage entered.
func (r *Report) Last() Stage {
	if len(r.Stages) == 0 {
		return ""
	}
	return r.Stages[len(r.Stages)-1]
}

// Reached reports whether the run entered stage s.
func (r *Report) Reached(s Stage) bool {
	for _, st := range r.Stages {
		if st == s {
			return true
		}
	}
	return false
}

// Failed counts failed delivery outcomes.
func (r *Report) Failed() int {
	return delivery.Failed(r.Outcomes)
}
