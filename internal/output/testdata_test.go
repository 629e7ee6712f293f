package output

import (
	"github.com/dshills/prsentry/internal/delivery"
	"github.com/dshills/prsentry/internal/heuristic"
	"github.com/dshills/prsentry/internal/pipeline"
	"github.com/dshills/prsentry/internal/review"
)

func sampleReport() *pipeline.Report {
	commits := heuristic.ScoreCommits([]string{"Fix bug", "wip"})
	return &pipeline.Report{
		Repo:     "a/b",
		PRNumber: 7,
		Stages:   []pipeline.Stage{pipeline.StageExtracting, pipeline.StageAnalyzing, pipeline.StageDone},
		Analyses: []pipeline.Analysis{{
			Mode: review.ModeReview,
			Result: review.Result{
				OverallAssessment: "Needs a nil check before merge.",
				Approve:           false,
				Concerns: []review.Concern{
					{FilePath: "util.go", LineStart: 3, LineEnd: 3, Severity: review.SeverityLow, Type: "Readability", Description: "Long line"},
					{FilePath: "main.go", LineStart: 10, LineEnd: 12, Severity: review.SeverityHigh, Type: "Bug", Description: "x could be nil here", Suggestion: "if x == nil { return }"},
				},
			},
		}},
		Commits:  &commits,
		Findings: heuristic.PlaceholderFindings,
		Outcomes: []delivery.Outcome{
			{Destination: "comment", Mode: "review", Status: delivery.StatusSucceeded, Detail: "comment posted with token scheme"},
			{Destination: "chat", Mode: "review", Status: delivery.StatusSkipped, Detail: "missing credential: destination skipped"},
		},
		Timing: pipeline.Timing{TotalMs: 1200, FetchMs: 100, LLMMs: 1000},
	}
}
