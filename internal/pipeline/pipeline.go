package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dshills/prsentry/internal/delivery"
	"github.com/dshills/prsentry/internal/diff"
	"github.com/dshills/prsentry/internal/heuristic"
	"github.com/dshills/prsentry/internal/payload"
	"github.com/dshills/prsentry/internal/review"
)

// Stage is a pipeline state.
type Stage string

const (
	StageFetching     Stage = "FETCHING"
	StageExtracting   Stage = "EXTRACTING"
	StageTestShortcut Stage = "TEST_SHORTCUT"
	StageAnalyzing    Stage = "ANALYZING"
	StageValidating   Stage = "VALIDATING"
	StageScoring      Stage = "SCORING"
	StageDelivering   Stage = "DELIVERING"
	StageDone         Stage = "DONE"
)

// Source supplies the raw webhook body.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Analyzer produces the raw model answer for a diff.
type Analyzer interface {
	Analyze(ctx context.Context, diff string, mode review.Mode) (string, error)
}

// StageError is a terminal failure. The run stopped at Stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Options selects what a run does.
type Options struct {
	// Modes run in order; each result is delivered as its own message.
	Modes []review.Mode
	// TestMode skips analysis and posts a fixed comment only.
	TestMode bool
}

// Orchestrator sequences one pipeline run. It keeps no state between runs
// and may be shared by concurrent callers.
type Orchestrator struct {
	source   Source
	analyzer Analyzer
	mux      *delivery.Multiplexer
	opts     Options
	logger   *slog.Logger
}

// New creates an Orchestrator. source may be nil when only Process is used.
func New(source Source, analyzer Analyzer, mux *delivery.Multiplexer, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Modes) == 0 {
		opts.Modes = []review.Mode{review.ModeReview}
	}
	if mux == nil {
		mux = delivery.NewMultiplexer(logger)
	}
	return &Orchestrator{
		source:   source,
		analyzer: analyzer,
		mux:      mux,
		opts:     opts,
		logger:   logger,
	}
}

// Run fetches the webhook payload and processes it.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{TestMode: o.opts.TestMode}
	report.enter(StageFetching)

	if o.source == nil {
		return report, &StageError{Stage: StageFetching, Err: errors.New("no webhook source configured")}
	}
	body, err := o.source.Fetch(ctx)
	report.Timing.FetchMs = time.Since(start).Milliseconds()
	if err != nil {
		o.logger.Error("webhook fetch failed", "stage", StageFetching, "error", err)
		return report, &StageError{Stage: StageFetching, Err: err}
	}
	o.logger.Debug("webhook fetched", "stage", StageFetching, "bytes", len(body))

	err = o.process(ctx, body, report)
	report.Timing.TotalMs = time.Since(start).Milliseconds()
	return report, err
}

// Process runs every stage after FETCHING on an already retrieved body.
func (o *Orchestrator) Process(ctx context.Context, body []byte) (*Report, error) {
	start := time.Now()
	report := &Report{TestMode: o.opts.TestMode}
	err := o.process(ctx, body, report)
	report.Timing.TotalMs = time.Since(start).Milliseconds()
	return report, err
}

func (o *Orchestrator) process(ctx context.Context, body []byte, report *Report) error {
	report.enter(StageExtracting)
	ex, err := payload.Extract(body, o.opts.TestMode)
	report.Repo = ex.Event.Repo()
	report.PRNumber = int(ex.Event.PRNumber)
	log := o.logger.With("repo", report.Repo, "pr", report.PRNumber)
	if err != nil {
		log.Error("payload unusable", "stage", StageExtracting, "error", err)
		return &StageError{Stage: StageExtracting, Err: err}
	}
	log.Info("event extracted", "stage", StageExtracting, "commits", len(ex.Event.Commits), "diff_bytes", len(ex.Diff))

	target := delivery.Target{
		Owner:    ex.Event.RepoOwner,
		Repo:     ex.Event.RepoName,
		PRNumber: int(ex.Event.PRNumber),
		Title:    ex.Event.PRTitle,
		Diff:     ex.Diff,
	}

	if o.opts.TestMode {
		report.enter(StageTestShortcut)
		log.Info("test mode, posting integration comment only", "stage", StageTestShortcut)
		report.Outcomes = o.mux.Only(delivery.DestinationComment).
			Deliver(ctx, target, delivery.Message{Text: delivery.TestCommentText})
		report.enter(StageDone)
		return nil
	}

	if o.analyzer == nil {
		return &StageError{Stage: StageAnalyzing, Err: errors.New("no analyzer configured")}
	}

	raws := make([]string, len(o.opts.Modes))
	report.enter(StageAnalyzing)
	llmStart := time.Now()
	for i, mode := range o.opts.Modes {
		raw, err := o.analyzer.Analyze(ctx, ex.Diff, mode)
		if err != nil {
			log.Error("analysis failed", "stage", StageAnalyzing, "mode", mode, "error", err)
			report.Timing.LLMMs = time.Since(llmStart).Milliseconds()
			return &StageError{Stage: StageAnalyzing, Err: err}
		}
		raws[i] = raw
	}
	report.Timing.LLMMs = time.Since(llmStart).Milliseconds()
	log.Info("analysis complete", "stage", StageAnalyzing, "modes", len(o.opts.Modes), "llm_ms", report.Timing.LLMMs)

	report.enter(StageValidating)
	for i, mode := range o.opts.Modes {
		res, err := review.Validate(raws[i])
		a := Analysis{Mode: mode, Result: res}
		if err != nil {
			a.ParseError = err.Error()
			log.Warn("model response did not match contract, using fallback result",
				"stage", StageValidating, "mode", mode, "error", err)
		}
		report.Analyses = append(report.Analyses, a)
	}

	report.enter(StageScoring)
	commits := heuristic.ScoreCommits(ex.Event.Messages())
	findings := heuristic.ScanVulnerabilities(diff.ParseUnified(ex.Diff))
	report.Commits = &commits
	report.Findings = findings
	log.Info("heuristic baseline", "stage", StageScoring,
		"commit_quality", commits.QualityScore, "scan_matched", heuristic.Matched(findings))

	report.enter(StageDelivering)
	baseline := &delivery.Baseline{Commits: commits, Findings: findings}
	for i := range report.Analyses {
		a := &report.Analyses[i]
		a.Outcomes = o.mux.Deliver(ctx, target, delivery.Message{
			Mode:     a.Mode,
			Result:   a.Result,
			Baseline: baseline,
		})
		report.Outcomes = append(report.Outcomes, a.Outcomes...)
	}
	log.Info("delivery complete", "stage", StageDelivering,
		"outcomes", len(report.Outcomes), "failed", delivery.Failed(report.Outcomes))

	report.enter(StageDone)
	return nil
}
