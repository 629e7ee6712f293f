package review

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dshills/prsentry/internal/providers"
	"github.com/dshills/prsentry/internal/redact"
)

// Retriever returns up to k codebase fragments relevant to query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]string, error)
}

// Options tunes an Engine.
type Options struct {
	TopK          int
	Temperature   float64
	MaxTokens     int
	RedactSecrets bool
	// RedactPaths lists glob patterns of files whose patches are withheld
	// entirely.
	RedactPaths []string
}

// DefaultOptions returns the standard analysis parameters.
func DefaultOptions() Options {
	return Options{
		TopK:          4,
		Temperature:   0.1,
		MaxTokens:     2048,
		RedactSecrets: true,
		RedactPaths:   []string{"**/.env", "**/*.pem", "**/*secrets*"},
	}
}

// Engine performs retrieval-augmented analysis of a diff. It holds no
// per-run state and is safe for concurrent use.
type Engine struct {
	retriever Retriever
	reasoner  providers.Reasoner
	opts      Options
	logger    *slog.Logger
}

// NewEngine creates an Engine. retriever may be nil, in which case prompts
// carry no codebase context.
func NewEngine(retriever Retriever, reasoner providers.Reasoner, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		retriever: retriever,
		reasoner:  reasoner,
		opts:      opts,
		logger:    logger,
	}
}

// Analyze retrieves context for diff, builds the prompt for mode and returns
// the reasoning service's raw answer. A failed retrieval degrades to an empty
// context; a failed reasoning call is returned as *AnalysisError.
func (e *Engine) Analyze(ctx context.Context, diff string, mode Mode) (string, error) {
	if strings.TrimSpace(diff) == "" {
		return "", ErrEmptyDiff
	}

	if e.opts.RedactSecrets {
		diff = redact.Diff(diff, e.opts.RedactPaths)
	}

	contexts := e.retrieve(ctx, diff)

	req := providers.Request{
		SystemPrompt: SystemPrompt(mode),
		UserPrompt:   BuildUserPrompt(diff, contexts),
		Temperature:  e.opts.Temperature,
		MaxTokens:    e.opts.MaxTokens,
	}

	start := time.Now()
	resp, err := e.reasoner.Complete(ctx, req)
	if err != nil {
		return "", &AnalysisError{Mode: mode, Err: err}
	}
	e.logger.Debug("reasoning complete",
		"mode", mode,
		"provider", e.reasoner.Name(),
		"contexts", len(contexts),
		"tokens", resp.TokensUsed,
		"llm_ms", time.Since(start).Milliseconds())

	return resp.Content, nil
}

func (e *Engine) retrieve(ctx context.Context, query string) []string {
	if e.retriever == nil || e.opts.TopK <= 0 {
		return nil
	}
	contexts, err := e.retriever.Retrieve(ctx, query, e.opts.TopK)
	if err != nil {
		e.logger.Warn("retrieval failed, continuing without codebase context", "error", err)
		return nil
	}
	return contexts
}
