package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/prsentry/internal/config"
	"github.com/dshills/prsentry/internal/delivery"
	"github.com/dshills/prsentry/internal/index"
	"github.com/dshills/prsentry/internal/providers"
	"github.com/dshills/prsentry/internal/review"
)

// app holds the effective configuration of one command invocation and
// builds the collaborators it needs.
type app struct {
	cfg    config.Config
	logger *slog.Logger
}

func loadApp(cmd *cobra.Command, opts *Options, overrides map[string]string) (*app, error) {
	cfg, err := config.Load(config.LoadOptions{
		ConfigPath: opts.ConfigPath,
		EnvFile:    opts.EnvFile,
		Environ:    opts.environ,
		Overrides:  overrides,
	})
	if err != nil {
		return nil, usageError(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, usageError(fmt.Errorf("invalid configuration: %w", err))
	}
	return &app{cfg: cfg, logger: LoggerFromContext(cmd.Context())}, nil
}

func (a *app) reasoner() (providers.Reasoner, error) {
	r := a.cfg.Reasoning
	return providers.New(providers.Settings{
		Provider: r.Provider,
		Model:    r.Model,
		APIKey:   r.APIKey,
		BaseURL:  r.BaseURL,
		Timeout:  a.cfg.Timeouts.Reasoning,
	})
}

// retriever returns nil when no codebase is configured.
func (a *app) retriever() (*index.Retriever, error) {
	rc := a.cfg.Retrieval
	if rc.CodebasePath == "" {
		return nil, nil
	}
	dir := rc.IndexDir
	if dir == "" {
		d, err := index.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	return index.NewRetriever(index.Options{
		SourcePath:   rc.CodebasePath,
		Dir:          dir,
		ChunkSize:    rc.ChunkSize,
		ChunkOverlap: rc.ChunkOverlap,
	}, a.logger.With("component", "index")), nil
}

func (a *app) engine() (*review.Engine, error) {
	reasoner, err := a.reasoner()
	if err != nil {
		return nil, err
	}
	r, err := a.retriever()
	if err != nil {
		return nil, err
	}

	var retriever review.Retriever
	if r != nil {
		retriever = r
	} else {
		a.logger.Info("no codebase configured, prompts carry no codebase context")
	}

	opts := review.Options{
		TopK:          a.cfg.Retrieval.TopK,
		Temperature:   a.cfg.Reasoning.Temperature,
		MaxTokens:     a.cfg.Reasoning.MaxTokens,
		RedactSecrets: a.cfg.Privacy.RedactSecrets,
		RedactPaths:   a.cfg.Privacy.RedactPaths,
	}
	return review.NewEngine(retriever, reasoner, opts, a.logger.With("component", "engine")), nil
}

func (a *app) multiplexer() (*delivery.Multiplexer, error) {
	var dests []delivery.Destination
	if a.cfg.Comment.Enabled {
		gh, err := delivery.NewGitHub(delivery.GitHubOptions{
			Token:       a.cfg.Comment.Token,
			BaseURL:     a.cfg.Comment.APIURL,
			Timeout:     a.cfg.Timeouts.Comment,
			Inline:      a.cfg.Comment.Inline,
			MaxConcerns: a.cfg.Comment.MaxConcerns,
		}, a.logger.With("destination", delivery.DestinationComment))
		if err != nil {
			return nil, err
		}
		dests = append(dests, gh)
	}
	if a.cfg.Chat.Enabled {
		dests = append(dests, delivery.NewSlack(a.cfg.Chat.WebhookURL, a.cfg.Timeouts.Chat,
			a.logger.With("destination", delivery.DestinationChat)))
	}
	return delivery.NewMultiplexer(a.logger, dests...), nil
}

// readInput reads path, or in when path is "-".
func readInput(path string, in io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(in)
	}
	return os.ReadFile(path)
}
