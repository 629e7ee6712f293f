package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/dshills/prsentry/internal/output"
	"github.com/dshills/prsentry/internal/payload"
	"github.com/dshills/prsentry/internal/pipeline"
)

// reasoningFlags maps the flags shared by run and analyze to config keys.
var reasoningFlags = map[string]string{
	"provider": "provider",
	"model":    "model",
	"codebase": "codebasePath",
	"mode":     "modes",
}

func addReasoningFlags(cmd *cobra.Command) {
	cmd.Flags().String("provider", "", "Reasoning provider (nvidia, openai, anthropic, ollama, lmstudio)")
	cmd.Flags().String("model", "", "Model name")
	cmd.Flags().String("codebase", "", "Codebase dump file or directory used for retrieval")
	cmd.Flags().String("mode", "", "Analysis modes, comma-separated (review, vulnerability)")
}

// changedOverrides returns the config overrides for every flag in keys the
// user set explicitly.
func changedOverrides(cmd *cobra.Command, keys map[string]string) map[string]string {
	m := make(map[string]string)
	for flag, key := range keys {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			m[key] = f.Value.String()
		}
	}
	return m
}

type runOptions struct {
	local          localFlags
	payloadFile    string
	noComment      bool
	noChat         bool
	strictDelivery bool
}

func newRunCommand(opts *Options) *cobra.Command {
	ro := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch the latest PR event, analyze it and deliver the verdict",
		Long: "run performs one pipeline run: fetch the webhook payload, extract the PR and its diff, " +
			"analyze it in each configured mode, score the commits, and post the results to the PR and to Slack.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, opts, ro)
		},
	}

	addReasoningFlags(cmd)
	cmd.Flags().String("webhook-url", "", "Webhook endpoint returning the PR event list")
	cmd.Flags().Bool("test-only", false, "Skip analysis and post a fixed test comment")
	cmd.Flags().Bool("inline", false, "Also post an inline comment on the first anchored concern")
	cmd.Flags().BoolVar(&ro.noComment, "no-comment", false, "Do not post to the pull request")
	cmd.Flags().BoolVar(&ro.noChat, "no-chat", false, "Do not post to Slack")
	cmd.Flags().BoolVar(&ro.strictDelivery, "strict-delivery", false, "Exit non-zero when any delivery fails")
	cmd.Flags().StringVar(&ro.payloadFile, "payload", "", "Process a saved webhook payload instead of fetching (\"-\" for stdin)")
	ro.local.register(cmd, true)
	cmd.MarkFlagsMutuallyExclusive("payload", "git-range", "webhook-url")
	return cmd
}

func (ro *runOptions) overrides(cmd *cobra.Command) map[string]string {
	keys := map[string]string{
		"webhook-url": "webhookURL",
		"test-only":   "testMode",
		"inline":      "comment.inline",
	}
	for flag, key := range reasoningFlags {
		keys[flag] = key
	}
	m := changedOverrides(cmd, keys)
	if ro.noComment {
		m["comment.enabled"] = "false"
	}
	if ro.noChat {
		m["chat.enabled"] = "false"
	}
	return m
}

func runPipeline(cmd *cobra.Command, opts *Options, ro *runOptions) error {
	if _, err := output.GetWriter(opts.Format); err != nil {
		return usageError(err)
	}
	a, err := loadApp(cmd, opts, ro.overrides(cmd))
	if err != nil {
		return err
	}
	modes, err := a.cfg.AnalysisModes()
	if err != nil {
		return usageError(err)
	}

	var source pipeline.Source
	switch {
	case ro.local.enabled(cmd):
		source = ro.local.source()
	case ro.payloadFile == "":
		if a.cfg.WebhookURL == "" {
			return usageError(fmt.Errorf("webhook URL is required (--webhook-url or PRSENTRY_WEBHOOK_URL)"))
		}
		source = payload.NewFetcher(a.cfg.WebhookURL, &http.Client{Timeout: a.cfg.Timeouts.Webhook})
	}

	// Test mode never reaches the analyzer, so it needs no reasoning credentials.
	var analyzer pipeline.Analyzer
	if !a.cfg.TestMode {
		eng, err := a.engine()
		if err != nil {
			return runtimeError(err)
		}
		analyzer = eng
	}

	mux, err := a.multiplexer()
	if err != nil {
		return usageError(err)
	}
	a.logger.Debug("destinations configured", "destinations", mux.Names())

	orch := pipeline.New(source, analyzer, mux, pipeline.Options{Modes: modes, TestMode: a.cfg.TestMode}, a.logger)

	var report *pipeline.Report
	if ro.payloadFile != "" {
		body, rerr := readInput(ro.payloadFile, cmd.InOrStdin())
		if rerr != nil {
			return usageError(fmt.Errorf("reading payload: %w", rerr))
		}
		report, err = orch.Process(cmd.Context(), body)
	} else {
		report, err = orch.Run(cmd.Context())
	}

	if werr := output.WriteReport(cmd.OutOrStdout(), report, opts.Format, opts.OutPath); werr != nil && err == nil {
		err = fmt.Errorf("writing output: %w", werr)
	}
	if err != nil {
		return runtimeError(err)
	}

	if failed := report.Failed(); failed > 0 && ro.strictDelivery {
		return &exitError{code: ExitDeliveryError, err: fmt.Errorf("%d delivery destination(s) failed", failed)}
	}
	return nil
}
