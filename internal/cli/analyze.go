package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/prsentry/internal/output"
	"github.com/dshills/prsentry/internal/pipeline"
	"github.com/dshills/prsentry/internal/review"
)

func newAnalyzeCommand(opts *Options) *cobra.Command {
	var (
		diffFile string
		local    localFlags
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a local unified diff and print the validated result",
		Long:  "analyze runs retrieval, the reasoning service and response validation on a diff without fetching or delivering anything.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := output.GetWriter(opts.Format); err != nil {
				return usageError(err)
			}
			a, err := loadApp(cmd, opts, changedOverrides(cmd, reasoningFlags))
			if err != nil {
				return err
			}
			modes, err := a.cfg.AnalysisModes()
			if err != nil {
				return usageError(err)
			}

			var diffText string
			if local.enabled(cmd) {
				src := local.source()
				if diffText, err = src.Repo.Diff(cmd.Context(), src.Range); err != nil {
					return runtimeError(err)
				}
			} else {
				data, err := readInput(diffFile, cmd.InOrStdin())
				if err != nil {
					return usageError(fmt.Errorf("reading diff: %w", err))
				}
				diffText = string(data)
			}
			if strings.TrimSpace(diffText) == "" {
				return usageError(review.ErrEmptyDiff)
			}

			eng, err := a.engine()
			if err != nil {
				return runtimeError(err)
			}

			start := time.Now()
			report := &pipeline.Report{}
			for _, mode := range modes {
				raw, err := eng.Analyze(cmd.Context(), diffText, mode)
				if err != nil {
					return runtimeError(err)
				}
				res, err := review.Validate(raw)
				analysis := pipeline.Analysis{Mode: mode, Result: res}
				if err != nil {
					a.logger.Warn("model answer did not validate", "mode", mode, "error", err)
					analysis.ParseError = err.Error()
				}
				report.Analyses = append(report.Analyses, analysis)
			}
			report.Timing.LLMMs = time.Since(start).Milliseconds()
			report.Timing.TotalMs = report.Timing.LLMMs

			if err := output.WriteReport(cmd.OutOrStdout(), report, opts.Format, opts.OutPath); err != nil {
				return runtimeError(fmt.Errorf("writing output: %w", err))
			}
			return nil
		},
	}

	addReasoningFlags(cmd)
	cmd.Flags().StringVar(&diffFile, "diff-file", "-", "Unified diff to analyze (\"-\" for stdin)")
	local.register(cmd, false)
	cmd.MarkFlagsMutuallyExclusive("diff-file", "git-range")
	return cmd
}
