package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/prsentry/internal/diff"
	"github.com/dshills/prsentry/internal/heuristic"
	"github.com/dshills/prsentry/internal/output"
	"github.com/dshills/prsentry/internal/payload"
	"github.com/dshills/prsentry/internal/pipeline"
)

func newScoreCommand(opts *Options) *cobra.Command {
	var (
		payloadFile string
		local       localFlags
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Run the heuristic commit and pattern scorer on a saved payload",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := output.GetWriter(opts.Format); err != nil {
				return usageError(err)
			}
			var body []byte
			var err error
			if local.enabled(cmd) {
				if body, err = local.source().Fetch(cmd.Context()); err != nil {
					return runtimeError(err)
				}
			} else if body, err = readInput(payloadFile, cmd.InOrStdin()); err != nil {
				return usageError(fmt.Errorf("reading payload: %w", err))
			}

			ex, err := payload.Extract(body, false)
			if err != nil {
				return runtimeError(err)
			}

			commits := heuristic.ScoreCommits(ex.Event.Messages())
			report := &pipeline.Report{
				Repo:     ex.Event.Repo(),
				PRNumber: int(ex.Event.PRNumber),
				Commits:  &commits,
				Findings: heuristic.ScanVulnerabilities(diff.ParseUnified(ex.Diff)),
			}
			if err := output.WriteReport(cmd.OutOrStdout(), report, opts.Format, opts.OutPath); err != nil {
				return runtimeError(fmt.Errorf("writing output: %w", err))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&payloadFile, "payload", "-", "Saved webhook payload (\"-\" for stdin)")
	local.register(cmd, false)
	cmd.MarkFlagsMutuallyExclusive("payload", "git-range")
	return cmd
}
