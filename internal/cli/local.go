package cli

import (
	"github.com/spf13/cobra"

	"github.com/dshills/prsentry/internal/gitctx"
)

// localFlags selects a local git revision range as the event source.
type localFlags struct {
	gitRange string
	exclude  []string
	prNumber int
}

func (l *localFlags) register(cmd *cobra.Command, withPR bool) {
	cmd.Flags().StringVar(&l.gitRange, "git-range", "", "Use a local git revision range, e.g. origin/main..HEAD (empty: uncommitted changes)")
	cmd.Flags().StringSliceVar(&l.exclude, "exclude", nil, "Glob patterns of files left out of the local diff")
	if withPR {
		cmd.Flags().IntVar(&l.prNumber, "pr", 0, "Pull request number local results are delivered to")
	}
}

// enabled reports whether the user asked for a local source.
func (l *localFlags) enabled(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("git-range")
}

func (l *localFlags) source() gitctx.Source {
	return gitctx.Source{
		Repo:     gitctx.Repo{Exclude: l.exclude},
		Range:    l.gitRange,
		PRNumber: l.prNumber,
	}
}
