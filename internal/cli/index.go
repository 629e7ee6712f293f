package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/prsentry/internal/index"
)

func newIndexCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the codebase retrieval index",
	}

	build := &cobra.Command{
		Use:   "build",
		Short: "Build (or refresh) the retrieval index now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, opts, changedOverrides(cmd, map[string]string{"codebase": "codebasePath"}))
			if err != nil {
				return err
			}
			r, err := a.retriever()
			if err != nil {
				return runtimeError(err)
			}
			if r == nil {
				return usageError(errors.New("no codebase configured (--codebase or PRSENTRY_CODEBASE)"))
			}
			n, err := r.Len(cmd.Context())
			if err != nil {
				return runtimeError(fmt.Errorf("building index: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunks from %s\n", n, a.cfg.Retrieval.CodebasePath)
			return nil
		},
	}
	build.Flags().String("codebase", "", "Codebase dump file or directory")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the persisted retrieval index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, opts, nil)
			if err != nil {
				return err
			}
			dir := a.cfg.Retrieval.IndexDir
			if dir == "" {
				if dir, err = index.DefaultDir(); err != nil {
					return runtimeError(err)
				}
			}
			if err := index.Remove(dir); err != nil {
				return runtimeError(fmt.Errorf("clearing index: %w", err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Index cleared.")
			return nil
		},
	}

	cmd.AddCommand(build, clearCmd)
	return cmd
}
