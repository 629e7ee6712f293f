package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/prsentry/internal/logging"
	"github.com/dshills/prsentry/internal/providers"
)

const version = "0.1.0"

// Exit codes
const (
	ExitSuccess       = 0
	ExitUsageError    = 2
	ExitAuthError     = 3
	ExitRuntimeError  = 4
	ExitDeliveryError = 5
)

// Options stores global CLI options shared between commands.
type Options struct {
	ConfigPath string
	EnvFile    string
	LogLevel   string
	LogFormat  string
	Format     string
	OutPath    string

	// environ replaces os.Environ() in tests.
	environ []string
}

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitError{code: ExitUsageError, err: err}
}

// runtimeError classifies err: rejected or missing reasoning credentials map
// to ExitAuthError, everything else to ExitRuntimeError.
func runtimeError(err error) error {
	if err == nil {
		return nil
	}
	code := ExitRuntimeError
	if providers.IsAuthError(err) || errors.Is(err, providers.ErrMissingAPIKey) {
		code = ExitAuthError
	}
	return &exitError{code: code, err: err}
}

// Run executes the command tree with args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	return run(args, os.Stdin, stdout, stderr, &Options{})
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer, opts *Options) int {
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(context.Background())
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Cobra's own flag and argument errors.
	return ExitUsageError
}

func newRootCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "prsentry",
		Short:         "Automated pull request review",
		Long:          "prsentry fetches a pull request event, analyzes its diff with a reasoning service grounded in your codebase, and posts the verdict to the PR and to Slack.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := logging.ParseLevel(opts.LogLevel)
			format, err := logging.ParseFormat(opts.LogFormat)
			if err != nil {
				return usageError(err)
			}
			logger := logging.NewLogger(cmd.ErrOrStderr(), level, format)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", level)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to config.yaml (default: user config dir)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "Path to a .env file (default: ./.env when present)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "Log format (text, json)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "Output format (text, json, markdown)")
	cmd.PersistentFlags().StringVar(&opts.OutPath, "out", "", "Output file path (default: stdout)")

	cmd.AddCommand(
		newRunCommand(opts),
		newAnalyzeCommand(opts),
		newScoreCommand(opts),
		newIndexCommand(opts),
		newConfigCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print prsentry version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "prsentry version %s\n", version)
		},
	}
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to a
// discarding logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.Discard()
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.Discard()
}
