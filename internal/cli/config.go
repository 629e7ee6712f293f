package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dshills/prsentry/internal/config"
)

func newConfigCommand(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage prsentry configuration",
	}
	cmd.AddCommand(
		newConfigInitCommand(opts),
		newConfigSetCommand(opts),
		newConfigShowCommand(opts),
	)
	return cmd
}

func configPath(opts *Options) (string, error) {
	if opts.ConfigPath != "" {
		return opts.ConfigPath, nil
	}
	return config.ConfigPath()
}

func newConfigInitCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configPath(opts)
			if err != nil {
				return runtimeError(err)
			}
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Config file already exists at %s\n", path)
				return nil
			}
			if _, err := config.Save(config.Default(), path); err != nil {
				return runtimeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config file created at %s\n", path)
			return nil
		},
	}
}

func newConfigSetCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath(opts)
			if err != nil {
				return runtimeError(err)
			}
			cfg, err := config.LoadFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				cfg = config.Default()
			} else if err != nil {
				return usageError(err)
			}

			if err := config.SetField(&cfg, args[0], args[1]); err != nil {
				return usageError(err)
			}
			if err := cfg.Validate(); err != nil {
				return usageError(err)
			}
			if _, err := config.Save(cfg, path); err != nil {
				return runtimeError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func newConfigShowCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration with credentials masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd, opts, nil)
			if err != nil {
				return err
			}
			view := struct {
				config.Config `yaml:",inline"`
				Credentials   map[string]string `yaml:"credentials"`
			}{a.cfg, a.cfg.Credentials()}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(view); err != nil {
				return runtimeError(err)
			}
			return runtimeError(enc.Close())
		},
	}
}
