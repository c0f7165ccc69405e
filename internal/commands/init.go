package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/billed-dev/billed/internal/config"
)

func newInitCommand(opts *rootOptions) *cobra.Command {
	var baseURL string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default billed.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts.configPath, baseURL, force)
		},
	}

	cmd.Flags().StringVar(&baseURL, "api", "", "base URL of the bill service")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")

	return cmd
}

func runInit(cmd *cobra.Command, path, baseURL string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := config.Default()
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (api: %s)\n", path, cfg.API.BaseURL)
	return nil
}
