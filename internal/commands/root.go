package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/billed-dev/billed/internal/buildinfo"
	"github.com/billed-dev/billed/internal/config"
	"github.com/billed-dev/billed/internal/logging"
)

// rootOptions are shared by every subcommand.
type rootOptions struct {
	configPath string
	cfg        *config.Config
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "billed",
		Short:   "Expense reports: submit bills and follow their review",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(opts.configPath)
			if err != nil {
				return fmt.Errorf("loading %s: %w", opts.configPath, err)
			}
			opts.cfg = cfg
			logging.SetupWriter(cmd.ErrOrStderr(), cfg.Log.Level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "billed.yaml", "config file")

	rootCmd.AddCommand(newInitCommand(opts))
	rootCmd.AddCommand(newLoginCommand(opts))
	rootCmd.AddCommand(newLogoutCommand(opts))
	rootCmd.AddCommand(newBillsCommand(opts))
	rootCmd.AddCommand(newActivityCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))

	return rootCmd
}
