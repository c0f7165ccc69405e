package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/billed-dev/billed/internal/activity"
)

func newActivityCommand(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent workflow outcomes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.cfg.Log.ActivityLog
			if path == "" {
				return fmt.Errorf("activity log is disabled in %s", opts.configPath)
			}
			entries, err := activity.Open(path).Tail(limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tUSER\tACTION\tOUTCOME\tBILL\tDETAILS")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.Timestamp.Local().Format(time.DateTime), e.User, e.Action, e.Outcome, e.BillID, e.Details)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries, 0 for all")

	return cmd
}
