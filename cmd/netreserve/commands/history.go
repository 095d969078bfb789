package commands

import (
	"github.com/spf13/cobra"

	"github.com/netreserve/netreserve/cmd/netreserve/handlers"
)

// History returns the command that lists recent plan and apply runs
// from the local journal.
func History() *cobra.Command {
	var opts handlers.HistoryOptions

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent plan and apply runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.ConfigPath, opts.Verbosity = globalOptions(cmd)
			return handlers.History(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Number of runs to show")

	return cmd
}
