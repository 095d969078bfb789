package commands

import (
	"github.com/spf13/cobra"

	"github.com/netreserve/netreserve/cmd/netreserve/handlers"
)

// Apply returns the command that executes a previously written plan.
//
// Apply never recomputes anything: the plan file is the sole source of
// what to mutate, and exactly one backend change is performed per run.
func Apply() *cobra.Command {
	var opts handlers.ApplyOptions

	cmd := &cobra.Command{
		Use:   "apply <plan>",
		Short: "Execute a reviewed plan",
		Long: `Execute the single change a plan file describes.

The plan is shown before anything runs, and on a terminal a confirmation
is asked unless --auto-approve is given. A plan whose dry run resolved
nothing to do is refused without any backend call. A create that races a
concurrent run surfaces as a conflict and is never retried; re-plan
instead, so the reviewed allocation is never silently swapped.

Examples:
  netreserve apply .netreserve/plan-7f3a.json

  # CI stage, no prompt
  netreserve apply s3://netreserve-plans/team-b.json --auto-approve`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ConfigPath, opts.Verbosity = globalOptions(cmd)
			opts.Plan = args[0]
			return handlers.Apply(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.AutoApprove, "auto-approve", false, "Skip the interactive confirmation")

	return cmd
}
