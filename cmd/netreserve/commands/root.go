// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing and flag binding. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/netreserve/netreserve/internal/reconcile"
)

// Root returns the root command for the netreserve CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "netreserve",
		Short:         "Plan and apply network and cloud resource changes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (default: netreserve.yaml)")
	cmd.PersistentFlags().CountP("verbose", "v", "Increase log verbosity (repeatable)")

	// Flag misuse is an environment/usage failure and must exit 2, like
	// a rejected credential, not 1 like an ordinary planning failure.
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &reconcile.ValidationError{Field: "usage", Message: err.Error()}
	})

	cmd.AddCommand(Plan())
	cmd.AddCommand(Apply())
	cmd.AddCommand(History())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}

// globalOptions reads the persistent flags every handler needs.
func globalOptions(cmd *cobra.Command) (configPath string, verbosity int) {
	configPath, _ = cmd.Flags().GetString("config")
	verbosity, _ = cmd.Flags().GetCount("verbose")
	return configPath, verbosity
}
