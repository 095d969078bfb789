package handlers

import "github.com/netreserve/netreserve/internal/reconcile"

// Exit codes. Auth and usage failures get their own code so CI can tell
// a broken environment from an ordinary failed run.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case reconcile.IsAuth(err), reconcile.IsValidation(err):
		return ExitUsage
	default:
		return ExitFailure
	}
}
