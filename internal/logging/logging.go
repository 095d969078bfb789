// Package logging builds the logr.Logger handed to handlers, planners
// and backends. Output is logfmt-style key/value lines; there is no
// global logger, callers pass theirs down.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// New returns a logger writing to w. Messages above the given
// verbosity are dropped; 0 keeps only the default level.
func New(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(w, args)
	}, funcr.Options{
		Verbosity:    verbosity,
		LogTimestamp: true,
	})
}

// NewStderr returns the CLI's logger.
func NewStderr(verbosity int) logr.Logger {
	return New(os.Stderr, verbosity)
}
