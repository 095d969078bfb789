package handlers

import (
	"context"
	"fmt"
)

// HistoryOptions carries the flags of history.
type HistoryOptions struct {
	ConfigPath string
	Verbosity  int

	Limit int
}

// History prints the most recent plan and apply runs from the journal.
func History(ctx context.Context, opts HistoryOptions) error {
	rt, err := newRuntime(opts.ConfigPath, opts.Verbosity)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	if rt.journal == nil {
		fmt.Fprintln(stdout, "History is disabled in the configuration.")
		return nil
	}

	entries, err := rt.journal.Recent(ctx, opts.Limit)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	fmt.Fprint(stdout, renderHistory(entries))
	return nil
}
