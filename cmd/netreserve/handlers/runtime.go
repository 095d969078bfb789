// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command
// definitions in the commands package. Handlers are framework-agnostic
// and can be tested independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"

	"github.com/netreserve/netreserve/internal/config"
	"github.com/netreserve/netreserve/internal/journal"
	"github.com/netreserve/netreserve/internal/logging"
	"github.com/netreserve/netreserve/internal/metrics"
	"github.com/netreserve/netreserve/internal/planstore"
	"github.com/netreserve/netreserve/internal/reconcile"
)

// Factory function variables - can be replaced in tests for dependency
// injection.
var (
	loadConfig  = config.Load
	openJournal = journal.Open
	newRecorder = metrics.New
	newStore    = planstore.New

	stdout io.Writer = os.Stdout
)

// runtime bundles the ambient services every handler needs: parsed
// configuration, logger, plan store, and the best-effort journal and
// metrics sinks.
type runtime struct {
	cfg     *config.Config
	log     logr.Logger
	journal *journal.Journal
	metrics *metrics.Recorder
	store   *planstore.Store
}

func newRuntime(configPath string, verbosity int) (*runtime, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:     cfg,
		log:     logging.NewStderr(verbosity),
		metrics: newRecorder(cfg.Metrics),
		store:   newStore(),
	}

	if !cfg.Journal.Disabled {
		j, err := openJournal(cfg.Journal.Path)
		if err != nil {
			// History is best-effort; a broken journal never fails a run.
			rt.log.Error(err, "journal unavailable, continuing without history")
		} else {
			rt.journal = j
		}
	}

	return rt, nil
}

// close flushes the metrics push and the journal. Failures are logged,
// never returned: the run's outcome is decided by the plan or apply
// itself.
func (rt *runtime) close(ctx context.Context) {
	if err := rt.metrics.Push(ctx); err != nil {
		rt.log.Error(err, "metrics push failed")
	}
	if err := rt.journal.Close(); err != nil {
		rt.log.Error(err, "closing journal failed")
	}
}

// recordPlanRun journals one plan invocation and counts it. The entry is
// written even when planning failed, with the error classified.
func (rt *runtime) recordPlanRun(ctx context.Context, command string, kind reconcile.Kind, identity string, plan *reconcile.Plan, runErr error) {
	outcome := journal.OutcomeFailed
	runID := ""
	if plan != nil {
		runID = plan.ID
		kind = plan.Kind
		if plan.Identity != "" {
			identity = plan.Identity
		}
	}
	if runErr == nil && plan != nil {
		if plan.Actionable {
			outcome = journal.OutcomeActionable
		} else {
			outcome = journal.OutcomeNotActionable
		}
	}

	entry := journal.Entry{
		RunID:      runID,
		Command:    command,
		Kind:       string(kind),
		Identity:   identity,
		Outcome:    outcome,
		ErrorClass: journal.Classify(runErr),
	}
	if err := rt.journal.Record(ctx, entry); err != nil {
		rt.log.Error(err, "journal write failed")
	}
	rt.metrics.RecordPlan(string(kind), outcome)
}

// recordApplyRun journals one apply invocation and counts it.
func (rt *runtime) recordApplyRun(ctx context.Context, plan *reconcile.Plan, runErr error) {
	outcome := journal.OutcomeApplied
	if runErr != nil {
		outcome = journal.OutcomeFailed
	}

	entry := journal.Entry{
		RunID:      plan.ID,
		Command:    "apply",
		Kind:       string(plan.Kind),
		Identity:   plan.Identity,
		Outcome:    outcome,
		ErrorClass: journal.Classify(runErr),
	}
	if err := rt.journal.Record(ctx, entry); err != nil {
		rt.log.Error(err, "journal write failed")
	}
	rt.metrics.RecordApply(string(plan.Kind), outcome)
}

// writePlan saves the plan to the requested destination, or to the
// configured plan directory when none was given, and returns where it
// ended up.
func (rt *runtime) writePlan(ctx context.Context, out string, plan *reconcile.Plan) (string, error) {
	if out == "" {
		out = planstore.DefaultPath(rt.cfg.PlanDir, plan)
	}
	if err := rt.store.Save(ctx, out, plan); err != nil {
		return "", err
	}
	return out, nil
}

// finishPlan writes the plan file and prints the preview with the apply
// hint. Every plan subcommand ends here.
func (rt *runtime) finishPlan(ctx context.Context, out string, plan *reconcile.Plan) error {
	path, err := rt.writePlan(ctx, out, plan)
	if err != nil {
		return err
	}

	fmt.Fprint(stdout, renderPlan(plan))
	fmt.Fprintf(stdout, "\nPlan written to %s\n", path)
	if plan.Actionable {
		fmt.Fprintf(stdout, "Apply it with: netreserve apply %s\n", path)
	}
	return nil
}
