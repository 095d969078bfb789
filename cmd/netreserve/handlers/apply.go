package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/netreserve/netreserve/internal/reconcile"
	"github.com/netreserve/netreserve/internal/ui/tui"
)

// ApplyOptions carries the flags of apply.
type ApplyOptions struct {
	ConfigPath string
	Verbosity  int

	Plan        string
	AutoApprove bool
}

// Factory function variables - can be replaced in tests for dependency
// injection.
var (
	confirmApproval = func(ctx context.Context, plan *reconcile.Plan) (bool, error) {
		approve := false
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Apply %s %s %q?", plan.Action, plan.Kind, plan.Identity)).
				Description("This runs one mutation against " + plan.Backend + ". There is no rollback.").
				Value(&approve),
		))
		if err := form.RunWithContext(ctx); err != nil {
			return false, fmt.Errorf("confirmation prompt: %w", err)
		}
		return approve, nil
	}

	supportsTUI = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
)

// Apply loads a reviewed plan and performs its single backend mutation.
// The plan is re-previewed and confirmed interactively unless
// --auto-approve is set; the updated plan state is written back to the
// plan file and the run lands in the history journal either way.
func Apply(ctx context.Context, opts ApplyOptions) error {
	rt, err := newRuntime(opts.ConfigPath, opts.Verbosity)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	plan, err := rt.store.Load(ctx, opts.Plan)
	if err != nil {
		return err
	}

	fmt.Fprint(stdout, renderPlan(plan))

	client, err := rt.backendFor(plan.Backend)
	if err != nil {
		return err
	}
	rec := reconcile.NewReconciler(client, rt.log, reconcile.LogObserver{Log: rt.log})

	if plan.Actionable && !opts.AutoApprove && supportsTUI() {
		approved, err := confirmApproval(ctx, plan)
		if err != nil {
			return err
		}
		if !approved {
			fmt.Fprintln(stdout, "Apply aborted.")
			return nil
		}
	}

	if err := rt.applyPlan(ctx, rec, opts.Plan, plan); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "\nApplied %s %s %q.\n", plan.Action, plan.Kind, plan.Identity)
	return nil
}

// applyPlan drives the mutation behind the step display. The
// bookkeeping steps run even when the mutation fails, so the plan file
// and the history journal always reflect the outcome.
func (rt *runtime) applyPlan(ctx context.Context, rec *reconcile.Reconciler, path string, plan *reconcile.Plan) error {
	steps := []tui.Step{
		{Name: fmt.Sprintf("%s %s %s", plan.Action, plan.Kind, plan.Identity), Key: "execute"},
		{Name: "Update plan file", Key: "save"},
		{Name: "Record history", Key: "record"},
	}

	fn := func(ch chan<- tui.StepMsg) error {
		ch <- tui.StepMsg{Step: "execute"}
		applyErr := rec.Apply(ctx, plan)
		if applyErr != nil {
			ch <- tui.StepMsg{Step: "execute", Err: applyErr}
		} else {
			ch <- tui.StepMsg{Step: "execute", Done: true}
		}

		if err := rt.store.Save(ctx, path, plan); err != nil {
			rt.log.Error(err, "saving plan state", "path", path)
			ch <- tui.StepMsg{Step: "save", Err: err}
		} else {
			ch <- tui.StepMsg{Step: "save", Done: true}
		}

		rt.recordApplyRun(ctx, plan, applyErr)
		ch <- tui.StepMsg{Step: "record", Done: true}

		return applyErr
	}

	if supportsTUI() {
		return tui.Run(ctx, "apply", plan.ID, steps, fn)
	}
	return tui.RunPlain(stdout, steps, fn)
}
