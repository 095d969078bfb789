package handlers

import (
	"context"
	"fmt"

	"github.com/netreserve/netreserve/internal/netblock"
	"github.com/netreserve/netreserve/internal/reconcile"
)

// PlanReleaseOptions carries the flags of plan release.
type PlanReleaseOptions struct {
	ConfigPath string
	Verbosity  int

	View string
	CIDR string
	Out  string
}

// PlanRelease runs the dry run for deleting an existing reservation,
// matched by exact CIDR within the view.
func PlanRelease(ctx context.Context, opts PlanReleaseOptions) error {
	rt, err := newRuntime(opts.ConfigPath, opts.Verbosity)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	block, err := netblock.Parse(opts.CIDR)
	if err != nil {
		return &reconcile.ValidationError{
			Field:   "cidr",
			Message: fmt.Sprintf("malformed CIDR %q: %v", opts.CIDR, err),
		}
	}

	client, err := rt.backendFor("infoblox")
	if err != nil {
		return err
	}

	planner := reconcile.NewPlanner(client, rt.log, reconcile.LogObserver{Log: rt.log})
	plan, err := planner.PlanRelease(ctx, reconcile.ReleaseRequest{
		View:  opts.View,
		Block: block,
	})
	rt.recordPlanRun(ctx, "plan release", reconcile.KindReservation, opts.CIDR, plan, err)
	if err != nil {
		return err
	}

	return rt.finishPlan(ctx, opts.Out, plan)
}
