package handlers

import (
	"context"
	"fmt"

	"github.com/netreserve/netreserve/internal/netblock"
	"github.com/netreserve/netreserve/internal/reconcile"
)

// PlanReservationOptions carries the flags of plan reservation.
type PlanReservationOptions struct {
	ConfigPath string
	Verbosity  int

	View     string
	Prefix   int
	Name     string
	SiteCode string
	Out      string
}

// PlanReservation runs the dry run for a new CIDR reservation: the
// view's supernets are searched in configured order and the first free
// block of the requested size is packaged into the plan.
func PlanReservation(ctx context.Context, opts PlanReservationOptions) error {
	rt, err := newRuntime(opts.ConfigPath, opts.Verbosity)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	supernets, err := supernetsFor(rt.cfg.SupernetsForView(opts.View), opts.View)
	if err != nil {
		return err
	}

	siteCode := opts.SiteCode
	if siteCode == "" {
		siteCode = rt.cfg.Infoblox.SiteCode
	}

	client, err := rt.backendFor("infoblox")
	if err != nil {
		return err
	}

	planner := reconcile.NewPlanner(client, rt.log, reconcile.LogObserver{Log: rt.log})
	plan, err := planner.PlanReservation(ctx, reconcile.ReservationRequest{
		View:      opts.View,
		Supernets: supernets,
		PrefixLen: opts.Prefix,
		Name:      opts.Name,
		SiteCode:  siteCode,
	})
	rt.recordPlanRun(ctx, "plan reservation", reconcile.KindReservation, opts.Name, plan, err)
	if err != nil {
		return err
	}
	if !plan.Actionable {
		rt.metrics.RecordAllocatorExhaustion(opts.View)
	}

	return rt.finishPlan(ctx, opts.Out, plan)
}

// supernetsFor parses a view's configured supernet list. A view absent
// from the configuration is a usage error, not a planning failure.
func supernetsFor(raw []string, view string) ([]netblock.Block, error) {
	if raw == nil {
		return nil, &reconcile.ValidationError{
			Field:   "view",
			Message: fmt.Sprintf("view %q is not configured", view),
		}
	}

	blocks := make([]netblock.Block, 0, len(raw))
	for _, s := range raw {
		block, err := netblock.Parse(s)
		if err != nil {
			return nil, &reconcile.ValidationError{
				Field:   "view",
				Message: fmt.Sprintf("view %q has a malformed supernet %q: %v", view, s, err),
			}
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}
