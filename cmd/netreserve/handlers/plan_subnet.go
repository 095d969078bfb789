package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/netreserve/netreserve/internal/naming"
	"github.com/netreserve/netreserve/internal/netblock"
	"github.com/netreserve/netreserve/internal/platform/gcloud"
	"github.com/netreserve/netreserve/internal/reconcile"
)

// PlanSubnetOptions carries the flags of plan subnet.
type PlanSubnetOptions struct {
	ConfigPath string
	Verbosity  int

	Group          string
	Region         string
	Name           string
	CIDR           string
	PodsCIDR       string
	ServicesCIDR   string
	PSC            string
	ServiceProject string
	Purpose        string
	Out            string
}

// PlanSubnet runs the dry run for a shared-VPC subnet. The CIDRs come
// from earlier reservation plans; this resolves the subnet path, range
// names and sharing targets, then gates on the subnet being absent.
func PlanSubnet(ctx context.Context, opts PlanSubnetOptions) error {
	rt, err := newRuntime(opts.ConfigPath, opts.Verbosity)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	group, ok := rt.cfg.Group(opts.Group)
	if !ok {
		return &reconcile.ValidationError{
			Field:   "group",
			Message: fmt.Sprintf("group %q is not configured", opts.Group),
		}
	}
	if err := naming.ValidateResourceName("name", opts.Name); err != nil {
		return err
	}

	params, err := subnetParams(rt, group.HostProject, group.Network, opts)
	if err != nil {
		return err
	}

	client, err := rt.backendFor("gcloud")
	if err != nil {
		return err
	}

	identity := naming.SubnetPath(group.HostProject, opts.Region, opts.Name)
	planner := reconcile.NewPlanner(client, rt.log, reconcile.LogObserver{Log: rt.log})
	plan, err := planner.PlanResource(ctx, reconcile.ResourceRequest{
		Kind:     reconcile.KindSubnet,
		Identity: identity,
		Params:   params,
		Project:  group.HostProject,
	})
	rt.recordPlanRun(ctx, "plan subnet", reconcile.KindSubnet, identity, plan, err)
	if err != nil {
		return err
	}

	return rt.finishPlan(ctx, opts.Out, plan)
}

// subnetParams assembles the fully resolved parameter set. Everything
// apply needs is computed here, once.
func subnetParams(rt *runtime, hostProject, network string, opts PlanSubnetOptions) (map[string]string, error) {
	if _, err := netblock.Parse(opts.CIDR); err != nil {
		return nil, &reconcile.ValidationError{
			Field:   "cidr",
			Message: fmt.Sprintf("malformed CIDR %q: %v", opts.CIDR, err),
		}
	}

	sub := rt.cfg.Subnet
	params := map[string]string{
		reconcile.ParamProject: hostProject,
		reconcile.ParamRegion:  opts.Region,
		reconcile.ParamCIDR:    opts.CIDR,
		gcloud.ParamNetwork:    network,
	}
	params[gcloud.ParamFlowLogs] = strconv.FormatBool(sub.FlowLogs == nil || *sub.FlowLogs)
	params[gcloud.ParamAggregationInterval] = sub.AggregationInterval
	params[gcloud.ParamFlowSampling] = strconv.FormatFloat(sub.FlowSampling, 'f', -1, 64)
	params[gcloud.ParamPrivateGoogleAccess] = strconv.FormatBool(sub.PrivateGoogleAccess == nil || *sub.PrivateGoogleAccess)

	if (opts.PodsCIDR == "") != (opts.ServicesCIDR == "") {
		return nil, &reconcile.ValidationError{
			Field:   "pods-cidr",
			Message: "GKE secondary ranges need both --pods-cidr and --services-cidr",
		}
	}
	if opts.PodsCIDR != "" {
		for field, cidr := range map[string]string{"pods-cidr": opts.PodsCIDR, "services-cidr": opts.ServicesCIDR} {
			if _, err := netblock.Parse(cidr); err != nil {
				return nil, &reconcile.ValidationError{
					Field:   field,
					Message: fmt.Sprintf("malformed CIDR %q: %v", cidr, err),
				}
			}
		}
		params[gcloud.ParamPodsCIDR] = opts.PodsCIDR
		params[gcloud.ParamServicesCIDR] = opts.ServicesCIDR
		params[gcloud.ParamPodsRangeName] = naming.PodsRangeName(opts.Name)
		params[gcloud.ParamServicesRangeName] = naming.ServicesRangeName(opts.Name)
	}

	if opts.PSC != "" {
		pscProject, ok := rt.cfg.PSCProjects[opts.PSC]
		if !ok {
			return nil, &reconcile.ValidationError{
				Field:   "psc",
				Message: fmt.Sprintf("PSC consumer %q is not configured", opts.PSC),
			}
		}
		params[gcloud.ParamPSCProject] = pscProject
	}

	if opts.ServiceProject != "" {
		if err := naming.ValidateProjectID(opts.ServiceProject, rt.cfg.IAM.AllowedProjectSegments); err != nil {
			return nil, err
		}
		params[gcloud.ParamServiceProject] = opts.ServiceProject
	}

	if opts.Purpose != "" {
		params[gcloud.ParamPurpose] = opts.Purpose
	}

	return params, nil
}
