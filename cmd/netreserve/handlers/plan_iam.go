package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/netreserve/netreserve/internal/iampolicy"
	"github.com/netreserve/netreserve/internal/naming"
	"github.com/netreserve/netreserve/internal/reconcile"
)

// PlanIAMOptions carries the flags of plan iam.
type PlanIAMOptions struct {
	ConfigPath string
	Verbosity  int

	Project        string
	ServiceAccount string
	GroupEmail     string
	SARoles        []string
	SABundles      []string
	GroupRoles     []string
	GroupBundles   []string
	Out            string
}

// PlanIAM reads the project's current IAM policy, merges the requested
// grants into it and packages the complete modified document, etag
// included, into the plan. A policy that already holds every grant
// produces a plan with nothing to do.
func PlanIAM(ctx context.Context, opts PlanIAMOptions) error {
	rt, err := newRuntime(opts.ConfigPath, opts.Verbosity)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	if err := naming.ValidateProjectID(opts.Project, rt.cfg.IAM.AllowedProjectSegments); err != nil {
		return err
	}
	if opts.ServiceAccount == "" && opts.GroupEmail == "" {
		return &reconcile.ValidationError{
			Field:   "service-account",
			Message: "at least one grantee is required (--service-account or --group-email)",
		}
	}

	client, err := rt.backendFor("gcloud")
	if err != nil {
		return err
	}

	plan, err := planPolicyUpdate(ctx, rt, client, opts)
	rt.recordPlanRun(ctx, "plan iam", reconcile.KindIAMPolicy, opts.Project, plan, err)
	if err != nil {
		return err
	}

	return rt.finishPlan(ctx, opts.Out, plan)
}

func planPolicyUpdate(ctx context.Context, rt *runtime, client reconcile.Client, opts PlanIAMOptions) (*reconcile.Plan, error) {
	record, err := client.Describe(ctx, reconcile.KindIAMPolicy, opts.Project)
	if err != nil {
		return nil, err
	}

	current, err := iampolicy.Decode([]byte(record.Attrs[reconcile.ParamPolicy]))
	if err != nil {
		return nil, err
	}

	modified := current.Clone()
	var summaries []string

	if opts.ServiceAccount != "" {
		email := opts.ServiceAccount
		if !strings.Contains(email, "@") {
			if err := naming.ValidateServiceAccountName(email); err != nil {
				return nil, err
			}
			email = naming.ServiceAccountEmail(email, opts.Project)
		}
		added, err := grant(modified, naming.ServiceAccountMember(email),
			opts.SARoles, opts.SABundles, rt.cfg.IAM.Bundles, "sa-roles")
		if err != nil {
			return nil, err
		}
		if added != "" {
			summaries = append(summaries, fmt.Sprintf("%s gains %s", email, added))
		}
	}

	if opts.GroupEmail != "" {
		added, err := grant(modified, naming.GroupMember(opts.GroupEmail),
			opts.GroupRoles, opts.GroupBundles, rt.cfg.IAM.Bundles, "group-roles")
		if err != nil {
			return nil, err
		}
		if added != "" {
			summaries = append(summaries, fmt.Sprintf("%s gains %s", opts.GroupEmail, added))
		}
	}

	encoded, err := modified.Encode()
	if err != nil {
		return nil, err
	}

	planner := reconcile.NewPlanner(client, rt.log, reconcile.LogObserver{Log: rt.log})
	return planner.PlanPolicyUpdate(reconcile.PolicyUpdateRequest{
		Project: opts.Project,
		Policy:  string(encoded),
		Changed: iampolicy.Changed(current, modified),
		Summary: strings.Join(summaries, "; "),
	})
}

// grant merges one member's resolved roles into the policy and reports
// what was newly added, comma-joined for the rationale.
func grant(policy *iampolicy.Policy, member string, roles, bundles []string, config map[string][]string, field string) (string, error) {
	resolved, err := iampolicy.ResolveRoles(roles, bundles, config)
	if err != nil {
		return "", err
	}
	if len(resolved) == 0 {
		return "", &reconcile.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("no roles requested for %s", member),
		}
	}
	return strings.Join(policy.Grant(member, resolved), ", "), nil
}
