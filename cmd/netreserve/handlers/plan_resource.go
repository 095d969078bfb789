package handlers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/netreserve/netreserve/internal/naming"
	"github.com/netreserve/netreserve/internal/platform/gcloud"
	"github.com/netreserve/netreserve/internal/platform/hcloud"
	"github.com/netreserve/netreserve/internal/reconcile"
	"github.com/netreserve/netreserve/internal/util/keygen"
)

// PlanResourceOptions carries the flags of plan resource.
type PlanResourceOptions struct {
	ConfigPath string
	Verbosity  int

	Kind    string
	Name    string
	Project string
	Region  string
	Params  []string
	Delete  bool
	Keygen  bool
	Out     string
}

var generateKeyPair = keygen.Generate

// PlanResource plans the creation or deletion of a single generic
// resource. Kinds with their own allocation or merge logic
// (reservations, subnets, IAM policies) are rejected here and routed
// to their dedicated subcommands.
func PlanResource(ctx context.Context, opts PlanResourceOptions) error {
	rt, err := newRuntime(opts.ConfigPath, opts.Verbosity)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	kind := reconcile.Kind(opts.Kind)
	switch kind {
	case reconcile.KindReservation:
		return &reconcile.ValidationError{Field: "kind", Message: "use plan reservation for CIDR reservations"}
	case reconcile.KindSubnet:
		return &reconcile.ValidationError{Field: "kind", Message: "use plan subnet for shared-VPC subnets"}
	case reconcile.KindIAMPolicy:
		return &reconcile.ValidationError{Field: "kind", Message: "use plan iam for IAM policy updates"}
	}

	backend, err := backendForKind(kind)
	if err != nil {
		return err
	}

	params, err := parseParams(opts.Params)
	if err != nil {
		return err
	}

	identity, err := resourceIdentity(rt, kind, opts, params)
	if err != nil {
		return err
	}

	if opts.Keygen {
		if err := rt.generateSSHKey(kind, opts, params); err != nil {
			return err
		}
	}

	client, err := rt.backendFor(backend)
	if err != nil {
		return err
	}
	planner := reconcile.NewPlanner(client, rt.log, reconcile.LogObserver{Log: rt.log})

	req := reconcile.ResourceRequest{
		Kind:     kind,
		Identity: identity,
		Params:   params,
		Project:  opts.Project,
	}
	var plan *reconcile.Plan
	if opts.Delete {
		plan, err = planner.PlanResourceDelete(ctx, req)
	} else {
		plan, err = planner.PlanResource(ctx, req)
	}
	rt.recordPlanRun(ctx, "plan resource", kind, identity, plan, err)
	if err != nil {
		return err
	}

	return rt.finishPlan(ctx, opts.Out, plan)
}

// parseParams turns repeated --param key=value flags into a map.
func parseParams(raw []string) (map[string]string, error) {
	params := make(map[string]string, len(raw))
	for _, kv := range raw {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			return nil, &reconcile.ValidationError{
				Field:   "param",
				Message: fmt.Sprintf("malformed parameter %q, want key=value", kv),
			}
		}
		params[key] = value
	}
	return params, nil
}

// resourceIdentity derives the backend identity for the requested kind
// and fills in the parameters the backend requires alongside it. A
// service account may be named by its full email; every other kind
// takes an RFC 1035 label.
func resourceIdentity(rt *runtime, kind reconcile.Kind, opts PlanResourceOptions, params map[string]string) (string, error) {
	switch kind {
	case reconcile.KindServiceAccount:
		if err := requireProject(rt, opts.Project); err != nil {
			return "", err
		}
		email := opts.Name
		if !strings.Contains(email, "@") {
			if err := naming.ValidateServiceAccountName(email); err != nil {
				return "", err
			}
			params[gcloud.ParamAccountID] = email
			email = naming.ServiceAccountEmail(email, opts.Project)
		}
		params[reconcile.ParamProject] = opts.Project
		return email, nil

	case reconcile.KindAPIKey:
		if err := requireProject(rt, opts.Project); err != nil {
			return "", err
		}
		if err := naming.ValidateResourceName("name", opts.Name); err != nil {
			return "", err
		}
		return opts.Project + "/" + opts.Name, nil

	case reconcile.KindServiceAttachment:
		if err := requireProject(rt, opts.Project); err != nil {
			return "", err
		}
		if opts.Region == "" {
			return "", &reconcile.ValidationError{Field: "region", Message: "service attachments need --region"}
		}
		if err := naming.ValidateResourceName("name", opts.Name); err != nil {
			return "", err
		}
		return naming.ServiceAttachmentPath(opts.Project, opts.Region, opts.Name), nil

	case reconcile.KindNotebook:
		if err := requireProject(rt, opts.Project); err != nil {
			return "", err
		}
		if opts.Region == "" {
			return "", &reconcile.ValidationError{Field: "region", Message: "notebooks need --region (the instance location)"}
		}
		if err := naming.ValidateResourceName("name", opts.Name); err != nil {
			return "", err
		}
		return naming.NotebookPath(opts.Project, opts.Region, opts.Name), nil

	case reconcile.KindServer:
		if err := naming.ValidateResourceName("name", opts.Name); err != nil {
			return "", err
		}
		if !opts.Delete {
			fillDefault(params, hcloud.ParamServerType, rt.cfg.HCloud.ServerType)
			fillDefault(params, hcloud.ParamImage, rt.cfg.HCloud.Image)
			fillDefault(params, hcloud.ParamLocation, rt.cfg.HCloud.Location)
		}
		return opts.Name, nil

	case reconcile.KindNetwork, reconcile.KindSSHKey:
		if err := naming.ValidateResourceName("name", opts.Name); err != nil {
			return "", err
		}
		return opts.Name, nil

	default:
		return "", &reconcile.ValidationError{
			Field:   "kind",
			Message: fmt.Sprintf("unknown resource kind %q", kind),
		}
	}
}

func requireProject(rt *runtime, project string) error {
	if project == "" {
		return &reconcile.ValidationError{Field: "project", Message: "this kind needs --project"}
	}
	return naming.ValidateProjectID(project, rt.cfg.IAM.AllowedProjectSegments)
}

func fillDefault(params map[string]string, key, value string) {
	if params[key] == "" && value != "" {
		params[key] = value
	}
}

// generateSSHKey mints a fresh keypair for an ssh-key plan, stores the
// private half next to the plan files and hands the public half to the
// backend via the plan parameters.
func (rt *runtime) generateSSHKey(kind reconcile.Kind, opts PlanResourceOptions, params map[string]string) error {
	if kind != reconcile.KindSSHKey || opts.Delete {
		return &reconcile.ValidationError{
			Field:   "keygen",
			Message: "--keygen only applies when creating an ssh-key",
		}
	}

	kp, err := generateKeyPair(opts.Name)
	if err != nil {
		return err
	}
	params[hcloud.ParamPublicKey] = kp.AuthorizedKey()

	keyPath := filepath.Join(rt.cfg.PlanDir, opts.Name+".key")
	if err := kp.WritePrivateKey(keyPath); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Private key written to %s\n", keyPath)
	return nil
}
