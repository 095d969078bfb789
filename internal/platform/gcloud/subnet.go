package gcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/netreserve/netreserve/internal/naming"
	"github.com/netreserve/netreserve/internal/reconcile"
)

const (
	networkUserRole     = "roles/compute.networkUser"
	sharedVPCConstraint = "compute.restrictSharedVpcSubnetworks"
)

func (c *Client) describeSubnet(ctx context.Context, identity string) (*reconcile.Record, error) {
	project, region, name, err := parsePath(identity, "regions", "subnetworks")
	if err != nil {
		return nil, err
	}

	out, err := c.read(ctx, reconcile.KindSubnet, identity,
		"compute", "networks", "subnets", "describe", name,
		"--project", project, "--region", region, "--format", "json")
	if err != nil {
		return nil, err
	}

	var info struct {
		IPCidrRange string `json:"ipCidrRange"`
		Network     string `json:"network"`
	}
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		return nil, fmt.Errorf("parse describe output for subnet %s: %w", name, err)
	}

	return &reconcile.Record{
		Kind:     reconcile.KindSubnet,
		Identity: identity,
		Ref:      identity,
		Attrs:    map[string]string{reconcile.ParamCIDR: info.IPCidrRange},
	}, nil
}

// createSubnet provisions the subnet and performs the sharing the plan
// asked for. The engine makes one Create call; the vendor sequence
// behind it (create, then grant or org-policy update) lives here.
func (c *Client) createSubnet(ctx context.Context, identity string, params map[string]string) (*reconcile.Record, error) {
	project, region, name, err := parsePath(identity, "regions", "subnetworks")
	if err != nil {
		return nil, err
	}
	cidr := params[reconcile.ParamCIDR]
	if cidr == "" {
		return nil, &reconcile.ValidationError{Field: "cidr", Message: "plan carries no primary range"}
	}

	args := []string{
		"compute", "networks", "subnets", "create", name,
		"--project", project, "--range", cidr, "--region", region,
	}
	if params[ParamPrivateGoogleAccess] == "true" {
		args = append(args, "--enable-private-ip-google-access")
	}
	if params[ParamFlowLogs] == "true" {
		args = append(args, "--enable-flow-logs",
			"--logging-aggregation-interval", params[ParamAggregationInterval],
			"--logging-flow-sampling", params[ParamFlowSampling])
	}
	if network := params[ParamNetwork]; network != "" {
		args = append(args, "--network", network)
	}
	if pods := params[ParamPodsCIDR]; pods != "" {
		args = append(args, "--secondary-range", fmt.Sprintf("%s=%s,%s=%s",
			params[ParamPodsRangeName], pods,
			params[ParamServicesRangeName], params[ParamServicesCIDR]))
	}
	if purpose := params[ParamPurpose]; purpose != "" {
		args = append(args, "--purpose", purpose)
	}

	if _, err := c.mutate(ctx, reconcile.KindSubnet, identity, args...); err != nil {
		return nil, fmt.Errorf("create subnet %s: %w", name, err)
	}

	if psc := params[ParamPSCProject]; psc != "" {
		if err := c.shareWithPSCProject(ctx, project, region, name, psc); err != nil {
			return nil, fmt.Errorf("subnet %s created, but sharing with PSC project %s failed: %w", name, psc, err)
		}
	}
	if sp := params[ParamServiceProject]; sp != "" {
		if err := c.shareWithServiceProject(ctx, sp, identity); err != nil {
			return nil, fmt.Errorf("subnet %s created, but sharing with service project %s failed: %w", name, sp, err)
		}
	}

	return &reconcile.Record{
		Kind:     reconcile.KindSubnet,
		Identity: identity,
		Ref:      identity,
		Attrs:    params,
	}, nil
}

func (c *Client) deleteSubnet(ctx context.Context, ref string) error {
	project, region, name, err := parsePath(ref, "regions", "subnetworks")
	if err != nil {
		return err
	}
	_, err = c.mutate(ctx, reconcile.KindSubnet, ref,
		"compute", "networks", "subnets", "delete", name,
		"--project", project, "--region", region, "--quiet")
	return err
}

// shareWithPSCProject grants the PSC host project's GKE service agent
// use of the subnet. The agent's email is derived from the project
// number, which only gcloud can resolve.
func (c *Client) shareWithPSCProject(ctx context.Context, hostProject, region, name, pscProject string) error {
	number, err := c.projectNumber(ctx, pscProject)
	if err != nil {
		return err
	}
	member := naming.ServiceAccountMember(naming.GKEServiceAgent(number))

	_, err = c.mutate(ctx, reconcile.KindSubnet, name,
		"compute", "networks", "subnets", "add-iam-policy-binding", name,
		"--project", hostProject, "--region", region,
		"--member", member, "--role", networkUserRole)
	if err != nil {
		return fmt.Errorf("grant %s to %s: %w", networkUserRole, member, err)
	}
	return nil
}

func (c *Client) projectNumber(ctx context.Context, project string) (string, error) {
	out, err := c.read(ctx, reconcile.KindSubnet, project,
		"projects", "describe", project, "--format", "value(projectNumber)")
	if err != nil {
		return "", fmt.Errorf("look up project number of %s: %w", project, err)
	}
	if out == "" {
		return "", fmt.Errorf("project %s returned an empty project number", project)
	}
	return out, nil
}

// shareWithServiceProject adds the subnet to the service project's
// restrictSharedVpcSubnetworks allow list. A path already on the list is
// a no-op.
func (c *Client) shareWithServiceProject(ctx context.Context, serviceProject, subnetPath string) error {
	policy, err := c.currentSharedVPCPolicy(ctx, serviceProject)
	if err != nil {
		return err
	}
	if !allowSubnet(policy, subnetPath) {
		return nil
	}

	data, err := yaml.Marshal(policy)
	if err != nil {
		return fmt.Errorf("encode org policy for %s: %w", serviceProject, err)
	}
	file, err := writeTempFile("netreserve-orgpolicy-*.yaml", data)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(file) }()

	if _, err := c.mutate(ctx, reconcile.KindSubnet, subnetPath,
		"org-policies", "set-policy", file, "--project", serviceProject); err != nil {
		return fmt.Errorf("update org policy of %s: %w", serviceProject, err)
	}
	return nil
}

// currentSharedVPCPolicy reads the project's policy, or builds a fresh
// skeleton when the project has none set yet (gcloud answers that case
// with an error).
func (c *Client) currentSharedVPCPolicy(ctx context.Context, serviceProject string) (map[string]any, error) {
	out, err := c.read(ctx, reconcile.KindSubnet, serviceProject,
		"org-policies", "describe", sharedVPCConstraint,
		"--project", serviceProject, "--format", "yaml")
	if err != nil {
		if reconcile.IsAuth(err) {
			return nil, err
		}
		return map[string]any{
			"name": naming.SharedVPCPolicy(serviceProject),
			"spec": map[string]any{
				"rules": []any{map[string]any{"values": map[string]any{"allowedValues": []any{}}}},
			},
		}, nil
	}

	var policy map[string]any
	if err := yaml.Unmarshal([]byte(out), &policy); err != nil {
		return nil, fmt.Errorf("parse org policy of %s: %w", serviceProject, err)
	}
	if policy == nil {
		policy = map[string]any{"name": naming.SharedVPCPolicy(serviceProject)}
	}
	return policy, nil
}

// allowSubnet inserts the subnet path into the policy's first rule,
// materializing missing levels. Reports whether the policy changed.
func allowSubnet(policy map[string]any, subnetPath string) bool {
	spec, ok := policy["spec"].(map[string]any)
	if !ok {
		spec = map[string]any{}
		policy["spec"] = spec
	}
	rules, ok := spec["rules"].([]any)
	if !ok || len(rules) == 0 {
		rules = []any{map[string]any{}}
		spec["rules"] = rules
	}
	rule, ok := rules[0].(map[string]any)
	if !ok {
		rule = map[string]any{}
		rules[0] = rule
	}
	values, ok := rule["values"].(map[string]any)
	if !ok {
		values = map[string]any{}
		rule["values"] = values
	}
	allowed, _ := values["allowedValues"].([]any)
	for _, v := range allowed {
		if v == subnetPath {
			return false
		}
	}
	values["allowedValues"] = append(allowed, subnetPath)
	return true
}
