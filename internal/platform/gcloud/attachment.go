package gcloud

import (
	"context"
	"fmt"

	"github.com/netreserve/netreserve/internal/reconcile"
)

// Service attachments expose a producer forwarding rule through PSC NAT
// subnets. Identities are full resource paths.

func (c *Client) describeServiceAttachment(ctx context.Context, identity string) (*reconcile.Record, error) {
	project, region, name, err := parsePath(identity, "regions", "serviceAttachments")
	if err != nil {
		return nil, err
	}

	if _, err := c.read(ctx, reconcile.KindServiceAttachment, identity,
		"compute", "service-attachments", "describe", name,
		"--project", project, "--region", region, "--format", "json"); err != nil {
		return nil, err
	}

	return &reconcile.Record{
		Kind:     reconcile.KindServiceAttachment,
		Identity: identity,
		Ref:      identity,
	}, nil
}

func (c *Client) createServiceAttachment(ctx context.Context, identity string, params map[string]string) (*reconcile.Record, error) {
	project, region, name, err := parsePath(identity, "regions", "serviceAttachments")
	if err != nil {
		return nil, err
	}
	natSubnets := params[ParamNATSubnets]
	forwardingRule := params[ParamForwardingRule]
	if natSubnets == "" || forwardingRule == "" {
		return nil, &reconcile.ValidationError{
			Field:   "nat_subnets",
			Message: "plan carries no NAT subnets or producer forwarding rule",
		}
	}
	preference := params[ParamConnectionPreference]
	if preference == "" {
		preference = "ACCEPT_AUTOMATIC"
	}

	_, err = c.mutate(ctx, reconcile.KindServiceAttachment, identity,
		"compute", "service-attachments", "create", name,
		"--project", project, "--region", region,
		"--producer-forwarding-rule", forwardingRule,
		"--connection-preference", preference,
		"--nat-subnets", natSubnets)
	if err != nil {
		return nil, fmt.Errorf("create service attachment %s: %w", name, err)
	}

	return &reconcile.Record{
		Kind:     reconcile.KindServiceAttachment,
		Identity: identity,
		Ref:      identity,
		Attrs:    params,
	}, nil
}

func (c *Client) deleteServiceAttachment(ctx context.Context, ref string) error {
	project, region, name, err := parsePath(ref, "regions", "serviceAttachments")
	if err != nil {
		return err
	}
	_, err = c.mutate(ctx, reconcile.KindServiceAttachment, ref,
		"compute", "service-attachments", "delete", name,
		"--project", project, "--region", region, "--quiet")
	return err
}
