package gcloud

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/netreserve/netreserve/internal/reconcile"
)

// Notebooks are Workbench instances with an attached data disk.
// Identities are full resource paths under locations.

func (c *Client) describeNotebook(ctx context.Context, identity string) (*reconcile.Record, error) {
	project, location, name, err := parsePath(identity, "locations", "instances")
	if err != nil {
		return nil, err
	}

	out, err := c.read(ctx, reconcile.KindNotebook, identity,
		"workbench", "instances", "describe", name,
		"--project", project, "--location", location, "--format", "json")
	if err != nil {
		return nil, err
	}

	var info struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		return nil, fmt.Errorf("parse describe output for notebook %s: %w", name, err)
	}

	return &reconcile.Record{
		Kind:     reconcile.KindNotebook,
		Identity: identity,
		Ref:      identity,
		Attrs:    map[string]string{"state": info.State},
	}, nil
}

func (c *Client) createNotebook(ctx context.Context, identity string, params map[string]string) (*reconcile.Record, error) {
	project, location, name, err := parsePath(identity, "locations", "instances")
	if err != nil {
		return nil, err
	}
	machineType := params[ParamMachineType]
	if machineType == "" {
		return nil, &reconcile.ValidationError{Field: "machine_type", Message: "plan carries no machine type"}
	}

	args := []string{
		"workbench", "instances", "create", name,
		"--project", project, "--location", location,
		"--machine-type", machineType,
	}
	if size := params[ParamDataDiskSize]; size != "" {
		args = append(args, "--data-disk-size-gb", size)
	}
	if key := params[ParamSSHPublicKey]; key != "" {
		args = append(args, "--metadata", "ssh-keys="+key)
	}

	if _, err := c.mutate(ctx, reconcile.KindNotebook, identity, args...); err != nil {
		return nil, fmt.Errorf("create notebook %s: %w", name, err)
	}

	return &reconcile.Record{
		Kind:     reconcile.KindNotebook,
		Identity: identity,
		Ref:      identity,
		Attrs:    params,
	}, nil
}

func (c *Client) deleteNotebook(ctx context.Context, ref string) error {
	project, location, name, err := parsePath(ref, "locations", "instances")
	if err != nil {
		return err
	}
	_, err = c.mutate(ctx, reconcile.KindNotebook, ref,
		"workbench", "instances", "delete", name,
		"--project", project, "--location", location, "--quiet")
	return err
}
