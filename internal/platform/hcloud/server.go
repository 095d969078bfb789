package hcloud

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/netreserve/netreserve/internal/naming"
	"github.com/netreserve/netreserve/internal/reconcile"
	"github.com/netreserve/netreserve/internal/util/labels"
)

func (c *Client) describeServer(ctx context.Context, name string) (*reconcile.Record, error) {
	server, err := getRetried(ctx, c, reconcile.KindServer, name, func(ctx context.Context) (*hcloud.Server, error) {
		s, _, err := c.api.Server.Get(ctx, name)
		return s, err
	})
	if err != nil {
		return nil, err
	}
	if server == nil {
		return nil, &reconcile.NotFoundError{Kind: reconcile.KindServer, Identity: name}
	}

	attrs := map[string]string{"status": string(server.Status)}
	if server.ServerType != nil {
		attrs[ParamServerType] = server.ServerType.Name
	}
	if server.Datacenter != nil && server.Datacenter.Location != nil {
		attrs[ParamLocation] = server.Datacenter.Location.Name
	}

	return &reconcile.Record{
		Kind:     reconcile.KindServer,
		Identity: name,
		Ref:      strconv.FormatInt(server.ID, 10),
		Attrs:    attrs,
	}, nil
}

// createServer provisions the sandbox server and, when the plan asks
// for one, its data volume. The engine makes one Create call; the
// vendor sequence behind it (create, wait, attach volume) lives here.
func (c *Client) createServer(ctx context.Context, name string, params map[string]string) (*reconcile.Record, error) {
	serverType := params[ParamServerType]
	image := params[ParamImage]
	location := params[ParamLocation]
	if serverType == "" || image == "" || location == "" {
		return nil, &reconcile.ValidationError{
			Field:   "server_type",
			Message: "plan carries no server type, image or location",
		}
	}

	volumeSize := 0
	if size := params[ParamVolumeSize]; size != "" {
		gb, err := strconv.Atoi(size)
		if err != nil || gb <= 0 {
			return nil, &reconcile.ValidationError{
				Field:   "volume_size_gb",
				Message: fmt.Sprintf("malformed volume size %q", size),
			}
		}
		volumeSize = gb
	}

	sshKeys, err := c.resolveSSHKeys(ctx, splitList(params[ParamSSHKeys]))
	if err != nil {
		return nil, err
	}

	opts := hcloud.ServerCreateOpts{
		Name:       name,
		ServerType: &hcloud.ServerType{Name: serverType},
		Image:      &hcloud.Image{Name: image},
		Location:   &hcloud.Location{Name: location},
		SSHKeys:    sshKeys,
		Labels:     resourceLabels(params),
		UserData:   params[ParamUserData],
	}

	result, _, err := c.api.Server.Create(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("create server %s: %w", name, mapError(err, reconcile.KindServer, name))
	}
	if err := c.waitFor(ctx, result.Action); err != nil {
		return nil, fmt.Errorf("wait for server %s: %w", name, mapError(err, reconcile.KindServer, name))
	}
	if err := c.waitFor(ctx, result.NextActions...); err != nil {
		return nil, fmt.Errorf("wait for server %s: %w", name, mapError(err, reconcile.KindServer, name))
	}

	if volumeSize > 0 {
		if err := c.attachDataVolume(ctx, result.Server, volumeSize, params); err != nil {
			return nil, fmt.Errorf("server %s created, but attaching its data volume failed: %w", name, err)
		}
	}

	return &reconcile.Record{
		Kind:     reconcile.KindServer,
		Identity: name,
		Ref:      strconv.FormatInt(result.Server.ID, 10),
		Attrs:    params,
	}, nil
}

// attachDataVolume creates the server's data volume attached and
// automounted.
func (c *Client) attachDataVolume(ctx context.Context, server *hcloud.Server, sizeGB int, params map[string]string) error {
	volumeName := naming.SandboxVolume(server.Name)
	result, _, err := c.api.Volume.Create(ctx, hcloud.VolumeCreateOpts{
		Name:      volumeName,
		Size:      sizeGB,
		Server:    server,
		Automount: hcloud.Ptr(true),
		Format:    hcloud.Ptr("ext4"),
		Labels:    resourceLabels(params),
	})
	if err != nil {
		return fmt.Errorf("create volume %s: %w", volumeName, mapError(err, reconcile.KindServer, volumeName))
	}
	if err := c.waitFor(ctx, result.Action); err != nil {
		return fmt.Errorf("wait for volume %s: %w", volumeName, mapError(err, reconcile.KindServer, volumeName))
	}
	return c.waitFor(ctx, result.NextActions...)
}

// deleteServer removes the server and the data volume created with it.
// Resources without the managed-by label are refused.
func (c *Client) deleteServer(ctx context.Context, ref string) error {
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return &reconcile.ValidationError{Field: "ref", Message: fmt.Sprintf("malformed server reference %q", ref)}
	}

	server, err := getRetried(ctx, c, reconcile.KindServer, ref, func(ctx context.Context) (*hcloud.Server, error) {
		s, _, err := c.api.Server.GetByID(ctx, id)
		return s, err
	})
	if err != nil {
		return err
	}
	if server == nil {
		return &reconcile.ConflictError{Kind: reconcile.KindServer, Identity: ref}
	}
	if !labels.IsManaged(server.Labels) {
		return fmt.Errorf("server %s is not managed by this tool; refusing to delete", server.Name)
	}

	result, _, err := c.api.Server.DeleteWithResult(ctx, server)
	if err != nil {
		return mapError(err, reconcile.KindServer, ref)
	}
	if err := c.waitFor(ctx, result.Action); err != nil {
		return fmt.Errorf("wait for server delete: %w", mapError(err, reconcile.KindServer, ref))
	}

	return c.deleteDataVolume(ctx, server.Name)
}

// deleteDataVolume removes the volume created alongside the server, if
// it still exists and is ours.
func (c *Client) deleteDataVolume(ctx context.Context, serverName string) error {
	volumeName := naming.SandboxVolume(serverName)
	volume, err := getRetried(ctx, c, reconcile.KindServer, volumeName, func(ctx context.Context) (*hcloud.Volume, error) {
		v, _, err := c.api.Volume.GetByName(ctx, volumeName)
		return v, err
	})
	if err != nil {
		return fmt.Errorf("server deleted, but its data volume could not be checked: %w", err)
	}
	if volume == nil || !labels.IsManaged(volume.Labels) {
		return nil
	}

	if _, err := c.api.Volume.Delete(ctx, volume); err != nil {
		return fmt.Errorf("server deleted, but its data volume %s remains: %w",
			volumeName, mapError(err, reconcile.KindServer, volumeName))
	}
	return nil
}

// resolveSSHKeys looks up each named key; the API wants key IDs on
// server create.
func (c *Client) resolveSSHKeys(ctx context.Context, names []string) ([]*hcloud.SSHKey, error) {
	var keys []*hcloud.SSHKey
	for _, name := range names {
		key, err := getRetried(ctx, c, reconcile.KindSSHKey, name, func(ctx context.Context) (*hcloud.SSHKey, error) {
			k, _, err := c.api.SSHKey.Get(ctx, name)
			return k, err
		})
		if err != nil {
			return nil, err
		}
		if key == nil {
			return nil, &reconcile.NotFoundError{Kind: reconcile.KindSSHKey, Identity: name}
		}
		keys = append(keys, key)
	}
	return keys, nil
}
