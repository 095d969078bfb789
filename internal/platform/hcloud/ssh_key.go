package hcloud

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/netreserve/netreserve/internal/reconcile"
	"github.com/netreserve/netreserve/internal/util/labels"
)

func (c *Client) describeSSHKey(ctx context.Context, name string) (*reconcile.Record, error) {
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

	return &reconcile.Record{
		Kind:     reconcile.KindSSHKey,
		Identity: name,
		Ref:      strconv.FormatInt(key.ID, 10),
		Attrs:    map[string]string{"fingerprint": key.Fingerprint},
	}, nil
}

func (c *Client) createSSHKey(ctx context.Context, name string, params map[string]string) (*reconcile.Record, error) {
	publicKey := params[ParamPublicKey]
	if publicKey == "" {
		return nil, &reconcile.ValidationError{Field: "public_key", Message: "plan carries no public key"}
	}

	key, _, err := c.api.SSHKey.Create(ctx, hcloud.SSHKeyCreateOpts{
		Name:      name,
		PublicKey: publicKey,
		Labels:    resourceLabels(params),
	})
	if err != nil {
		return nil, fmt.Errorf("create ssh key %s: %w", name, mapError(err, reconcile.KindSSHKey, name))
	}

	return &reconcile.Record{
		Kind:     reconcile.KindSSHKey,
		Identity: name,
		Ref:      strconv.FormatInt(key.ID, 10),
		Attrs:    map[string]string{"fingerprint": key.Fingerprint},
	}, nil
}

func (c *Client) deleteSSHKey(ctx context.Context, ref string) error {
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return &reconcile.ValidationError{Field: "ref", Message: fmt.Sprintf("malformed ssh key reference %q", ref)}
	}

	key, err := getRetried(ctx, c, reconcile.KindSSHKey, ref, func(ctx context.Context) (*hcloud.SSHKey, error) {
		k, _, err := c.api.SSHKey.GetByID(ctx, id)
		return k, err
	})
	if err != nil {
		return err
	}
	if key == nil {
		return &reconcile.ConflictError{Kind: reconcile.KindSSHKey, Identity: ref}
	}
	if !labels.IsManaged(key.Labels) {
		return fmt.Errorf("ssh key %s is not managed by this tool; refusing to delete", key.Name)
	}

	if _, err := c.api.SSHKey.Delete(ctx, key); err != nil {
		return mapError(err, reconcile.KindSSHKey, ref)
	}
	return nil
}
