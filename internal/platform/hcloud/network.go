package hcloud

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/netreserve/netreserve/internal/reconcile"
	"github.com/netreserve/netreserve/internal/util/labels"
)

func (c *Client) describeNetwork(ctx context.Context, name string) (*reconcile.Record, error) {
	network, err := getRetried(ctx, c, reconcile.KindNetwork, name, func(ctx context.Context) (*hcloud.Network, error) {
		n, _, err := c.api.Network.Get(ctx, name)
		return n, err
	})
	if err != nil {
		return nil, err
	}
	if network == nil {
		return nil, &reconcile.NotFoundError{Kind: reconcile.KindNetwork, Identity: name}
	}

	attrs := map[string]string{}
	if network.IPRange != nil {
		attrs[reconcile.ParamCIDR] = network.IPRange.String()
	}

	return &reconcile.Record{
		Kind:     reconcile.KindNetwork,
		Identity: name,
		Ref:      strconv.FormatInt(network.ID, 10),
		Attrs:    attrs,
	}, nil
}

// createNetwork provisions the network and one cloud subnet spanning
// its whole range; an unsubnetted Hetzner network cannot attach
// servers.
func (c *Client) createNetwork(ctx context.Context, name string, params map[string]string) (*reconcile.Record, error) {
	cidr := params[reconcile.ParamCIDR]
	if cidr == "" {
		return nil, &reconcile.ValidationError{Field: "cidr", Message: "plan carries no IP range"}
	}
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, &reconcile.ValidationError{Field: "cidr", Message: fmt.Sprintf("malformed IP range %q", cidr)}
	}
	zone := params[ParamNetworkZone]
	if zone == "" {
		zone = DefaultNetworkZone
	}

	network, _, err := c.api.Network.Create(ctx, hcloud.NetworkCreateOpts{
		Name:    name,
		IPRange: ipNet,
		Labels:  resourceLabels(params),
	})
	if err != nil {
		return nil, fmt.Errorf("create network %s: %w", name, mapError(err, reconcile.KindNetwork, name))
	}

	action, _, err := c.api.Network.AddSubnet(ctx, network, hcloud.NetworkAddSubnetOpts{
		Subnet: hcloud.NetworkSubnet{
			Type:        hcloud.NetworkSubnetTypeCloud,
			IPRange:     ipNet,
			NetworkZone: hcloud.NetworkZone(zone),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("network %s created, but adding its subnet failed: %w",
			name, mapError(err, reconcile.KindNetwork, name))
	}
	if err := c.waitFor(ctx, action); err != nil {
		return nil, fmt.Errorf("wait for subnet on network %s: %w", name, mapError(err, reconcile.KindNetwork, name))
	}

	return &reconcile.Record{
		Kind:     reconcile.KindNetwork,
		Identity: name,
		Ref:      strconv.FormatInt(network.ID, 10),
		Attrs:    params,
	}, nil
}

func (c *Client) deleteNetwork(ctx context.Context, ref string) error {
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil {
		return &reconcile.ValidationError{Field: "ref", Message: fmt.Sprintf("malformed network reference %q", ref)}
	}

	network, err := getRetried(ctx, c, reconcile.KindNetwork, ref, func(ctx context.Context) (*hcloud.Network, error) {
		n, _, err := c.api.Network.GetByID(ctx, id)
		return n, err
	})
	if err != nil {
		return err
	}
	if network == nil {
		return &reconcile.ConflictError{Kind: reconcile.KindNetwork, Identity: ref}
	}
	if !labels.IsManaged(network.Labels) {
		return fmt.Errorf("network %s is not managed by this tool; refusing to delete", network.Name)
	}

	if _, err := c.api.Network.Delete(ctx, network); err != nil {
		return mapError(err, reconcile.KindNetwork, ref)
	}
	return nil
}
