package infoblox

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/netreserve/netreserve/internal/netblock"
	"github.com/netreserve/netreserve/internal/reconcile"
)

// pageSize bounds one WAPI page when listing networks in a container.
const pageSize = 1000

// networkObject is the WAPI representation of a reserved network.
type networkObject struct {
	Ref      string             `json:"_ref"`
	Network  string             `json:"network"`
	Comment  string             `json:"comment,omitempty"`
	ExtAttrs map[string]extAttr `json:"extattrs,omitempty"`
}

type extAttr struct {
	Value string `json:"value"`
}

// networkPage is one page of a paged network search.
type networkPage struct {
	Result     []networkObject `json:"result"`
	NextPageID string          `json:"next_page_id,omitempty"`
}

type containerObject struct {
	Ref     string `json:"_ref"`
	Network string `json:"network"`
}

// createNetworkRequest is the reservation payload. The Site Code
// extensible attribute is only attached when a code was resolved.
type createNetworkRequest struct {
	Network     string             `json:"network"`
	NetworkView string             `json:"network_view,omitempty"`
	Comment     string             `json:"comment,omitempty"`
	ExtAttrs    map[string]extAttr `json:"extattrs,omitempty"`
}

// ListReservations returns every network carved from the container's
// supernet. A supernet with no matching network container is reported
// as not found so the planner can move on to the next one.
func (c *Client) ListReservations(ctx context.Context, container reconcile.Container) ([]reconcile.Reservation, error) {
	if err := c.checkContainer(ctx, container); err != nil {
		return nil, err
	}

	var all []reconcile.Reservation
	pageID := ""

	for {
		query := url.Values{
			"network_view":      {container.View},
			"network_container": {container.Supernet.String()},
			"_return_fields":    {"network,comment,extattrs"},
			"_paging":           {"1"},
			"_return_as_object": {"1"},
			"_max_results":      {fmt.Sprint(pageSize)},
		}
		if pageID != "" {
			query.Set("_page_id", pageID)
		}

		var page networkPage
		if err := c.getJSON(ctx, "/network", query, &page); err != nil {
			return nil, fmt.Errorf("list networks under %s: %w", container.Supernet, err)
		}

		for _, obj := range page.Result {
			reservation, err := toReservation(obj)
			if err != nil {
				return nil, err
			}
			all = append(all, reservation)
		}

		if page.NextPageID == "" {
			break
		}
		pageID = page.NextPageID
	}

	return all, nil
}

// checkContainer verifies the supernet exists as a network container in
// the view, distinguishing "missing container" from "empty container".
func (c *Client) checkContainer(ctx context.Context, container reconcile.Container) error {
	query := url.Values{
		"network_view": {container.View},
		"network":      {container.Supernet.String()},
	}

	var containers []containerObject
	if err := c.getJSON(ctx, "/networkcontainer", query, &containers); err != nil {
		return fmt.Errorf("look up container %s: %w", container.Supernet, err)
	}
	if len(containers) == 0 {
		return &reconcile.NotFoundError{
			Kind:     "network-container",
			Identity: fmt.Sprintf("%s in view %s", container.Supernet, container.View),
		}
	}
	return nil
}

// FindReservations returns the reservations exactly matching the block
// in the view. WAPI can hold duplicates across containers; every match
// is returned and the planner decides what ambiguity means.
func (c *Client) FindReservations(ctx context.Context, view string, block netblock.Block) ([]reconcile.Reservation, error) {
	query := url.Values{
		"network":        {block.String()},
		"_return_fields": {"network,comment,extattrs"},
	}
	if view != "" {
		query.Set("network_view", view)
	}

	var objects []networkObject
	if err := c.getJSON(ctx, "/network", query, &objects); err != nil {
		return nil, fmt.Errorf("find network %s: %w", block, err)
	}

	matches := make([]reconcile.Reservation, 0, len(objects))
	for _, obj := range objects {
		reservation, err := toReservation(obj)
		if err != nil {
			return nil, err
		}
		matches = append(matches, reservation)
	}
	return matches, nil
}

// Describe looks up one reservation. The identity is "view:cidr", or a
// bare CIDR to search the appliance's default view.
func (c *Client) Describe(ctx context.Context, kind reconcile.Kind, identity string) (*reconcile.Record, error) {
	if kind != reconcile.KindReservation {
		return nil, fmt.Errorf("infoblox backend cannot describe kind %q", kind)
	}

	view, cidr := splitIdentity(identity)
	block, err := netblock.Parse(cidr)
	if err != nil {
		return nil, &reconcile.ValidationError{Field: "identity", Message: err.Error()}
	}

	matches, err := c.FindReservations(ctx, view, block)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, &reconcile.NotFoundError{Kind: kind, Identity: identity}
	case 1:
		match := matches[0]
		return &reconcile.Record{
			Kind:     kind,
			Identity: identity,
			Ref:      match.Ref,
			Attrs:    map[string]string{reconcile.ParamComment: match.Comment},
		}, nil
	default:
		refs := make([]string, len(matches))
		for i, m := range matches {
			refs[i] = m.Ref
		}
		return nil, &reconcile.AmbiguousMatchError{View: view, Block: block, Refs: refs}
	}
}

// Create reserves the network carried in the plan parameters. WAPI
// answers a successful create with the new object's reference.
func (c *Client) Create(ctx context.Context, kind reconcile.Kind, identity string, params map[string]string) (*reconcile.Record, error) {
	if kind != reconcile.KindReservation {
		return nil, fmt.Errorf("infoblox backend cannot create kind %q", kind)
	}

	payload := createNetworkRequest{
		Network:     params[reconcile.ParamCIDR],
		NetworkView: params[reconcile.ParamView],
		Comment:     params[reconcile.ParamComment],
	}
	if payload.Network == "" {
		return nil, &reconcile.ValidationError{Field: "cidr", Message: "plan carries no CIDR to reserve"}
	}
	if code := params[reconcile.ParamSiteCode]; code != "" {
		payload.ExtAttrs = map[string]extAttr{"SiteCode": {Value: code}}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/network", nil, payload)
	if err != nil {
		return nil, err
	}

	var ref string
	if err := c.do(req, &ref); err != nil {
		if reconcile.IsConflict(err) {
			return nil, &reconcile.ConflictError{Kind: kind, Identity: identity}
		}
		return nil, fmt.Errorf("reserve network %s: %w", payload.Network, err)
	}

	return &reconcile.Record{Kind: kind, Identity: identity, Ref: ref, Attrs: params}, nil
}

// Delete removes a reservation by its WAPI reference. A reference that
// no longer resolves means the reservation changed since planning.
func (c *Client) Delete(ctx context.Context, kind reconcile.Kind, ref string) error {
	if kind != reconcile.KindReservation {
		return fmt.Errorf("infoblox backend cannot delete kind %q", kind)
	}

	req, err := c.newRequest(ctx, http.MethodDelete, "/"+ref, nil, nil)
	if err != nil {
		return err
	}

	if err := c.do(req, nil); err != nil {
		if reconcile.IsNotFound(err) {
			return &reconcile.ConflictError{Kind: kind, Identity: ref}
		}
		return fmt.Errorf("delete reservation %s: %w", ref, err)
	}
	return nil
}

func toReservation(obj networkObject) (reconcile.Reservation, error) {
	block, err := netblock.Parse(obj.Network)
	if err != nil {
		return reconcile.Reservation{}, fmt.Errorf("backend returned unparseable network %q: %w", obj.Network, err)
	}
	return reconcile.Reservation{Block: block, Ref: obj.Ref, Comment: obj.Comment}, nil
}

func splitIdentity(identity string) (view, cidr string) {
	if before, after, found := strings.Cut(identity, ":"); found {
		return before, after
	}
	return "", identity
}
