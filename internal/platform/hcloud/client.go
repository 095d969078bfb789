package hcloud

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/netreserve/netreserve/internal/config"
	"github.com/netreserve/netreserve/internal/netblock"
	"github.com/netreserve/netreserve/internal/reconcile"
	"github.com/netreserve/netreserve/internal/util/labels"
	"github.com/netreserve/netreserve/internal/util/retry"
)

const backendName = "hcloud"

// Backend-specific parameter keys. All values are resolved at plan
// time; Create only translates them into SDK options.
const (
	ParamServerType  = "server_type"
	ParamImage       = "image"
	ParamLocation    = "location"
	ParamSSHKeys     = "ssh_keys"
	ParamVolumeSize  = "volume_size_gb"
	ParamUserData    = "user_data"
	ParamPublicKey   = "public_key"
	ParamNetworkZone = "network_zone"
	ParamOwner       = "owner"
)

// DefaultNetworkZone is used when a network plan names no zone.
const DefaultNetworkZone = "eu-central"

// Client implements the reconciler's backend contract on the Hetzner
// Cloud API.
type Client struct {
	api       *hcloud.Client
	timeouts  *config.Timeouts
	retryOpts []retry.Option
}

// Option configures a Client.
type Option func(*Client)

// WithAPIClient replaces the SDK client. Tests point it at a fake API
// server.
func WithAPIClient(api *hcloud.Client) Option {
	return func(c *Client) { c.api = api }
}

// WithTimeouts sets custom timeouts for the client.
func WithTimeouts(t *config.Timeouts) Option {
	return func(c *Client) { c.timeouts = t }
}

// TokenFromEnv reads the API token from HCLOUD_TOKEN.
func TokenFromEnv() (string, error) {
	token := os.Getenv("HCLOUD_TOKEN")
	if token == "" {
		return "", &reconcile.AuthError{Backend: backendName, Reason: "HCLOUD_TOKEN is not set"}
	}
	return token, nil
}

// New creates a backend client for the given API token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		api:      hcloud.NewClient(hcloud.WithToken(token)),
		timeouts: config.LoadTimeouts(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.retryOpts = []retry.Option{
		retry.WithMaxAttempts(c.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(c.timeouts.RetryInitialDelay),
	}
	return c
}

func (c *Client) Name() string { return backendName }

// Describe fetches one resource by its resolved identity, the Hetzner
// resource name.
func (c *Client) Describe(ctx context.Context, kind reconcile.Kind, identity string) (*reconcile.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Backend)
	defer cancel()

	switch kind {
	case reconcile.KindServer:
		return c.describeServer(ctx, identity)
	case reconcile.KindNetwork:
		return c.describeNetwork(ctx, identity)
	case reconcile.KindSSHKey:
		return c.describeSSHKey(ctx, identity)
	default:
		return nil, fmt.Errorf("hcloud backend cannot describe kind %q", kind)
	}
}

// Create provisions the resource a plan resolved.
func (c *Client) Create(ctx context.Context, kind reconcile.Kind, identity string, params map[string]string) (*reconcile.Record, error) {
	switch kind {
	case reconcile.KindServer:
		return c.createServer(ctx, identity, params)
	case reconcile.KindNetwork:
		return c.createNetwork(ctx, identity, params)
	case reconcile.KindSSHKey:
		return c.createSSHKey(ctx, identity, params)
	default:
		return nil, fmt.Errorf("hcloud backend cannot create kind %q", kind)
	}
}

// Delete removes a resource by the numeric ID a delete plan resolved.
// A reference that no longer resolves means the resource changed since
// planning, which is a conflict, not a success.
func (c *Client) Delete(ctx context.Context, kind reconcile.Kind, ref string) error {
	var err error
	switch kind {
	case reconcile.KindServer:
		err = c.deleteServer(ctx, ref)
	case reconcile.KindNetwork:
		err = c.deleteNetwork(ctx, ref)
	case reconcile.KindSSHKey:
		err = c.deleteSSHKey(ctx, ref)
	default:
		return fmt.Errorf("hcloud backend cannot delete kind %q", kind)
	}
	if err != nil {
		if reconcile.IsNotFound(err) {
			return &reconcile.ConflictError{Kind: kind, Identity: ref}
		}
		return err
	}
	return nil
}

// ListReservations is not served by this backend; address space lives
// in the IPAM system.
func (c *Client) ListReservations(context.Context, reconcile.Container) ([]reconcile.Reservation, error) {
	return nil, fmt.Errorf("hcloud backend does not manage CIDR reservations")
}

// FindReservations is not served by this backend.
func (c *Client) FindReservations(context.Context, string, netblock.Block) ([]reconcile.Reservation, error) {
	return nil, fmt.Errorf("hcloud backend does not manage CIDR reservations")
}

// getRetried runs a single SDK read, retrying transient failures only.
func getRetried[T any](ctx context.Context, c *Client, kind reconcile.Kind, identity string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := retry.Do(ctx, func() error {
		var getErr error
		out, getErr = fn(ctx)
		if getErr == nil {
			return nil
		}
		getErr = mapError(getErr, kind, identity)
		if reconcile.IsTransient(getErr) {
			return getErr
		}
		return retry.Fatal(getErr)
	}, c.retryOpts...)
	return out, err
}

// waitFor blocks until the given actions settle. Nil actions are
// skipped; the SDK returns already-finished actions without polling.
func (c *Client) waitFor(ctx context.Context, actions ...*hcloud.Action) error {
	live := make([]*hcloud.Action, 0, len(actions))
	for _, a := range actions {
		if a != nil {
			live = append(live, a)
		}
	}
	if len(live) == 0 {
		return nil
	}
	return c.api.Action.WaitFor(ctx, live...)
}

// resourceLabels stamps the managed-by label set, picking up site and
// owner from the plan when present.
func resourceLabels(params map[string]string) map[string]string {
	return labels.New().
		WithSite(params[reconcile.ParamSiteCode]).
		WithOwner(params[ParamOwner]).
		Build()
}

// splitList splits a comma-separated parameter value.
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
