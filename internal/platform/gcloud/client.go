package gcloud

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/netreserve/netreserve/internal/netblock"
	"github.com/netreserve/netreserve/internal/reconcile"
	"github.com/netreserve/netreserve/internal/util/retry"
)

const backendName = "gcloud"

// Backend-specific parameter keys. All values are resolved at plan time;
// Create only assembles argv from them.
const (
	ParamNetwork              = "network"
	ParamPurpose              = "purpose"
	ParamPodsCIDR             = "pods_cidr"
	ParamServicesCIDR         = "services_cidr"
	ParamPodsRangeName        = "pods_range_name"
	ParamServicesRangeName    = "services_range_name"
	ParamPSCProject           = "psc_project"
	ParamServiceProject       = "service_project"
	ParamFlowLogs             = "flow_logs"
	ParamAggregationInterval  = "aggregation_interval"
	ParamFlowSampling         = "flow_sampling"
	ParamPrivateGoogleAccess  = "private_google_access"
	ParamAccountID            = "account_id"
	ParamDisplayName          = "display_name"
	ParamLocation             = "location"
	ParamMachineType          = "machine_type"
	ParamDataDiskSize         = "data_disk_size_gb"
	ParamSSHPublicKey         = "ssh_public_key"
	ParamNATSubnets           = "nat_subnets"
	ParamForwardingRule       = "producer_forwarding_rule"
	ParamConnectionPreference = "connection_preference"
)

// PurposePSC marks a subnet reserved for Private Service Connect
// endpoints.
const PurposePSC = "PRIVATE_SERVICE_CONNECT"

// Client drives gcloud through an injectable runner.
type Client struct {
	runner    Runner
	retryOpts []retry.Option
}

// New wraps a runner. Retry options apply to reads only.
func New(runner Runner, retryOpts ...retry.Option) *Client {
	return &Client{runner: runner, retryOpts: retryOpts}
}

func (c *Client) Name() string { return backendName }

// Describe fetches one resource by its resolved identity.
func (c *Client) Describe(ctx context.Context, kind reconcile.Kind, identity string) (*reconcile.Record, error) {
	switch kind {
	case reconcile.KindSubnet:
		return c.describeSubnet(ctx, identity)
	case reconcile.KindServiceAccount:
		return c.describeServiceAccount(ctx, identity)
	case reconcile.KindAPIKey:
		return c.describeAPIKey(ctx, identity)
	case reconcile.KindServiceAttachment:
		return c.describeServiceAttachment(ctx, identity)
	case reconcile.KindNotebook:
		return c.describeNotebook(ctx, identity)
	case reconcile.KindIAMPolicy:
		return c.describeProjectPolicy(ctx, identity)
	default:
		return nil, fmt.Errorf("gcloud backend cannot describe kind %q", kind)
	}
}

// Create provisions the resource a plan resolved. For IAM policies the
// "create" is the full policy write the plan carries.
func (c *Client) Create(ctx context.Context, kind reconcile.Kind, identity string, params map[string]string) (*reconcile.Record, error) {
	switch kind {
	case reconcile.KindSubnet:
		return c.createSubnet(ctx, identity, params)
	case reconcile.KindServiceAccount:
		return c.createServiceAccount(ctx, identity, params)
	case reconcile.KindAPIKey:
		return c.createAPIKey(ctx, identity, params)
	case reconcile.KindServiceAttachment:
		return c.createServiceAttachment(ctx, identity, params)
	case reconcile.KindNotebook:
		return c.createNotebook(ctx, identity, params)
	case reconcile.KindIAMPolicy:
		return c.setProjectPolicy(ctx, identity, params)
	default:
		return nil, fmt.Errorf("gcloud backend cannot create kind %q", kind)
	}
}

// Delete removes a resource by the reference a delete plan resolved. A
// reference that no longer resolves means the resource changed since
// planning, which is a conflict, not a success.
func (c *Client) Delete(ctx context.Context, kind reconcile.Kind, ref string) error {
	var err error
	switch kind {
	case reconcile.KindSubnet:
		err = c.deleteSubnet(ctx, ref)
	case reconcile.KindServiceAccount:
		err = c.deleteServiceAccount(ctx, ref)
	case reconcile.KindAPIKey:
		err = c.deleteAPIKey(ctx, ref)
	case reconcile.KindServiceAttachment:
		err = c.deleteServiceAttachment(ctx, ref)
	case reconcile.KindNotebook:
		err = c.deleteNotebook(ctx, ref)
	default:
		return fmt.Errorf("gcloud backend cannot delete kind %q", kind)
	}
	if err != nil {
		if reconcile.IsNotFound(err) {
			return &reconcile.ConflictError{Kind: kind, Identity: ref}
		}
		return err
	}
	return nil
}

// ListReservations is not served by this backend; address space lives in
// the IPAM system.
func (c *Client) ListReservations(context.Context, reconcile.Container) ([]reconcile.Reservation, error) {
	return nil, fmt.Errorf("gcloud backend does not manage CIDR reservations")
}

// FindReservations is not served by this backend.
func (c *Client) FindReservations(context.Context, string, netblock.Block) ([]reconcile.Reservation, error) {
	return nil, fmt.Errorf("gcloud backend does not manage CIDR reservations")
}

// read runs a non-mutating invocation, retrying transient failures.
func (c *Client) read(ctx context.Context, kind reconcile.Kind, identity string, args ...string) (string, error) {
	var out string
	err := retry.Do(ctx, func() error {
		var runErr error
		out, runErr = c.runner.Run(ctx, args...)
		if runErr == nil {
			return nil
		}
		runErr = classify(runErr, kind, identity)
		if reconcile.IsTransient(runErr) {
			return runErr
		}
		return retry.Fatal(runErr)
	}, c.retryOpts...)
	if err != nil {
		return "", err
	}
	return out, nil
}

// mutate runs a mutating invocation exactly once.
func (c *Client) mutate(ctx context.Context, kind reconcile.Kind, identity string, args ...string) (string, error) {
	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		return "", classify(err, kind, identity)
	}
	return out, nil
}

// parsePath splits a resource path of the shape
// "projects/<project>/<scope>/<value>/<collection>/<name>".
func parsePath(path, scopeSeg, collectionSeg string) (project, scope, name string, err error) {
	parts := strings.Split(path, "/")
	if len(parts) != 6 || parts[0] != "projects" || parts[2] != scopeSeg || parts[4] != collectionSeg ||
		parts[1] == "" || parts[3] == "" || parts[5] == "" {
		return "", "", "", &reconcile.ValidationError{
			Field:   "identity",
			Message: fmt.Sprintf("malformed resource path %q, want projects/*/%s/*/%s/*", path, scopeSeg, collectionSeg),
		}
	}
	return parts[1], parts[3], parts[5], nil
}

// writeTempFile stages a policy document for a gcloud flag that only
// accepts files. The caller removes the file.
func writeTempFile(pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp("", pattern)
	if err != nil {
		return "", fmt.Errorf("create policy temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write policy temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close policy temp file: %w", err)
	}
	return f.Name(), nil
}
