package handlers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/netreserve/netreserve/internal/config"
	"github.com/netreserve/netreserve/internal/metrics"
	"github.com/netreserve/netreserve/internal/netblock"
	"github.com/netreserve/netreserve/internal/platform/gcloud"
	"github.com/netreserve/netreserve/internal/platform/hcloud"
	"github.com/netreserve/netreserve/internal/platform/infoblox"
	"github.com/netreserve/netreserve/internal/reconcile"
	"github.com/netreserve/netreserve/internal/util/prerequisites"
)

// Factory function variables - can be replaced in tests for dependency
// injection.
var (
	newInfobloxClient = func(cfg *config.Config) (reconcile.Client, error) {
		creds, err := infoblox.CredentialsFromEnv()
		if err != nil {
			return nil, err
		}
		return infoblox.NewClient(cfg.Infoblox.URL, creds, cfg.Infoblox.InsecureSkipVerify), nil
	}

	newGCloudClient = func(cfg *config.Config) (reconcile.Client, error) {
		if err := prerequisites.Check(prerequisites.GCloud(cfg.GCloud.Binary)); err != nil {
			return nil, err
		}
		timeout := time.Duration(cfg.GCloud.TimeoutSeconds) * time.Second
		return gcloud.New(gcloud.NewRunner(cfg.GCloud.Binary, timeout)), nil
	}

	newHCloudClient = func(_ *config.Config) (reconcile.Client, error) {
		token := os.Getenv("HCLOUD_TOKEN")
		if token == "" {
			return nil, &reconcile.AuthError{Backend: "hcloud", Reason: "HCLOUD_TOKEN is not set"}
		}
		return hcloud.New(token, hcloud.WithTimeouts(config.LoadTimeouts())), nil
	}
)

// backendFor builds the named backend client, wrapped with call-latency
// instrumentation.
func (rt *runtime) backendFor(name string) (reconcile.Client, error) {
	var (
		client reconcile.Client
		err    error
	)
	switch name {
	case "infoblox":
		client, err = newInfobloxClient(rt.cfg)
	case "gcloud":
		client, err = newGCloudClient(rt.cfg)
	case "hcloud":
		client, err = newHCloudClient(rt.cfg)
	default:
		return nil, &reconcile.ValidationError{
			Field:   "backend",
			Message: fmt.Sprintf("unknown backend %q", name),
		}
	}
	if err != nil {
		return nil, err
	}
	return &timedClient{inner: client, rec: rt.metrics}, nil
}

// backendForKind routes a resource kind to the backend that owns it.
func backendForKind(kind reconcile.Kind) (string, error) {
	switch kind {
	case reconcile.KindReservation:
		return "infoblox", nil
	case reconcile.KindSubnet, reconcile.KindServiceAccount, reconcile.KindAPIKey,
		reconcile.KindServiceAttachment, reconcile.KindNotebook, reconcile.KindIAMPolicy:
		return "gcloud", nil
	case reconcile.KindServer, reconcile.KindNetwork, reconcile.KindSSHKey:
		return "hcloud", nil
	default:
		return "", &reconcile.ValidationError{
			Field:   "kind",
			Message: fmt.Sprintf("unknown resource kind %q", kind),
		}
	}
}

// timedClient records the latency of every backend call. A nil recorder
// makes it a transparent passthrough.
type timedClient struct {
	inner reconcile.Client
	rec   *metrics.Recorder
}

func (t *timedClient) Name() string { return t.inner.Name() }

func (t *timedClient) Describe(ctx context.Context, kind reconcile.Kind, identity string) (*reconcile.Record, error) {
	defer t.timed("describe")()
	return t.inner.Describe(ctx, kind, identity)
}

func (t *timedClient) Create(ctx context.Context, kind reconcile.Kind, identity string, params map[string]string) (*reconcile.Record, error) {
	defer t.timed("create")()
	return t.inner.Create(ctx, kind, identity, params)
}

func (t *timedClient) Delete(ctx context.Context, kind reconcile.Kind, ref string) error {
	defer t.timed("delete")()
	return t.inner.Delete(ctx, kind, ref)
}

func (t *timedClient) ListReservations(ctx context.Context, container reconcile.Container) ([]reconcile.Reservation, error) {
	defer t.timed("list-reservations")()
	return t.inner.ListReservations(ctx, container)
}

func (t *timedClient) FindReservations(ctx context.Context, view string, block netblock.Block) ([]reconcile.Reservation, error) {
	defer t.timed("find-reservations")()
	return t.inner.FindReservations(ctx, view, block)
}

func (t *timedClient) timed(operation string) func() {
	start := time.Now()
	return func() {
		t.rec.RecordBackendCall(t.inner.Name(), operation, time.Since(start))
	}
}
