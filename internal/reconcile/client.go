package reconcile

import (
	"context"

	"github.com/netreserve/netreserve/internal/netblock"
)

// Kind identifies a class of cloud resource handled by a backend.
type Kind string

const (
	KindReservation       Kind = "cidr-reservation"
	KindSubnet            Kind = "subnet"
	KindServiceAccount    Kind = "service-account"
	KindAPIKey            Kind = "api-key"
	KindServiceAttachment Kind = "service-attachment"
	KindNotebook          Kind = "notebook"
	KindServer            Kind = "server"
	KindNetwork           Kind = "network"
	KindSSHKey            Kind = "ssh-key"
	KindIAMPolicy         Kind = "iam-policy"
)

// Record describes an existing cloud object. Presence is the only state
// the engine tracks; it never diffs full object specs.
type Record struct {
	Kind     Kind
	Identity string
	// Ref is the backend's own reference token for the object. Deletes
	// always go through the ref, never through a re-derived name.
	Ref   string
	Attrs map[string]string
}

// Reservation is an address block already carved from a supernet.
type Reservation struct {
	Block   netblock.Block
	Ref     string
	Comment string
}

// Container identifies the pool reservations are listed from: a supernet
// within a network view.
type Container struct {
	View     string
	Supernet netblock.Block
}

// Client is the narrow contract a backend implements. Implementations
// translate their vendor errors into this package's taxonomy: Describe
// reports absence as *NotFoundError so the engine can tell "does not
// exist" from "could not check".
type Client interface {
	// Name identifies the backend ("infoblox", "gcloud", "hcloud") and is
	// recorded in every plan for apply-time routing.
	Name() string

	// Describe fetches a named resource, or *NotFoundError.
	Describe(ctx context.Context, kind Kind, identity string) (*Record, error)

	// Create provisions a resource with fully resolved parameters. A
	// resource that appeared since planning surfaces *ConflictError.
	Create(ctx context.Context, kind Kind, identity string, params map[string]string) (*Record, error)

	// Delete removes a resource by its backend reference token.
	Delete(ctx context.Context, kind Kind, ref string) error

	// ListReservations returns every reservation carved from the
	// container's supernet, for the allocator.
	ListReservations(ctx context.Context, container Container) ([]Reservation, error)

	// FindReservations returns all reservations exactly matching the
	// block in the given view. More than one element means the backing
	// system holds duplicates; the planner refuses to pick one.
	FindReservations(ctx context.Context, view string, block netblock.Block) ([]Reservation, error)
}
