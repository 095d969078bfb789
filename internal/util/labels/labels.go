package labels

// Standard label keys. The netreserve.io prefix keeps them clear of
// labels other tooling sets on the same resources.
const (
	// KeySite identifies the site a sandbox belongs to.
	KeySite = "netreserve.io/site"

	// KeyOwner identifies the requesting team or user.
	KeyOwner = "netreserve.io/owner"

	// KeyManagedBy identifies the management system.
	KeyManagedBy = "netreserve.io/managed-by"
)

// ManagedByNetreserve is the manager value stamped on every resource
// this tool creates. Delete operations refuse resources without it.
const ManagedByNetreserve = "netreserve"

// Builder provides a fluent interface for building resource labels.
type Builder struct {
	labels map[string]string
}

// New creates a builder with the managed-by label pre-set.
func New() *Builder {
	return &Builder{
		labels: map[string]string{
			KeyManagedBy: ManagedByNetreserve,
		},
	}
}

// WithSite adds a site label if site is non-empty.
func (b *Builder) WithSite(site string) *Builder {
	if site != "" {
		b.labels[KeySite] = site
	}
	return b
}

// WithOwner adds an owner label if owner is non-empty.
func (b *Builder) WithOwner(owner string) *Builder {
	if owner != "" {
		b.labels[KeyOwner] = owner
	}
	return b
}

// Merge adds all labels from the provided map.
func (b *Builder) Merge(extra map[string]string) *Builder {
	for k, v := range extra {
		b.labels[k] = v
	}
	return b
}

// Build returns a copy of the labels map.
// Returns a copy to prevent external mutations.
func (b *Builder) Build() map[string]string {
	result := make(map[string]string, len(b.labels))
	for k, v := range b.labels {
		result[k] = v
	}
	return result
}

// SelectorForSite returns a label selector matching every managed
// resource of a site.
func SelectorForSite(site string) string {
	return KeyManagedBy + "=" + ManagedByNetreserve + "," + KeySite + "=" + site
}

// SelectorManaged returns a label selector matching every resource this
// tool manages.
func SelectorManaged() string {
	return KeyManagedBy + "=" + ManagedByNetreserve
}

// IsManaged reports whether a label set carries the manager stamp.
func IsManaged(labels map[string]string) bool {
	return labels[KeyManagedBy] == ManagedByNetreserve
}
