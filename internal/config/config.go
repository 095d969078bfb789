package config

// Config holds the full netreserve configuration.
type Config struct {
	// Infoblox is the IPAM backend used for CIDR reservations.
	Infoblox InfobloxConfig `mapstructure:"infoblox" yaml:"infoblox"`

	// Views maps a network view name to its ordered supernet pool.
	// Reservation planning walks the supernets in the listed order and
	// the first one with a free block wins.
	Views map[string]ViewConfig `mapstructure:"views" yaml:"views"`

	// Groups maps an infrastructure group name to its shared-VPC
	// context. Subnet planning resolves the host project, VPC and the
	// views to draw primary and secondary ranges from through a group.
	Groups map[string]GroupConfig `mapstructure:"groups" yaml:"groups"`

	// IAM holds the role bundles and project naming policy.
	IAM IAMConfig `mapstructure:"iam" yaml:"iam"`

	// GCloud configures the gcloud CLI wrapper.
	GCloud GCloudConfig `mapstructure:"gcloud" yaml:"gcloud"`

	// Subnet holds defaults applied to every planned subnet.
	Subnet SubnetConfig `mapstructure:"subnet" yaml:"subnet"`

	// HCloud holds defaults for Hetzner Cloud sandbox resources.
	// The API token comes from the HCLOUD_TOKEN environment variable.
	HCloud HCloudConfig `mapstructure:"hcloud" yaml:"hcloud"`

	// PSCProjects maps a Private Service Connect consumer name to the
	// GCP project that hosts its GKE service agent.
	PSCProjects map[string]string `mapstructure:"psc_projects" yaml:"psc_projects"`

	// Metrics configures the optional Pushgateway sink.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Journal configures the local run history database.
	Journal JournalConfig `mapstructure:"journal" yaml:"journal"`

	// PlanDir is where plan files are written when no explicit output
	// path is given. Default: ".netreserve".
	PlanDir string `mapstructure:"plan_dir" yaml:"plan_dir"`
}

// InfobloxConfig describes the Infoblox WAPI endpoint. Credentials are
// read from INFOBLOX_USERNAME and INFOBLOX_PASSWORD, never from the
// file.
type InfobloxConfig struct {
	// URL is the WAPI base, e.g. "https://ipam.example.com/wapi/v2.12".
	URL string `mapstructure:"url" yaml:"url"`

	// SiteCode is the default Site Code extensible attribute stamped
	// onto reservations when the request does not carry one.
	SiteCode string `mapstructure:"site_code" yaml:"site_code"`

	// InsecureSkipVerify disables TLS certificate verification.
	// Only for appliances with self-signed certificates.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// ViewConfig is the allocation pool of one network view.
type ViewConfig struct {
	// Supernets are CIDR containers, tried in order.
	Supernets []string `mapstructure:"supernets" yaml:"supernets"`
}

// GroupConfig ties an infrastructure group to its shared-VPC host
// project and the views its address space comes from.
type GroupConfig struct {
	// HostProject is the shared-VPC host project ID.
	HostProject string `mapstructure:"host_project" yaml:"host_project"`

	// Network is the VPC name inside the host project.
	Network string `mapstructure:"network" yaml:"network"`

	// View names the entry in Views that provides primary subnet
	// ranges for this group.
	View string `mapstructure:"view" yaml:"view"`

	// NonRoutableView names the entry in Views that provides the GKE
	// pods and services secondary ranges. Empty means the group plans
	// plain subnets without secondary ranges.
	NonRoutableView string `mapstructure:"non_routable_view" yaml:"non_routable_view"`
}

// IAMConfig holds role bundles and the project-id naming policy.
type IAMConfig struct {
	// Bundles maps a bundle name to the roles it grants. The built-in
	// bundles are installed by defaulting and can be overridden.
	Bundles map[string][]string `mapstructure:"bundles" yaml:"bundles"`

	// AllowedProjectSegments lists the accepted second dash-separated
	// segment of a target project ID. Default: ["poc", "ppoc"].
	AllowedProjectSegments []string `mapstructure:"allowed_project_segments" yaml:"allowed_project_segments"`
}

// GCloudConfig configures the gcloud CLI wrapper.
type GCloudConfig struct {
	// Binary is the gcloud executable. Default: "gcloud".
	Binary string `mapstructure:"binary" yaml:"binary"`

	// TimeoutSeconds bounds a single gcloud invocation. Default: 300.
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// SubnetConfig holds defaults applied to every planned subnet.
type SubnetConfig struct {
	// PodsPrefix is the prefix length of the GKE pods secondary range.
	// Default: 24.
	PodsPrefix int `mapstructure:"pods_prefix" yaml:"pods_prefix"`

	// ServicesPrefix is the prefix length of the GKE services
	// secondary range. Default: 26.
	ServicesPrefix int `mapstructure:"services_prefix" yaml:"services_prefix"`

	// FlowLogs enables VPC flow logs on created subnets.
	// Default: true.
	FlowLogs *bool `mapstructure:"flow_logs" yaml:"flow_logs"`

	// AggregationInterval is the flow log aggregation interval.
	// Default: "interval-15-min".
	AggregationInterval string `mapstructure:"aggregation_interval" yaml:"aggregation_interval"`

	// FlowSampling is the flow log sampling rate in (0, 1].
	// Default: 0.5.
	FlowSampling float64 `mapstructure:"flow_sampling" yaml:"flow_sampling"`

	// PrivateGoogleAccess enables Private Google Access.
	// Default: true.
	PrivateGoogleAccess *bool `mapstructure:"private_google_access" yaml:"private_google_access"`
}

// HCloudConfig holds defaults for Hetzner Cloud sandbox resources.
type HCloudConfig struct {
	// ServerType is the default server type. Default: "cx32".
	ServerType string `mapstructure:"server_type" yaml:"server_type"`

	// Image is the default OS image. Default: "ubuntu-24.04".
	Image string `mapstructure:"image" yaml:"image"`

	// Location is the default datacenter location. Default: "nbg1".
	Location string `mapstructure:"location" yaml:"location"`
}

// MetricsConfig configures the optional Pushgateway sink. An empty
// Gateway disables metrics entirely.
type MetricsConfig struct {
	Gateway string `mapstructure:"gateway" yaml:"gateway"`

	// Job is the Pushgateway job label. Default: "netreserve".
	Job string `mapstructure:"job" yaml:"job"`
}

// JournalConfig configures the local run history database.
type JournalConfig struct {
	// Path of the SQLite database file.
	// Default: ".netreserve/journal.db".
	Path string `mapstructure:"path" yaml:"path"`

	// Disabled turns the journal off entirely.
	Disabled bool `mapstructure:"disabled" yaml:"disabled"`
}

// SupernetsForView returns the ordered supernet list of a view, or nil
// when the view is not configured.
func (c *Config) SupernetsForView(view string) []string {
	vc, ok := c.Views[view]
	if !ok {
		return nil
	}
	return vc.Supernets
}

// Group returns the named infrastructure group.
func (c *Config) Group(name string) (GroupConfig, bool) {
	g, ok := c.Groups[name]
	return g, ok
}
