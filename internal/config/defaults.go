package config

import "github.com/netreserve/netreserve/internal/util/ptr"

// Defaults applied when the file leaves a field unset.
const (
	DefaultGCloudBinary         = "gcloud"
	DefaultGCloudTimeoutSeconds = 300

	DefaultPodsPrefix          = 24
	DefaultServicesPrefix      = 26
	DefaultAggregationInterval = "interval-15-min"
	DefaultFlowSampling        = 0.5

	DefaultServerType = "cx32"
	DefaultImage      = "ubuntu-24.04"
	DefaultLocation   = "nbg1"

	DefaultMetricsJob  = "netreserve"
	DefaultJournalPath = ".netreserve/journal.db"
	DefaultPlanDir     = ".netreserve"
)

// BuiltinBundles returns the role bundles shipped with netreserve.
// File-level bundles are merged over these, so an operator can override
// a built-in bundle by redefining its name.
func BuiltinBundles() map[string][]string {
	return map[string][]string{
		"GenAI_ADMIN": {
			"roles/aiplatform.admin",
			"roles/aiplatform.user",
			"roles/notebooks.admin",
			"roles/storage.admin",
			"roles/bigquery.admin",
		},
		"GenAI_DEVELOPER": {
			"roles/aiplatform.user",
			"roles/viewer",
			"roles/bigquery.dataViewer",
			"roles/storage.objectViewer",
		},
		"CUSTOM_BUNDLE_1": {
			"roles/compute.admin",
			"roles/container.admin",
		},
	}
}

// DefaultAllowedProjectSegments returns the accepted second segment of
// a target project ID.
func DefaultAllowedProjectSegments() []string {
	return []string{"poc", "ppoc"}
}

// applyDefaults fills unset fields in place. Called by LoadFile after
// decoding, before validation.
func (c *Config) applyDefaults() {
	bundles := BuiltinBundles()
	for name, roles := range c.IAM.Bundles {
		bundles[name] = roles
	}
	c.IAM.Bundles = bundles

	if len(c.IAM.AllowedProjectSegments) == 0 {
		c.IAM.AllowedProjectSegments = DefaultAllowedProjectSegments()
	}

	if c.GCloud.Binary == "" {
		c.GCloud.Binary = DefaultGCloudBinary
	}
	if c.GCloud.TimeoutSeconds == 0 {
		c.GCloud.TimeoutSeconds = DefaultGCloudTimeoutSeconds
	}

	if c.Subnet.PodsPrefix == 0 {
		c.Subnet.PodsPrefix = DefaultPodsPrefix
	}
	if c.Subnet.ServicesPrefix == 0 {
		c.Subnet.ServicesPrefix = DefaultServicesPrefix
	}
	if c.Subnet.FlowLogs == nil {
		c.Subnet.FlowLogs = ptr.To(true)
	}
	if c.Subnet.AggregationInterval == "" {
		c.Subnet.AggregationInterval = DefaultAggregationInterval
	}
	if c.Subnet.PrivateGoogleAccess == nil {
		c.Subnet.PrivateGoogleAccess = ptr.To(true)
	}

	if c.HCloud.ServerType == "" {
		c.HCloud.ServerType = DefaultServerType
	}
	if c.HCloud.Image == "" {
		c.HCloud.Image = DefaultImage
	}
	if c.HCloud.Location == "" {
		c.HCloud.Location = DefaultLocation
	}

	if c.Metrics.Job == "" {
		c.Metrics.Job = DefaultMetricsJob
	}
	if c.Journal.Path == "" {
		c.Journal.Path = DefaultJournalPath
	}
	if c.PlanDir == "" {
		c.PlanDir = DefaultPlanDir
	}
}
