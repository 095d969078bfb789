package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "netreserve.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFileFull(t *testing.T) {
	path := writeConfigFile(t, `
infoblox:
  url: https://ipam.example.com/wapi/v2.12
  site_code: FRA1
views:
  corp:
    supernets:
      - 10.0.0.0/8
      - 172.16.0.0/12
  nonroutable:
    supernets:
      - 100.64.0.0/10
groups:
  genai:
    host_project: net-host-poc-1234
    network: shared-vpc
    view: corp
    non_routable_view: nonroutable
iam:
  bundles:
    TEAM_X:
      - roles/editor
  allowed_project_segments: [poc, ppoc, sbx]
gcloud:
  binary: /opt/google-cloud-sdk/bin/gcloud
  timeout_seconds: 120
subnet:
  pods_prefix: 22
  flow_sampling: 0.25
hcloud:
  server_type: cpx41
  location: fsn1
psc_projects:
  lookerstudio: psc-host-ppoc-0001
metrics:
  gateway: http://pushgw.example.com:9091
journal:
  path: /tmp/netreserve-journal.db
plan_dir: /tmp/netreserve-plans
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://ipam.example.com/wapi/v2.12", cfg.Infoblox.URL)
	assert.Equal(t, "FRA1", cfg.Infoblox.SiteCode)

	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.0/12"}, cfg.SupernetsForView("corp"))
	assert.Equal(t, []string{"100.64.0.0/10"}, cfg.SupernetsForView("nonroutable"))
	assert.Nil(t, cfg.SupernetsForView("missing"))

	group, ok := cfg.Group("genai")
	require.True(t, ok)
	assert.Equal(t, "net-host-poc-1234", group.HostProject)
	assert.Equal(t, "shared-vpc", group.Network)
	assert.Equal(t, "corp", group.View)
	assert.Equal(t, "nonroutable", group.NonRoutableView)

	// File bundles are merged over the built-in ones.
	assert.Equal(t, []string{"roles/editor"}, cfg.IAM.Bundles["TEAM_X"])
	assert.Contains(t, cfg.IAM.Bundles, "GenAI_ADMIN")
	assert.Equal(t, []string{"poc", "ppoc", "sbx"}, cfg.IAM.AllowedProjectSegments)

	assert.Equal(t, "/opt/google-cloud-sdk/bin/gcloud", cfg.GCloud.Binary)
	assert.Equal(t, 120, cfg.GCloud.TimeoutSeconds)

	// Explicit values kept, the rest defaulted.
	assert.Equal(t, 22, cfg.Subnet.PodsPrefix)
	assert.Equal(t, DefaultServicesPrefix, cfg.Subnet.ServicesPrefix)
	assert.Equal(t, 0.25, cfg.Subnet.FlowSampling)
	require.NotNil(t, cfg.Subnet.FlowLogs)
	assert.True(t, *cfg.Subnet.FlowLogs)
	assert.Equal(t, DefaultAggregationInterval, cfg.Subnet.AggregationInterval)

	assert.Equal(t, "cpx41", cfg.HCloud.ServerType)
	assert.Equal(t, "fsn1", cfg.HCloud.Location)
	assert.Equal(t, DefaultImage, cfg.HCloud.Image)

	assert.Equal(t, "psc-host-ppoc-0001", cfg.PSCProjects["lookerstudio"])
	assert.Equal(t, "http://pushgw.example.com:9091", cfg.Metrics.Gateway)
	assert.Equal(t, DefaultMetricsJob, cfg.Metrics.Job)
	assert.Equal(t, "/tmp/netreserve-journal.db", cfg.Journal.Path)
	assert.Equal(t, "/tmp/netreserve-plans", cfg.PlanDir)
}

func TestLoadFileDefaultsOnMinimalConfig(t *testing.T) {
	cfg, err := LoadFile(writeConfigFile(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultGCloudBinary, cfg.GCloud.Binary)
	assert.Equal(t, DefaultGCloudTimeoutSeconds, cfg.GCloud.TimeoutSeconds)
	assert.Equal(t, DefaultPodsPrefix, cfg.Subnet.PodsPrefix)
	assert.Equal(t, DefaultServicesPrefix, cfg.Subnet.ServicesPrefix)
	assert.Equal(t, DefaultFlowSampling, cfg.Subnet.FlowSampling)
	require.NotNil(t, cfg.Subnet.PrivateGoogleAccess)
	assert.True(t, *cfg.Subnet.PrivateGoogleAccess)
	assert.Equal(t, DefaultServerType, cfg.HCloud.ServerType)
	assert.Equal(t, DefaultLocation, cfg.HCloud.Location)
	assert.Equal(t, DefaultJournalPath, cfg.Journal.Path)
	assert.Equal(t, DefaultPlanDir, cfg.PlanDir)
	assert.Equal(t, DefaultAllowedProjectSegments(), cfg.IAM.AllowedProjectSegments)

	for name, roles := range BuiltinBundles() {
		assert.Equal(t, roles, cfg.IAM.Bundles[name], "bundle %q", name)
	}
}

func TestLoadFileExplicitZeroSamplingRejected(t *testing.T) {
	_, err := LoadFile(writeConfigFile(t, `
subnet:
  flow_sampling: 0
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flow_sampling")
}

func TestLoadFileBuiltinBundleOverride(t *testing.T) {
	cfg, err := LoadFile(writeConfigFile(t, `
iam:
  bundles:
    GenAI_DEVELOPER:
      - roles/viewer
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"roles/viewer"}, cfg.IAM.Bundles["GenAI_DEVELOPER"])
	assert.Equal(t, BuiltinBundles()["GenAI_ADMIN"], cfg.IAM.Bundles["GenAI_ADMIN"])
}

func TestLoadFileMissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadFileBadYAML(t *testing.T) {
	_, err := LoadFile(writeConfigFile(t, "views: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal yaml")
}

func TestLoadFileValidationFailurePropagates(t *testing.T) {
	_, err := LoadFile(writeConfigFile(t, `
views:
  corp:
    supernets:
      - 10.0.0.0/8
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
	assert.Contains(t, err.Error(), "infoblox.url")
}

func TestLoadUsesExplicitPath(t *testing.T) {
	path := writeConfigFile(t, "{}\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}
