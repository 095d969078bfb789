package gcloud

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/netreserve/netreserve/internal/reconcile"
)

const subnetIdentity = "projects/net-host/regions/europe-west3/subnetworks/sandbox-gke"

func gkeSubnetParams() map[string]string {
	return map[string]string{
		reconcile.ParamCIDR:      "10.10.4.0/24",
		ParamPrivateGoogleAccess: "true",
		ParamFlowLogs:            "true",
		ParamAggregationInterval: "interval-15-min",
		ParamFlowSampling:        "0.5",
		ParamNetwork:             "corp-vpc",
		ParamPodsCIDR:            "100.64.0.0/24",
		ParamPodsRangeName:       "sandbox-gke-pods",
		ParamServicesCIDR:        "100.64.1.0/26",
		ParamServicesRangeName:   "sandbox-gke-services",
	}
}

func TestDescribeSubnet(t *testing.T) {
	t.Parallel()

	runner := &mockRunner{handler: func(args []string) (string, error) {
		return `{"ipCidrRange":"10.10.4.0/24","network":"corp-vpc"}`, nil
	}}
	client := newTestClient(runner)

	record, err := client.Describe(context.Background(), reconcile.KindSubnet, subnetIdentity)
	require.NoError(t, err)
	assert.Equal(t, subnetIdentity, record.Ref)
	assert.Equal(t, "10.10.4.0/24", record.Attrs[reconcile.ParamCIDR])

	assert.Equal(t, []string{
		"compute", "networks", "subnets", "describe", "sandbox-gke",
		"--project", "net-host", "--region", "europe-west3", "--format", "json",
	}, runner.callMatching("compute networks subnets describe"))
}

func TestCreateSubnetForGKE(t *testing.T) {
	t.Parallel()

	runner := &mockRunner{}
	client := newTestClient(runner)

	record, err := client.Create(context.Background(), reconcile.KindSubnet, subnetIdentity, gkeSubnetParams())
	require.NoError(t, err)
	assert.Equal(t, subnetIdentity, record.Ref)

	assert.Equal(t, []string{
		"compute", "networks", "subnets", "create", "sandbox-gke",
		"--project", "net-host", "--range", "10.10.4.0/24", "--region", "europe-west3",
		"--enable-private-ip-google-access",
		"--enable-flow-logs",
		"--logging-aggregation-interval", "interval-15-min",
		"--logging-flow-sampling", "0.5",
		"--network", "corp-vpc",
		"--secondary-range", "sandbox-gke-pods=100.64.0.0/24,sandbox-gke-services=100.64.1.0/26",
	}, runner.callMatching("compute networks subnets create"))
	assert.Equal(t, 1, runner.callCount(), "no sharing was requested")
}

func TestCreateSubnetWithoutPrimaryRange(t *testing.T) {
	t.Parallel()

	runner := &mockRunner{}
	client := newTestClient(runner)

	params := gkeSubnetParams()
	delete(params, reconcile.ParamCIDR)
	_, err := client.Create(context.Background(), reconcile.KindSubnet, subnetIdentity, params)
	require.Error(t, err)
	assert.True(t, reconcile.IsValidation(err))
	assert.Zero(t, runner.callCount())
}

func TestCreatePSCSubnetSharesWithHostProject(t *testing.T) {
	t.Parallel()

	runner := &mockRunner{handler: func(args []string) (string, error) {
		if args[0] == "projects" && args[1] == "describe" {
			return "987654321", nil
		}
		return "", nil
	}}
	client := newTestClient(runner)

	params := map[string]string{
		reconcile.ParamCIDR: "10.20.0.0/28",
		ParamPurpose:        PurposePSC,
		ParamPSCProject:     "psc-host-1",
	}
	identity := "projects/net-host/regions/europe-west3/subnetworks/psc-endpoint-a"
	_, err := client.Create(context.Background(), reconcile.KindSubnet, identity, params)
	require.NoError(t, err)

	create := runner.callMatching("compute networks subnets create")
	require.NotNil(t, create)
	assert.Contains(t, strings.Join(create, " "), "--purpose PRIVATE_SERVICE_CONNECT")

	assert.Equal(t, []string{
		"projects", "describe", "psc-host-1", "--format", "value(projectNumber)",
	}, runner.callMatching("projects describe"))

	assert.Equal(t, []string{
		"compute", "networks", "subnets", "add-iam-policy-binding", "psc-endpoint-a",
		"--project", "net-host", "--region", "europe-west3",
		"--member", "serviceAccount:service-987654321@gcp-sa-gke.iam.gserviceaccount.com",
		"--role", "roles/compute.networkUser",
	}, runner.callMatching("compute networks subnets add-iam-policy-binding"))
}

func TestCreateSubnetSharesWithServiceProject(t *testing.T) {
	t.Parallel()

	const existingPolicy = `name: projects/ml-sandbox/policies/compute.restrictSharedVpcSubnetworks
spec:
  rules:
  - values:
      allowedValues:
      - projects/net-host/regions/europe-west3/subnetworks/older-subnet
`

	var written map[string]any
	runner := &mockRunner{}
	runner.handler = func(args []string) (string, error) {
		switch {
		case args[0] == "org-policies" && args[1] == "describe":
			return existingPolicy, nil
		case args[0] == "org-policies" && args[1] == "set-policy":
			data, err := os.ReadFile(args[2])
			if err != nil {
				return "", err
			}
			return "", yaml.Unmarshal(data, &written)
		default:
			return "", nil
		}
	}
	client := newTestClient(runner)

	params := map[string]string{
		reconcile.ParamCIDR: "10.10.4.0/24",
		ParamNetwork:        "corp-vpc",
		ParamServiceProject: "ml-sandbox",
	}
	_, err := client.Create(context.Background(), reconcile.KindSubnet, subnetIdentity, params)
	require.NoError(t, err)

	setPolicy := runner.callMatching("org-policies set-policy")
	require.NotNil(t, setPolicy)
	assert.Equal(t, []string{"--project", "ml-sandbox"}, setPolicy[3:])

	require.NotNil(t, written)
	spec := written["spec"].(map[string]any)
	rule := spec["rules"].([]any)[0].(map[string]any)
	allowed := rule["values"].(map[string]any)["allowedValues"].([]any)
	assert.Equal(t, []any{
		"projects/net-host/regions/europe-west3/subnetworks/older-subnet",
		subnetIdentity,
	}, allowed)
}

func TestShareWithServiceProjectAlreadyAllowed(t *testing.T) {
	t.Parallel()

	policy := `spec:
  rules:
  - values:
      allowedValues:
      - ` + subnetIdentity + "\n"

	runner := &mockRunner{}
	runner.handler = func(args []string) (string, error) {
		if args[0] == "org-policies" && args[1] == "describe" {
			return policy, nil
		}
		return "", nil
	}
	client := newTestClient(runner)

	params := map[string]string{
		reconcile.ParamCIDR: "10.10.4.0/24",
		ParamServiceProject: "ml-sandbox",
	}
	_, err := client.Create(context.Background(), reconcile.KindSubnet, subnetIdentity, params)
	require.NoError(t, err)
	assert.Nil(t, runner.callMatching("org-policies set-policy"), "unchanged policy must not be rewritten")
}

func TestShareWithServiceProjectStartsFromSkeleton(t *testing.T) {
	t.Parallel()

	var written map[string]any
	runner := &mockRunner{}
	runner.handler = func(args []string) (string, error) {
		switch {
		case args[0] == "org-policies" && args[1] == "describe":
			return "", cmdFailure(1, "ERROR: NOT_FOUND: no policy set on the project")
		case args[0] == "org-policies" && args[1] == "set-policy":
			data, err := os.ReadFile(args[2])
			if err != nil {
				return "", err
			}
			return "", yaml.Unmarshal(data, &written)
		default:
			return "", nil
		}
	}
	client := newTestClient(runner)

	params := map[string]string{
		reconcile.ParamCIDR: "10.10.4.0/24",
		ParamServiceProject: "ml-sandbox",
	}
	_, err := client.Create(context.Background(), reconcile.KindSubnet, subnetIdentity, params)
	require.NoError(t, err)

	require.NotNil(t, written)
	assert.Equal(t, "projects/ml-sandbox/policies/compute.restrictSharedVpcSubnetworks", written["name"])
	spec := written["spec"].(map[string]any)
	rule := spec["rules"].([]any)[0].(map[string]any)
	allowed := rule["values"].(map[string]any)["allowedValues"].([]any)
	assert.Equal(t, []any{subnetIdentity}, allowed)
}

func TestDeleteSubnet(t *testing.T) {
	t.Parallel()

	runner := &mockRunner{}
	client := newTestClient(runner)

	err := client.Delete(context.Background(), reconcile.KindSubnet, subnetIdentity)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"compute", "networks", "subnets", "delete", "sandbox-gke",
		"--project", "net-host", "--region", "europe-west3", "--quiet",
	}, runner.callMatching("compute networks subnets delete"))
}

func TestAllowSubnetMaterializesMissingLevels(t *testing.T) {
	t.Parallel()

	policy := map[string]any{}
	require.True(t, allowSubnet(policy, "projects/h/regions/r/subnetworks/a"))
	require.False(t, allowSubnet(policy, "projects/h/regions/r/subnetworks/a"))
	require.True(t, allowSubnet(policy, "projects/h/regions/r/subnetworks/b"))

	spec := policy["spec"].(map[string]any)
	rule := spec["rules"].([]any)[0].(map[string]any)
	allowed := rule["values"].(map[string]any)["allowedValues"].([]any)
	assert.Len(t, allowed, 2)
}
