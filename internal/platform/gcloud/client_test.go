package gcloud

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netreserve/netreserve/internal/netblock"
	"github.com/netreserve/netreserve/internal/reconcile"
	"github.com/netreserve/netreserve/internal/util/retry"
)

func TestUnsupportedKinds(t *testing.T) {
	t.Parallel()

	runner := &mockRunner{}
	client := newTestClient(runner)
	ctx := context.Background()

	_, err := client.Describe(ctx, reconcile.KindServer, "web-1")
	assert.ErrorContains(t, err, "cannot describe kind")

	_, err = client.Create(ctx, reconcile.KindReservation, "10.0.0.0/28", nil)
	assert.ErrorContains(t, err, "cannot create kind")

	err = client.Delete(ctx, reconcile.KindIAMPolicy, "acme-poc-ml")
	assert.ErrorContains(t, err, "cannot delete kind")

	_, err = client.ListReservations(ctx, reconcile.Container{})
	assert.ErrorContains(t, err, "does not manage CIDR reservations")

	_, err = client.FindReservations(ctx, "corp", netblock.MustParse("10.0.0.0/24"))
	assert.ErrorContains(t, err, "does not manage CIDR reservations")

	assert.Zero(t, runner.callCount(), "unsupported kinds must not reach the binary")
}

func TestDeleteOfVanishedResourceIsConflict(t *testing.T) {
	t.Parallel()

	runner := &mockRunner{handler: func([]string) (string, error) {
		return "", cmdFailure(1, "ERROR: The resource was not found")
	}}
	client := newTestClient(runner)

	err := client.Delete(context.Background(), reconcile.KindServiceAccount, "sa@acme-poc-ml.iam.gserviceaccount.com")
	require.Error(t, err)
	assert.True(t, reconcile.IsConflict(err))
	assert.False(t, reconcile.IsNotFound(err))
}

func TestReadRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	attempts := 0
	runner := &mockRunner{handler: func([]string) (string, error) {
		attempts++
		if attempts < 3 {
			return "", cmdFailure(1, "ERROR: UNAVAILABLE: 503")
		}
		return `{"email":"sa@acme-poc-ml.iam.gserviceaccount.com"}`, nil
	}}
	client := newTestClient(runner,
		retry.WithMaxAttempts(4), retry.WithInitialDelay(time.Millisecond))

	record, err := client.Describe(context.Background(), reconcile.KindServiceAccount, "sa@acme-poc-ml.iam.gserviceaccount.com")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, "sa@acme-poc-ml.iam.gserviceaccount.com", record.Ref)
}

func TestReadDoesNotRetryAuthFailures(t *testing.T) {
	t.Parallel()

	runner := &mockRunner{handler: func([]string) (string, error) {
		return "", cmdFailure(2, "ERROR: bad usage")
	}}
	client := newTestClient(runner,
		retry.WithMaxAttempts(5), retry.WithInitialDelay(time.Millisecond))

	_, err := client.Describe(context.Background(), reconcile.KindServiceAccount, "sa@acme-poc-ml.iam.gserviceaccount.com")
	require.Error(t, err)
	assert.True(t, reconcile.IsAuth(err))
	assert.Equal(t, 1, runner.callCount())
}

func TestMutationsAreNeverRetried(t *testing.T) {
	t.Parallel()

	runner := &mockRunner{handler: func([]string) (string, error) {
		return "", cmdFailure(1, "ERROR: UNAVAILABLE: 503")
	}}
	client := newTestClient(runner,
		retry.WithMaxAttempts(5), retry.WithInitialDelay(time.Millisecond))

	_, err := client.Create(context.Background(), reconcile.KindServiceAccount,
		"sa@acme-poc-ml.iam.gserviceaccount.com",
		map[string]string{ParamAccountID: "sa", reconcile.ParamProject: "acme-poc-ml"})
	require.Error(t, err)
	assert.True(t, reconcile.IsTransient(err))
	assert.Equal(t, 1, runner.callCount(), "a timed-out create may have landed; no blind retry")
}

func TestParsePath(t *testing.T) {
	t.Parallel()

	project, region, name, err := parsePath(
		"projects/net-host/regions/europe-west3/subnetworks/sandbox-a", "regions", "subnetworks")
	require.NoError(t, err)
	assert.Equal(t, "net-host", project)
	assert.Equal(t, "europe-west3", region)
	assert.Equal(t, "sandbox-a", name)

	for _, malformed := range []string{
		"",
		"sandbox-a",
		"projects/net-host/zones/z/subnetworks/sandbox-a",
		"projects/net-host/regions/europe-west3/instances/sandbox-a",
		"projects//regions/europe-west3/subnetworks/sandbox-a",
		"projects/net-host/regions/europe-west3/subnetworks/sandbox-a/extra",
	} {
		_, _, _, err := parsePath(malformed, "regions", "subnetworks")
		assert.Truef(t, reconcile.IsValidation(err), "path %q must be rejected", malformed)
	}
}
