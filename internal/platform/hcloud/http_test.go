package hcloud

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/hetznercloud/hcloud-go/v2/hcloud/schema"

	"github.com/netreserve/netreserve/internal/config"
	"github.com/netreserve/netreserve/internal/reconcile"
	"github.com/netreserve/netreserve/internal/util/labels"
)

// testServer mocks the Hetzner Cloud API.
type testServer struct {
	server *httptest.Server
	mux    *http.ServeMux
}

func newTestServer(t *testing.T) *testServer {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testServer{server: srv, mux: mux}
}

// backend returns a Client whose SDK talks to the test server.
func (ts *testServer) backend() *Client {
	api := hcloud.NewClient(
		hcloud.WithToken("test-token"),
		hcloud.WithEndpoint(ts.server.URL),
	)
	return New("test-token",
		WithAPIClient(api),
		WithTimeouts(&config.Timeouts{
			Backend:           5 * time.Second,
			RetryMaxAttempts:  1,
			RetryInitialDelay: time.Millisecond,
		}),
	)
}

func (ts *testServer) handleFunc(pattern string, handler http.HandlerFunc) {
	ts.mux.HandleFunc(pattern, handler)
}

// rejectUnhandled fails the test on any API call the test did not
// expect.
func (ts *testServer) rejectUnhandled(t *testing.T) {
	ts.handleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected API call %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	})
}

func jsonResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func managedLabels() map[string]string {
	return map[string]string{labels.KeyManagedBy: labels.ManagedByNetreserve}
}

func TestDescribeNetwork(t *testing.T) {
	ts := newTestServer(t)
	ts.handleFunc("/networks", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") == "lab-net" {
			jsonResponse(w, http.StatusOK, schema.NetworkListResponse{
				Networks: []schema.Network{
					{ID: 7, Name: "lab-net", IPRange: "10.40.0.0/16", Labels: managedLabels()},
				},
			})
			return
		}
		jsonResponse(w, http.StatusOK, schema.NetworkListResponse{Networks: []schema.Network{}})
	})

	backend := ts.backend()
	ctx := context.Background()

	t.Run("network found", func(t *testing.T) {
		record, err := backend.Describe(ctx, reconcile.KindNetwork, "lab-net")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if record.Ref != "7" {
			t.Errorf("expected ref '7', got %q", record.Ref)
		}
		if record.Attrs[reconcile.ParamCIDR] != "10.40.0.0/16" {
			t.Errorf("expected cidr attr, got %q", record.Attrs[reconcile.ParamCIDR])
		}
	})

	t.Run("network absent", func(t *testing.T) {
		_, err := backend.Describe(ctx, reconcile.KindNetwork, "other-net")
		if !reconcile.IsNotFound(err) {
			t.Errorf("expected not-found, got %v", err)
		}
	})
}

func TestCreateNetwork(t *testing.T) {
	ts := newTestServer(t)

	var createReq struct {
		Name    string            `json:"name"`
		IPRange string            `json:"ip_range"`
		Labels  map[string]string `json:"labels"`
	}
	var subnetReq struct {
		Type        string `json:"type"`
		IPRange     string `json:"ip_range"`
		NetworkZone string `json:"network_zone"`
	}

	ts.handleFunc("/networks", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&createReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		jsonResponse(w, http.StatusCreated, schema.NetworkCreateResponse{
			Network: schema.Network{ID: 7, Name: "lab-net", IPRange: "10.40.0.0/16"},
		})
	})
	ts.handleFunc("/networks/7/actions/add_subnet", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&subnetReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		jsonResponse(w, http.StatusCreated, schema.NetworkActionAddSubnetResponse{
			Action: schema.Action{ID: 1, Status: "success"},
		})
	})

	record, err := ts.backend().Create(context.Background(), reconcile.KindNetwork, "lab-net", map[string]string{
		reconcile.ParamCIDR: "10.40.0.0/16",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Ref != "7" {
		t.Errorf("expected ref '7', got %q", record.Ref)
	}

	if createReq.Name != "lab-net" || createReq.IPRange != "10.40.0.0/16" {
		t.Errorf("unexpected create request: %+v", createReq)
	}
	if createReq.Labels[labels.KeyManagedBy] != labels.ManagedByNetreserve {
		t.Errorf("network not stamped as managed: %v", createReq.Labels)
	}
	if subnetReq.Type != "cloud" || subnetReq.IPRange != "10.40.0.0/16" || subnetReq.NetworkZone != DefaultNetworkZone {
		t.Errorf("unexpected subnet request: %+v", subnetReq)
	}
}

func TestCreateNetworkValidation(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
	}{
		{name: "missing range", params: nil},
		{name: "malformed range", params: map[string]string{reconcile.ParamCIDR: "10.40.0.0/99"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.rejectUnhandled(t)

			_, err := ts.backend().Create(context.Background(), reconcile.KindNetwork, "lab-net", tt.params)
			if !reconcile.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestDeleteNetwork(t *testing.T) {
	t.Run("managed network deleted", func(t *testing.T) {
		ts := newTestServer(t)
		deleted := false
		ts.handleFunc("/networks/7", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				jsonResponse(w, http.StatusOK, schema.NetworkGetResponse{
					Network: schema.Network{ID: 7, Name: "lab-net", Labels: managedLabels()},
				})
			case http.MethodDelete:
				deleted = true
				w.WriteHeader(http.StatusNoContent)
			}
		})

		if err := ts.backend().Delete(context.Background(), reconcile.KindNetwork, "7"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !deleted {
			t.Error("network was not deleted")
		}
	})

	t.Run("foreign network refused", func(t *testing.T) {
		ts := newTestServer(t)
		ts.handleFunc("/networks/7", func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodDelete {
				t.Error("foreign network must not be deleted")
			}
			jsonResponse(w, http.StatusOK, schema.NetworkGetResponse{
				Network: schema.Network{ID: 7, Name: "lab-net"},
			})
		})

		err := ts.backend().Delete(context.Background(), reconcile.KindNetwork, "7")
		if err == nil || !strings.Contains(err.Error(), "refusing to delete") {
			t.Errorf("expected refusal, got %v", err)
		}
	})

	t.Run("stale reference is a conflict", func(t *testing.T) {
		ts := newTestServer(t)
		ts.handleFunc("/networks/7", func(w http.ResponseWriter, _ *http.Request) {
			jsonResponse(w, http.StatusNotFound, schema.ErrorResponse{
				Error: schema.Error{Code: "not_found", Message: "network not found"},
			})
		})

		err := ts.backend().Delete(context.Background(), reconcile.KindNetwork, "7")
		if !reconcile.IsConflict(err) {
			t.Errorf("expected conflict, got %v", err)
		}
	})
}

func TestDescribeSSHKey(t *testing.T) {
	ts := newTestServer(t)
	ts.handleFunc("/ssh_keys", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") == "lab-key" {
			jsonResponse(w, http.StatusOK, schema.SSHKeyListResponse{
				SSHKeys: []schema.SSHKey{
					{ID: 5, Name: "lab-key", Fingerprint: "aa:bb:cc"},
				},
			})
			return
		}
		jsonResponse(w, http.StatusOK, schema.SSHKeyListResponse{SSHKeys: []schema.SSHKey{}})
	})

	backend := ts.backend()
	ctx := context.Background()

	record, err := backend.Describe(ctx, reconcile.KindSSHKey, "lab-key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Ref != "5" {
		t.Errorf("expected ref '5', got %q", record.Ref)
	}
	if record.Attrs["fingerprint"] != "aa:bb:cc" {
		t.Errorf("expected fingerprint attr, got %q", record.Attrs["fingerprint"])
	}

	if _, err := backend.Describe(ctx, reconcile.KindSSHKey, "missing-key"); !reconcile.IsNotFound(err) {
		t.Errorf("expected not-found, got %v", err)
	}
}

func TestCreateSSHKey(t *testing.T) {
	ts := newTestServer(t)

	var createReq struct {
		Name      string            `json:"name"`
		PublicKey string            `json:"public_key"`
		Labels    map[string]string `json:"labels"`
	}
	ts.handleFunc("/ssh_keys", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&createReq); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		jsonResponse(w, http.StatusCreated, schema.SSHKeyCreateResponse{
			SSHKey: schema.SSHKey{ID: 5, Name: "lab-key", Fingerprint: "aa:bb:cc"},
		})
	})

	record, err := ts.backend().Create(context.Background(), reconcile.KindSSHKey, "lab-key", map[string]string{
		ParamPublicKey: "ssh-ed25519 AAAA... researcher",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Ref != "5" {
		t.Errorf("expected ref '5', got %q", record.Ref)
	}
	if createReq.PublicKey != "ssh-ed25519 AAAA... researcher" {
		t.Errorf("unexpected public key %q", createReq.PublicKey)
	}
	if createReq.Labels[labels.KeyManagedBy] != labels.ManagedByNetreserve {
		t.Errorf("key not stamped as managed: %v", createReq.Labels)
	}
}

func TestCreateSSHKeyWithoutPublicKey(t *testing.T) {
	ts := newTestServer(t)
	ts.rejectUnhandled(t)

	_, err := ts.backend().Create(context.Background(), reconcile.KindSSHKey, "lab-key", nil)
	if !reconcile.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDeleteSSHKey(t *testing.T) {
	ts := newTestServer(t)
	deleted := false
	ts.handleFunc("/ssh_keys/5", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			jsonResponse(w, http.StatusOK, schema.SSHKeyGetResponse{
				SSHKey: schema.SSHKey{ID: 5, Name: "lab-key", Labels: managedLabels()},
			})
		case http.MethodDelete:
			deleted = true
			w.WriteHeader(http.StatusNoContent)
		}
	})

	if err := ts.backend().Delete(context.Background(), reconcile.KindSSHKey, "5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("ssh key was not deleted")
	}
}

func TestUnsupportedKinds(t *testing.T) {
	ts := newTestServer(t)
	ts.rejectUnhandled(t)
	backend := ts.backend()
	ctx := context.Background()

	if _, err := backend.Describe(ctx, reconcile.KindReservation, "10.0.0.0/24"); err == nil {
		t.Error("expected error for unsupported describe kind")
	}
	if _, err := backend.Create(ctx, reconcile.KindSubnet, "x", nil); err == nil {
		t.Error("expected error for unsupported create kind")
	}
	if err := backend.Delete(ctx, reconcile.KindNotebook, "x"); err == nil {
		t.Error("expected error for unsupported delete kind")
	}
	if _, err := backend.ListReservations(ctx, reconcile.Container{}); err == nil {
		t.Error("expected error from ListReservations")
	}
}

// retryClient builds a client with fast retries for exercising
// getRetried directly, without the SDK in the loop.
func retryClient(attempts int) *Client {
	return New("test-token", WithTimeouts(&config.Timeouts{
		Backend:           5 * time.Second,
		RetryMaxAttempts:  attempts,
		RetryInitialDelay: time.Millisecond,
	}))
}

func TestGetRetriedRecoversFromTransientErrors(t *testing.T) {
	calls := 0
	got, err := getRetried(context.Background(), retryClient(4), reconcile.KindServer, "sbx-alice",
		func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", hcloud.Error{Code: hcloud.ErrorCodeRateLimitExceeded, Message: "slow down"}
			}
			return "record", nil
		})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "record" {
		t.Errorf("expected 'record', got %q", got)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestGetRetriedStopsOnFatalErrors(t *testing.T) {
	calls := 0
	_, err := getRetried(context.Background(), retryClient(4), reconcile.KindServer, "sbx-alice",
		func(context.Context) (string, error) {
			calls++
			return "", hcloud.Error{Code: hcloud.ErrorCodeUnauthorized, Message: "bad token"}
		})
	if !reconcile.IsAuth(err) {
		t.Errorf("expected auth error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("auth failure must not be retried, got %d attempts", calls)
	}
}

func TestGetRetriedExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := getRetried(context.Background(), retryClient(2), reconcile.KindServer, "sbx-alice",
		func(context.Context) (string, error) {
			calls++
			return "", hcloud.Error{Code: hcloud.ErrorCodeConflict, Message: "locked"}
		})
	if !reconcile.IsTransient(err) {
		t.Errorf("expected transient error after exhaustion, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}
