package gcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/netreserve/netreserve/internal/reconcile"
)

// API keys carry a server-assigned UID; the display name is the
// deterministic handle. Identities are "project/display-name", and the
// key's full resource name becomes the deletion reference.

func splitKeyIdentity(identity string) (project, displayName string, err error) {
	project, displayName, found := strings.Cut(identity, "/")
	if !found || project == "" || displayName == "" {
		return "", "", &reconcile.ValidationError{
			Field:   "identity",
			Message: fmt.Sprintf("malformed API key identity %q, want project/display-name", identity),
		}
	}
	return project, displayName, nil
}

func (c *Client) describeAPIKey(ctx context.Context, identity string) (*reconcile.Record, error) {
	project, displayName, err := splitKeyIdentity(identity)
	if err != nil {
		return nil, err
	}

	out, err := c.read(ctx, reconcile.KindAPIKey, identity,
		"services", "api-keys", "list", "--project", project,
		"--filter", "displayName="+displayName, "--format", "json")
	if err != nil {
		return nil, err
	}

	var keys []struct {
		Name        string `json:"name"`
		UID         string `json:"uid"`
		DisplayName string `json:"displayName"`
	}
	if err := json.Unmarshal([]byte(out), &keys); err != nil {
		return nil, fmt.Errorf("parse key list for %s: %w", identity, err)
	}

	switch len(keys) {
	case 0:
		return nil, &reconcile.NotFoundError{Kind: reconcile.KindAPIKey, Identity: identity}
	case 1:
		return &reconcile.Record{
			Kind:     reconcile.KindAPIKey,
			Identity: identity,
			Ref:      keys[0].Name,
			Attrs:    map[string]string{"uid": keys[0].UID},
		}, nil
	default:
		return nil, fmt.Errorf("%d API keys named %q in project %s; refusing to pick one", len(keys), displayName, project)
	}
}

func (c *Client) createAPIKey(ctx context.Context, identity string, params map[string]string) (*reconcile.Record, error) {
	project, displayName, err := splitKeyIdentity(identity)
	if err != nil {
		return nil, err
	}

	out, err := c.mutate(ctx, reconcile.KindAPIKey, identity,
		"services", "api-keys", "create", "--project", project,
		"--display-name", displayName, "--format", "json")
	if err != nil {
		return nil, fmt.Errorf("create API key %s: %w", identity, err)
	}

	// gcloud prints the completed operation; the key's resource name sits
	// in its response.
	var created struct {
		Name     string `json:"name"`
		Response struct {
			Name string `json:"name"`
		} `json:"response"`
	}
	_ = json.Unmarshal([]byte(out), &created)
	ref := created.Response.Name
	if ref == "" {
		ref = created.Name
	}

	return &reconcile.Record{
		Kind:     reconcile.KindAPIKey,
		Identity: identity,
		Ref:      ref,
		Attrs:    params,
	}, nil
}

func (c *Client) deleteAPIKey(ctx context.Context, ref string) error {
	_, err := c.mutate(ctx, reconcile.KindAPIKey, ref,
		"services", "api-keys", "delete", ref, "--quiet")
	return err
}
