package gcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/netreserve/netreserve/internal/reconcile"
)

// describeProjectPolicy reads the project's full IAM policy. The record
// carries the raw JSON document so the planner can merge grants into it,
// and the etag as the reference.
func (c *Client) describeProjectPolicy(ctx context.Context, project string) (*reconcile.Record, error) {
	out, err := c.read(ctx, reconcile.KindIAMPolicy, project,
		"projects", "get-iam-policy", project, "--format", "json")
	if err != nil {
		return nil, fmt.Errorf("read IAM policy of %s: %w", project, err)
	}

	var probe struct {
		Etag string `json:"etag"`
	}
	if err := json.Unmarshal([]byte(out), &probe); err != nil {
		return nil, fmt.Errorf("parse IAM policy of %s: %w", project, err)
	}

	return &reconcile.Record{
		Kind:     reconcile.KindIAMPolicy,
		Identity: project,
		Ref:      probe.Etag,
		Attrs:    map[string]string{reconcile.ParamPolicy: out},
	}, nil
}

// setProjectPolicy writes the full policy document the plan carries.
// A document without an etag is refused: the etag fences the write
// against policy changes between plan and apply.
func (c *Client) setProjectPolicy(ctx context.Context, project string, params map[string]string) (*reconcile.Record, error) {
	policyJSON := params[reconcile.ParamPolicy]
	if policyJSON == "" {
		return nil, &reconcile.ValidationError{Field: "policy", Message: "plan carries no policy document"}
	}
	var probe struct {
		Etag string `json:"etag"`
	}
	if err := json.Unmarshal([]byte(policyJSON), &probe); err != nil {
		return nil, &reconcile.ValidationError{Field: "policy", Message: fmt.Sprintf("malformed policy document: %v", err)}
	}
	if probe.Etag == "" {
		return nil, &reconcile.ValidationError{Field: "etag", Message: "policy document carries no etag; cannot write safely"}
	}

	file, err := writeTempFile("netreserve-iampolicy-*.json", []byte(policyJSON))
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(file) }()

	out, err := c.mutate(ctx, reconcile.KindIAMPolicy, project,
		"projects", "set-iam-policy", project, file, "--format", "json")
	if err != nil {
		return nil, fmt.Errorf("set IAM policy on %s: %w", project, err)
	}

	var applied struct {
		Etag string `json:"etag"`
	}
	_ = json.Unmarshal([]byte(out), &applied)

	return &reconcile.Record{
		Kind:     reconcile.KindIAMPolicy,
		Identity: project,
		Ref:      applied.Etag,
		Attrs:    params,
	}, nil
}
