package gcloud

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/netreserve/netreserve/internal/reconcile"
)

// Service accounts are identified by their email; the email doubles as
// the deletion reference.

func (c *Client) describeServiceAccount(ctx context.Context, email string) (*reconcile.Record, error) {
	out, err := c.read(ctx, reconcile.KindServiceAccount, email,
		"iam", "service-accounts", "describe", email, "--format", "json")
	if err != nil {
		return nil, err
	}

	var info struct {
		Email       string `json:"email"`
		UniqueID    string `json:"uniqueId"`
		DisplayName string `json:"displayName"`
	}
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		return nil, fmt.Errorf("parse describe output for service account %s: %w", email, err)
	}

	return &reconcile.Record{
		Kind:     reconcile.KindServiceAccount,
		Identity: email,
		Ref:      email,
		Attrs: map[string]string{
			ParamDisplayName: info.DisplayName,
			"unique_id":      info.UniqueID,
		},
	}, nil
}

func (c *Client) createServiceAccount(ctx context.Context, email string, params map[string]string) (*reconcile.Record, error) {
	accountID := params[ParamAccountID]
	project := params[reconcile.ParamProject]
	if accountID == "" || project == "" {
		return nil, &reconcile.ValidationError{
			Field:   "account_id",
			Message: "plan carries no account ID or project for the service account",
		}
	}

	args := []string{
		"iam", "service-accounts", "create", accountID,
		"--project", project, "--format", "json",
	}
	if display := params[ParamDisplayName]; display != "" {
		args = append(args, "--display-name", display)
	}

	if _, err := c.mutate(ctx, reconcile.KindServiceAccount, email, args...); err != nil {
		return nil, fmt.Errorf("create service account %s: %w", email, err)
	}

	return &reconcile.Record{
		Kind:     reconcile.KindServiceAccount,
		Identity: email,
		Ref:      email,
		Attrs:    params,
	}, nil
}

func (c *Client) deleteServiceAccount(ctx context.Context, email string) error {
	_, err := c.mutate(ctx, reconcile.KindServiceAccount, email,
		"iam", "service-accounts", "delete", email, "--quiet")
	return err
}
