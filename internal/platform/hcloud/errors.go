package hcloud

import (
	"context"
	"errors"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/netreserve/netreserve/internal/reconcile"
)

// mapError translates an SDK failure into the taxonomy the engine
// switches on. Anything that is not an API error is a transport
// failure and reads as transient, except caller cancellation.
func mapError(err error, kind reconcile.Kind, identity string) error {
	if err == nil {
		return nil
	}

	var apiErr hcloud.Error
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &reconcile.TransientError{Backend: backendName, Err: err}
	}

	switch apiErr.Code {
	case hcloud.ErrorCodeUnauthorized, hcloud.ErrorCodeForbidden, hcloud.ErrorCodeTokenReadonly:
		return &reconcile.AuthError{Backend: backendName, Reason: apiErr.Message, Err: err}
	case hcloud.ErrorCodeNotFound:
		return &reconcile.NotFoundError{Kind: kind, Identity: identity}
	case hcloud.ErrorCodeUniquenessError, hcloud.ErrorCodeProtected:
		return &reconcile.ConflictError{Kind: kind, Identity: identity}
	case hcloud.ErrorCodeInvalidInput:
		return &reconcile.ValidationError{Field: "params", Message: apiErr.Message}
	case hcloud.ErrorCodeRateLimitExceeded,
		hcloud.ErrorCodeConflict,
		hcloud.ErrorCodeLocked,
		hcloud.ErrorCodeResourceLocked,
		hcloud.ErrorCodeResourceUnavailable,
		hcloud.ErrorCodeServiceError:
		return &reconcile.TransientError{Backend: backendName, Err: err}
	default:
		return err
	}
}
