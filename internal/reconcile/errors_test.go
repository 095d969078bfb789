package reconcile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/netreserve/netreserve/internal/netblock"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	notFound := &NotFoundError{Kind: KindSubnet, Identity: "snet-mg-ew1"}
	auth := &AuthError{Backend: "gcloud", Reason: "usage or credentials"}
	transient := &TransientError{Backend: "infoblox", Err: fmt.Errorf("502")}
	conflict := &ConflictError{Kind: KindReservation, Identity: "10.0.0.16/28"}
	validation := &ValidationError{Field: "view", Message: "required"}

	tests := []struct {
		name    string
		err     error
		matches func(error) bool
	}{
		{name: "not found", err: notFound, matches: IsNotFound},
		{name: "wrapped not found", err: fmt.Errorf("planning: %w", notFound), matches: IsNotFound},
		{name: "auth", err: auth, matches: IsAuth},
		{name: "wrapped auth", err: fmt.Errorf("run aborted: %w", auth), matches: IsAuth},
		{name: "transient", err: transient, matches: IsTransient},
		{name: "conflict", err: conflict, matches: IsConflict},
		{name: "wrapped conflict", err: fmt.Errorf("apply: %w", conflict), matches: IsConflict},
		{name: "validation", err: validation, matches: IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.matches(tt.err))
		})
	}

	assert.False(t, IsNotFound(auth))
	assert.False(t, IsAuth(notFound))
	assert.False(t, IsConflict(transient))
	assert.False(t, IsTransient(nil))
}

func TestErrorMessagesCarryIdentities(t *testing.T) {
	t.Parallel()

	assert.Contains(t, (&NotFoundError{Kind: KindSubnet, Identity: "snet-x"}).Error(), "snet-x")
	assert.Contains(t, (&ConflictError{Kind: KindReservation, Identity: "10.0.0.0/28"}).Error(), "10.0.0.0/28")

	ambiguous := &AmbiguousMatchError{
		View:  "default",
		Block: netblock.MustParse("10.0.0.16/28"),
		Refs:  []string{"network/one", "network/two"},
	}
	msg := ambiguous.Error()
	assert.Contains(t, msg, "10.0.0.16/28")
	assert.Contains(t, msg, "default")
	assert.Contains(t, msg, "network/one")
	assert.Contains(t, msg, "network/two")

	transient := &TransientError{Backend: "infoblox", Err: fmt.Errorf("rate limited")}
	assert.ErrorContains(t, transient, "rate limited")
	assert.ErrorContains(t, transient, "infoblox")
}
