package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/netreserve/netreserve/internal/netblock"
)

// NotFoundError reports that the named resource does not exist. During
// planning it is usually the expected "go ahead" signal, not a failure.
type NotFoundError struct {
	Kind     Kind
	Identity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Identity)
}

// AuthError reports a broken environment: rejected credentials, a missing
// CLI, or a usage-level failure. It always aborts the whole run.
type AuthError struct {
	Backend string
	Reason  string
	Err     error
}

func (e *AuthError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Backend, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransientError wraps a backend failure that may succeed on a later run:
// network trouble, throttling, a 5xx response.
type TransientError struct {
	Backend string
	Err     error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient failure: %v", e.Backend, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// ConflictError reports that the mutating call found the target already
// present (create) or already changed (delete) between plan and apply.
// It is never retried: the plan under review may have gone stale, and a
// silent retry could mutate something the operator never previewed.
type ConflictError struct {
	Kind     Kind
	Identity string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists or changed since planning", e.Kind, e.Identity)
}

// ValidationError reports malformed input, scoped to the offending field.
// It is surfaced before any backend call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PlanNotActionableError reports that apply was invoked against a plan it
// must refuse: not actionable, missing its resolved identity, or routed
// to the wrong backend. This is a workflow wiring bug, always fatal.
type PlanNotActionableError struct {
	PlanID string
	Reason string
}

func (e *PlanNotActionableError) Error() string {
	return fmt.Sprintf("plan %s is not actionable: %s", e.PlanID, e.Reason)
}

// AmbiguousMatchError reports that more than one reservation matched an
// exact CIDR during delete planning. The engine refuses to pick one.
type AmbiguousMatchError struct {
	View  string
	Block netblock.Block
	Refs  []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("%d reservations match %s in view %q: %s",
		len(e.Refs), e.Block, e.View, strings.Join(e.Refs, ", "))
}

// IsNotFound reports whether err is a not-found condition.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// IsAuth reports whether err is fatal for the whole run.
func IsAuth(err error) bool {
	var auth *AuthError
	return errors.As(err, &auth)
}

// IsTransient reports whether err may succeed on a later attempt.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsConflict reports whether err is a plan/apply race surfaced by the
// backend.
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	var validation *ValidationError
	return errors.As(err, &validation)
}
