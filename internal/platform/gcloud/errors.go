package gcloud

import (
	"errors"
	"strings"

	"github.com/netreserve/netreserve/internal/reconcile"
)

// Marker substrings in gcloud stderr, checked case-insensitively. Auth
// wins over everything else: a PERMISSION_DENIED on a describe must not
// read as "absent".
var (
	authMarkers = []string{
		"PERMISSION_DENIED",
		"UNAUTHENTICATED",
		"Reauthentication required",
		"does not have permission",
		"not logged in",
		"could not find default credentials",
	}
	conflictMarkers = []string{
		"already exists",
		"ALREADY_EXISTS",
		"alreadyExists",
	}
	notFoundMarkers = []string{
		"was not found",
		"not found",
		"NOT_FOUND",
		"notFound",
		"does not exist",
	}
	transientMarkers = []string{
		"DEADLINE_EXCEEDED",
		"UNAVAILABLE",
		"RESOURCE_EXHAUSTED",
		"connection reset",
		"timed out",
		"backend error",
		"internal error",
	}
)

// classify maps a failed invocation onto the engine's error taxonomy.
// Anything that is not a CommandError passes through untouched.
func classify(err error, kind reconcile.Kind, identity string) error {
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		return err
	}

	switch {
	case cmdErr.ExitCode == 2:
		return &reconcile.AuthError{
			Backend: backendName,
			Reason:  "gcloud rejected the invocation (usage or credentials)",
			Err:     cmdErr,
		}
	case containsAny(cmdErr.Stderr, authMarkers):
		return &reconcile.AuthError{
			Backend: backendName,
			Reason:  summarizeStderr(cmdErr.Stderr),
			Err:     cmdErr,
		}
	case containsAny(cmdErr.Stderr, conflictMarkers):
		return &reconcile.ConflictError{Kind: kind, Identity: identity}
	case containsAny(cmdErr.Stderr, notFoundMarkers):
		return &reconcile.NotFoundError{Kind: kind, Identity: identity}
	case containsAny(cmdErr.Stderr, transientMarkers):
		return &reconcile.TransientError{Backend: backendName, Err: cmdErr}
	default:
		return cmdErr
	}
}

func containsAny(s string, markers []string) bool {
	lower := strings.ToLower(s)
	for _, marker := range markers {
		if strings.Contains(lower, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// summarizeStderr condenses gcloud's stderr for error messages: the
// first ERROR: line when one exists, otherwise the whole text collapsed
// to one line, capped.
func summarizeStderr(stderr string) string {
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "ERROR:") {
			return truncate(line)
		}
	}
	if s := strings.Join(strings.Fields(stderr), " "); s != "" {
		return truncate(s)
	}
	return "(no stderr)"
}

func truncate(s string) string {
	const limit = 200
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
