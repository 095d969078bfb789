package naming

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/netreserve/netreserve/internal/reconcile"
)

// resourceNamePattern is the RFC 1035 label form GCP and Hetzner both
// accept for resource names.
var resourceNamePattern = regexp.MustCompile(`^[a-z]([-a-z0-9]*[a-z0-9])?$`)

// serviceAccountNamePattern is the accepted service account short name
// form (the part before the @).
var serviceAccountNamePattern = regexp.MustCompile(`^[a-z]([-a-z0-9]*[a-z0-9])?$`)

// ValidateProjectID enforces the project naming policy: at least three
// dash-separated segments, with the second drawn from the allowed list.
func ValidateProjectID(projectID string, allowedSecondSegments []string) error {
	segments := strings.Split(projectID, "-")
	if len(segments) < 3 {
		return &reconcile.ValidationError{
			Field:   "project",
			Message: fmt.Sprintf("project ID %q needs at least 3 dash-separated segments", projectID),
		}
	}
	second := segments[1]
	for _, allowed := range allowedSecondSegments {
		if second == allowed {
			return nil
		}
	}
	return &reconcile.ValidationError{
		Field: "project",
		Message: fmt.Sprintf("project ID %q second segment %q is not in the allowed list %v",
			projectID, second, allowedSecondSegments),
	}
}

// ValidateResourceName enforces the RFC 1035 label form used for
// subnet, server, network and notebook names.
func ValidateResourceName(field, name string) error {
	if name == "" {
		return &reconcile.ValidationError{Field: field, Message: "name is required"}
	}
	if len(name) > 63 {
		return &reconcile.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("name %q exceeds 63 characters", name),
		}
	}
	if !resourceNamePattern.MatchString(name) {
		return &reconcile.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("name %q must match %s", name, resourceNamePattern),
		}
	}
	return nil
}

// ValidateServiceAccountName enforces the 6..30 character short name
// form required for service account creation.
func ValidateServiceAccountName(name string) error {
	if len(name) < 6 || len(name) > 30 {
		return &reconcile.ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("service account name %q must be 6 to 30 characters", name),
		}
	}
	if !serviceAccountNamePattern.MatchString(name) {
		return &reconcile.ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("service account name %q must match %s", name, serviceAccountNamePattern),
		}
	}
	return nil
}
