// Package prerequisites checks for the client tools a backend shells
// out to before any planning touches them.
package prerequisites

import (
	"fmt"
	"os/exec"

	"github.com/netreserve/netreserve/internal/reconcile"
)

// Tool is an external binary a backend depends on.
type Tool struct {
	// Name is the binary name or path to resolve.
	Name string

	// InstallURL points at installation instructions, shown when the
	// binary is missing.
	InstallURL string
}

// GCloud is the Google Cloud CLI the gcloud backend drives. The binary
// name comes from the configuration so wrappers and pinned versions
// work.
func GCloud(binary string) Tool {
	return Tool{
		Name:       binary,
		InstallURL: "https://cloud.google.com/sdk/docs/install",
	}
}

// Check resolves the tool in PATH. A missing binary is a usage error:
// the operator's environment is broken, not the backend.
func Check(tool Tool) error {
	if _, err := exec.LookPath(tool.Name); err != nil {
		return &reconcile.ValidationError{
			Field:   "binary",
			Message: fmt.Sprintf("%s not found in PATH, install it from %s", tool.Name, tool.InstallURL),
		}
	}
	return nil
}
