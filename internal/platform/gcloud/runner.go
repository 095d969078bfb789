package gcloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/netreserve/netreserve/internal/reconcile"
)

// Runner executes one gcloud invocation and returns its trimmed stdout.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// CommandError is an invocation that exited non-zero. The stderr text
// drives classification; gcloud reserves exit code 2 for usage errors.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("gcloud %s: exit %d: %s",
		strings.Join(e.Args, " "), e.ExitCode, summarizeStderr(e.Stderr))
}

// execRunner shells out to the configured gcloud binary with a per-call
// timeout.
type execRunner struct {
	binary  string
	timeout time.Duration
}

// NewRunner builds the production runner. An empty binary falls back to
// "gcloud" on PATH; a zero timeout disables the per-call deadline.
func NewRunner(binary string, timeout time.Duration) Runner {
	if binary == "" {
		binary = "gcloud"
	}
	return &execRunner{binary: binary, timeout: timeout}
}

func (r *execRunner) Run(ctx context.Context, args ...string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	// #nosec G204 -- binary comes from configuration, args from resolved plans
	cmd := exec.CommandContext(ctx, r.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", &reconcile.TransientError{
				Backend: backendName,
				Err:     fmt.Errorf("gcloud %s: %w", firstArg(args), ctx.Err()),
			}
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &CommandError{Args: args, ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return "", fmt.Errorf("running %s: %w", r.binary, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return "(no args)"
	}
	return args[0]
}
