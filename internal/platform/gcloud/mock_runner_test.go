package gcloud

import (
	"context"
	"strings"
	"sync"

	"github.com/netreserve/netreserve/internal/util/retry"
)

// mockRunner records every invocation and answers through a scripted
// handler keyed on the joined argv.
type mockRunner struct {
	mu      sync.Mutex
	calls   [][]string
	handler func(args []string) (string, error)
}

func (m *mockRunner) Run(_ context.Context, args ...string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, args)
	m.mu.Unlock()
	if m.handler == nil {
		return "", nil
	}
	return m.handler(args)
}

func (m *mockRunner) commandLines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make([]string, len(m.calls))
	for i, call := range m.calls {
		lines[i] = strings.Join(call, " ")
	}
	return lines
}

// callMatching returns the first recorded argv whose joined form starts
// with prefix, or nil.
func (m *mockRunner) callMatching(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, call := range m.calls {
		if strings.HasPrefix(strings.Join(call, " "), prefix) {
			return call
		}
	}
	return nil
}

func (m *mockRunner) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func cmdFailure(code int, stderr string) error {
	return &CommandError{ExitCode: code, Stderr: stderr}
}

// newTestClient binds a client to the mock with retries collapsed to a
// single attempt unless a test opts back in.
func newTestClient(runner Runner, opts ...retry.Option) *Client {
	if len(opts) == 0 {
		opts = []retry.Option{retry.WithMaxAttempts(1)}
	}
	return New(runner, opts...)
}
