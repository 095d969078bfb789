package reconcile

import (
	"context"
	"sync"

	"github.com/netreserve/netreserve/internal/netblock"
)

// fakeClient implements Client with overridable behavior per method and
// counts every backend call, so tests can assert that refusal paths stay
// at zero.
type fakeClient struct {
	name string

	DescribeFunc func(ctx context.Context, kind Kind, identity string) (*Record, error)
	CreateFunc   func(ctx context.Context, kind Kind, identity string, params map[string]string) (*Record, error)
	DeleteFunc   func(ctx context.Context, kind Kind, ref string) error
	ListFunc     func(ctx context.Context, container Container) ([]Reservation, error)
	FindFunc     func(ctx context.Context, view string, block netblock.Block) ([]Reservation, error)

	mu            sync.Mutex
	describeCalls int
	createCalls   int
	deleteCalls   int
	listCalls     int
	findCalls     int
}

func newFakeClient() *fakeClient {
	return &fakeClient{name: "fake"}
}

func (f *fakeClient) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeClient) Describe(ctx context.Context, kind Kind, identity string) (*Record, error) {
	f.count(&f.describeCalls)
	if f.DescribeFunc == nil {
		return nil, &NotFoundError{Kind: kind, Identity: identity}
	}
	return f.DescribeFunc(ctx, kind, identity)
}

func (f *fakeClient) Create(ctx context.Context, kind Kind, identity string, params map[string]string) (*Record, error) {
	f.count(&f.createCalls)
	if f.CreateFunc == nil {
		return &Record{Kind: kind, Identity: identity}, nil
	}
	return f.CreateFunc(ctx, kind, identity, params)
}

func (f *fakeClient) Delete(ctx context.Context, kind Kind, ref string) error {
	f.count(&f.deleteCalls)
	if f.DeleteFunc == nil {
		return nil
	}
	return f.DeleteFunc(ctx, kind, ref)
}

func (f *fakeClient) ListReservations(ctx context.Context, container Container) ([]Reservation, error) {
	f.count(&f.listCalls)
	if f.ListFunc == nil {
		return nil, nil
	}
	return f.ListFunc(ctx, container)
}

func (f *fakeClient) FindReservations(ctx context.Context, view string, block netblock.Block) ([]Reservation, error) {
	f.count(&f.findCalls)
	if f.FindFunc == nil {
		return nil, nil
	}
	return f.FindFunc(ctx, view, block)
}

func (f *fakeClient) count(counter *int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	*counter++
}

func (f *fakeClient) mutationCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls + f.deleteCalls
}

// recordingObserver collects events for assertions.
type recordingObserver struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingObserver) Event(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingObserver) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]EventType, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}
