package planstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/netreserve/netreserve/internal/platform/s3"
	"github.com/netreserve/netreserve/internal/reconcile"
)

// ObjectStore is the object storage surface s3:// URIs route to.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, data []byte) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}

// Store saves and loads plans by URI.
type Store struct {
	mu      sync.Mutex
	objects ObjectStore
	open    func(ctx context.Context) (ObjectStore, error)
}

// New returns a store whose S3 side is built on first use from the
// ambient AWS environment.
func New() *Store {
	return &Store{
		open: func(ctx context.Context) (ObjectStore, error) {
			return s3.NewClient(ctx, "", "")
		},
	}
}

// NewWithObjects returns a store routing s3:// URIs to the given
// object store.
func NewWithObjects(objects ObjectStore) *Store {
	return &Store{objects: objects}
}

// Save writes the encoded plan to the URI. Parent directories of a
// filesystem path are created.
func (s *Store) Save(ctx context.Context, uri string, plan *reconcile.Plan) error {
	data, err := plan.Encode()
	if err != nil {
		return err
	}

	if IsS3URI(uri) {
		bucket, key, err := splitS3URI(uri)
		if err != nil {
			return err
		}
		objects, err := s.objectStore(ctx)
		if err != nil {
			return err
		}
		if err := objects.PutObject(ctx, bucket, key, data); err != nil {
			return fmt.Errorf("saving plan %s: %w", plan.ID, err)
		}
		return nil
	}

	if dir := filepath.Dir(uri); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("saving plan %s: %w", plan.ID, err)
		}
	}
	if err := os.WriteFile(uri, data, 0o644); err != nil {
		return fmt.Errorf("saving plan %s: %w", plan.ID, err)
	}
	return nil
}

// Load reads and validates the plan at the URI. A missing plan reports
// fs.ErrNotExist regardless of backend.
func (s *Store) Load(ctx context.Context, uri string) (*reconcile.Plan, error) {
	var data []byte
	var err error

	if IsS3URI(uri) {
		bucket, key, splitErr := splitS3URI(uri)
		if splitErr != nil {
			return nil, splitErr
		}
		objects, openErr := s.objectStore(ctx)
		if openErr != nil {
			return nil, openErr
		}
		data, err = objects.GetObject(ctx, bucket, key)
	} else {
		data, err = os.ReadFile(uri)
	}
	if err != nil {
		return nil, fmt.Errorf("loading plan from %s: %w", uri, err)
	}

	return reconcile.DecodePlan(data)
}

func (s *Store) objectStore(ctx context.Context) (ObjectStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects != nil {
		return s.objects, nil
	}
	objects, err := s.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening object store: %w", err)
	}
	s.objects = objects
	return s.objects, nil
}

// IsS3URI reports whether the URI addresses object storage.
func IsS3URI(uri string) bool {
	return strings.HasPrefix(uri, "s3://")
}

// DefaultPath is the plan file path used when the caller gives none.
func DefaultPath(dir string, plan *reconcile.Plan) string {
	return filepath.Join(dir, fmt.Sprintf("plan-%s.json", plan.ID))
}

// splitS3URI splits s3://bucket/key into its bucket and key parts.
func splitS3URI(uri string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, "s3://")
	bucket, key, found := strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", &reconcile.ValidationError{
			Field:   "plan",
			Message: fmt.Sprintf("malformed S3 URI %q, want s3://bucket/key", uri),
		}
	}
	return bucket, key, nil
}
