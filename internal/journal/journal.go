package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/netreserve/netreserve/internal/reconcile"
)

// Outcomes recorded per run.
const (
	OutcomeActionable    = "actionable"
	OutcomeNotActionable = "not-actionable"
	OutcomeApplied       = "applied"
	OutcomeFailed        = "failed"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	command TEXT NOT NULL,
	kind TEXT NOT NULL,
	identity TEXT NOT NULL,
	outcome TEXT NOT NULL,
	error_class TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// Entry is one recorded run.
type Entry struct {
	RunID      string
	Command    string
	Kind       string
	Identity   string
	Outcome    string
	ErrorClass string
	CreatedAt  time.Time
}

// Journal is the run history database. A nil Journal is valid and
// drops every write; Open returns nil when the journal is disabled.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to journal: %w", err)
	}

	// SQLite works best with a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close closes the database. Safe on a nil journal.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends one entry. A zero CreatedAt is stamped with the
// current time.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if j == nil {
		return nil
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, command, kind, identity, outcome, error_class, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.RunID, e.Command, e.Kind, e.Identity, e.Outcome, e.ErrorClass, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording run %s: %w", e.RunID, err)
	}
	return nil
}

// Recent returns the latest entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if j == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, command, kind, identity, outcome, error_class, created_at
		FROM runs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.RunID, &e.Command, &e.Kind, &e.Identity, &e.Outcome, &e.ErrorClass, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Classify maps an error to the class recorded with a failed run.
func Classify(err error) string {
	var notActionable *reconcile.PlanNotActionableError
	var ambiguous *reconcile.AmbiguousMatchError
	switch {
	case err == nil:
		return ""
	case reconcile.IsAuth(err):
		return "auth"
	case reconcile.IsConflict(err):
		return "conflict"
	case reconcile.IsNotFound(err):
		return "not-found"
	case reconcile.IsValidation(err):
		return "validation"
	case reconcile.IsTransient(err):
		return "transient"
	case errors.As(err, &notActionable):
		return "not-actionable"
	case errors.As(err, &ambiguous):
		return "ambiguous"
	default:
		return "error"
	}
}
