// Package journal keeps an append-only history of plan and apply runs
// in a local SQLite database. Writes are best-effort: callers log a
// failed write and carry on, a broken journal never fails a run.
package journal
