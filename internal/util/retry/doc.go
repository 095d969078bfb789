// Package retry provides exponential backoff for transient backend
// failures.
//
// The [Do] function retries an operation with configurable attempts,
// initial delay, and maximum delay. Planning uses it around backend
// reads; mutating applies are never retried, so a conflict between
// plan and apply always surfaces instead of being papered over.
//
// Errors wrapped with [Fatal] abort the backoff immediately and are
// returned unwrapped.
package retry
