// Package hcloud implements the sandbox backend on the Hetzner Cloud
// API through the official SDK.
//
// The backend serves sandbox notebook servers, private networks and SSH
// keys. Identities are Hetzner resource names; references are the
// numeric IDs the API assigns, so a delete plan pins the exact resource
// it inspected. Every resource the backend creates carries the
// netreserve.io label set, and deletes refuse resources without it.
//
// Reads are retried on transient failures. Mutations run exactly once:
// a timed-out create may still have landed, and a blind retry would
// produce a second server. A server create owns a short vendor
// sequence (create, wait, then attach the data volume the plan asked
// for), which is still one mutating call from the engine's point of
// view.
//
// The API token comes exclusively from the HCLOUD_TOKEN environment
// variable.
package hcloud
