// Package config defines the configuration model shared by every
// netreserve command.
//
// The [Config] struct is the canonical representation of the operator's
// environment: the Infoblox endpoint, network views with their ordered
// supernet pools, infrastructure groups for shared-VPC subnet planning,
// IAM role bundles, provider defaults, and ambient settings such as the
// metrics gateway and the run journal path. It is loaded from a
// netreserve.yaml file, defaulted, and validated before any planning
// starts. Secrets are never part of the file; they come exclusively
// from environment variables.
package config
