// Package main is the entry point for the netreserve CLI.
//
// netreserve is a plan/apply reconciler for network and cloud resources:
// IPAM CIDR reservations in Infoblox, GCP subnets, IAM bindings and
// sandbox resources on Hetzner Cloud. Every mutating operation is split
// into a dry run that writes a reviewable plan file and an apply that
// executes exactly what the plan describes.
//
// Commands: plan, apply, history, version, completion.
//
// For detailed usage information, run:
//
//	netreserve --help
package main

import (
	"fmt"
	"os"

	"github.com/netreserve/netreserve/cmd/netreserve/commands"
	"github.com/netreserve/netreserve/cmd/netreserve/handlers"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(handlers.ExitCode(err))
	}
}
