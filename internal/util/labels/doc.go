// Package labels provides consistent labeling for Hetzner Cloud resources.
//
// All labels use the netreserve.io domain prefix and follow a builder
// pattern for constructing label sets with site, owner and manager
// identification. Labels are how sandbox resources are found again and
// how foreign resources are kept out of delete operations.
package labels
