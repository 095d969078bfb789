// Package infoblox talks to the Infoblox WAPI, the IPAM backend for
// CIDR reservations.
//
// [Client] implements the backend contract used by planning and apply:
// reservations are listed per supernet container, matched by exact
// CIDR, created with a comment and a Site Code extensible attribute,
// and deleted through the opaque object reference WAPI returned when
// the reservation was found. Read operations retry transient failures;
// mutations are issued exactly once.
//
// Credentials come from the INFOBLOX_USERNAME and INFOBLOX_PASSWORD
// environment variables.
package infoblox
