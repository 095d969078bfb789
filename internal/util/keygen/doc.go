// Package keygen generates ed25519 key pairs for SSH authentication.
//
// Keys are produced in OpenSSH PEM format (private) and OpenSSH
// authorized_keys format (public), suitable for instance metadata and
// for uploading to Hetzner Cloud as SSH keys.
package keygen
