// Package keygen provides utilities for generating SSH key pairs.
//
// This package generates ed25519 key pairs for operator access to
// provisioned resources, outputting the private key in OpenSSH PEM
// format and the public key in OpenSSH authorized_keys format.
package keygen

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
)

// KeyPair holds an ed25519 key pair in ready-to-use formats.
type KeyPair struct {
	// PrivateKey is the private key in OpenSSH PEM format.
	PrivateKey []byte
	// PublicKey is the public key in OpenSSH authorized_keys format.
	PublicKey []byte
}

// Generate creates a new ed25519 key pair. The comment ends up in the
// private key file and, space-separated, after the authorized_keys
// entry.
func Generate(comment string) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key: %w", err)
	}

	privBlock, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	privateKeyPEM := pem.EncodeToMemory(privBlock)

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH public key: %w", err)
	}
	pubKeyBytes := ssh.MarshalAuthorizedKey(sshPub)
	if comment != "" {
		pubKeyBytes = append([]byte(strings.TrimRight(string(pubKeyBytes), "\n")+" "+comment), '\n')
	}

	return &KeyPair{
		PrivateKey: privateKeyPEM,
		PublicKey:  pubKeyBytes,
	}, nil
}

// AuthorizedKey returns the public key as a single trimmed
// authorized_keys line.
func (kp *KeyPair) AuthorizedKey() string {
	return strings.TrimRight(string(kp.PublicKey), "\n")
}

// WritePrivateKey writes the private key to path with permissions an
// SSH client will accept.
func (kp *KeyPair) WritePrivateKey(path string) error {
	if err := os.WriteFile(path, kp.PrivateKey, 0o600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	return nil
}
