package infoblox

import (
	"os"

	"github.com/netreserve/netreserve/internal/reconcile"
)

// Credentials authenticates against the WAPI with basic auth.
type Credentials struct {
	Username string
	Password string
}

// CredentialsFromEnv reads the WAPI credentials from the environment.
// Missing credentials are an auth failure: nothing useful can be
// planned without them.
func CredentialsFromEnv() (Credentials, error) {
	username := os.Getenv("INFOBLOX_USERNAME")
	password := os.Getenv("INFOBLOX_PASSWORD")
	if username == "" || password == "" {
		return Credentials{}, &reconcile.AuthError{
			Backend: backendName,
			Reason:  "INFOBLOX_USERNAME and INFOBLOX_PASSWORD must both be set",
		}
	}
	return Credentials{Username: username, Password: password}, nil
}
