package config

import (
	"github.com/rileyhilliard/btcdash/internal/errors"
)

// Environment variables holding the node's RPC credentials.
const (
	EnvRPCUser     = "RPC_USER"
	EnvRPCPassword = "RPC_PASSWORD"
)

// Credentials authenticate against the node's RPC server.
// Built once at startup and never re-read.
type Credentials struct {
	User     string
	Password string
}

// String never prints the password.
func (c Credentials) String() string {
	return "Credentials{User: " + c.User + ", Password: ***}"
}

// LoadCredentials reads RPC_USER and RPC_PASSWORD through getenv.
// Both must be set; there are no fallbacks.
func LoadCredentials(getenv func(string) string) (Credentials, error) {
	user := getenv(EnvRPCUser)
	if user == "" {
		return Credentials{}, errors.New(errors.ErrConfig,
			EnvRPCUser+" is not set",
			"Export RPC_USER and RPC_PASSWORD with the values from bitcoin.conf")
	}
	password := getenv(EnvRPCPassword)
	if password == "" {
		return Credentials{}, errors.New(errors.ErrConfig,
			EnvRPCPassword+" is not set",
			"Export RPC_USER and RPC_PASSWORD with the values from bitcoin.conf")
	}
	return Credentials{User: user, Password: password}, nil
}
