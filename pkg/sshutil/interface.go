package sshutil

import (
	"context"
	"io"
)

// Runner executes shell command lines on a remote host.
// *Client implements it; tests substitute fakes.
type Runner interface {
	// Run executes cmd and returns its exit code. A non-zero code with a nil
	// error means the command ran and failed.
	Run(ctx context.Context, cmd string, stdout, stderr io.Writer) (int, error)

	// Close releases the connection.
	Close() error

	// GetHost returns the host/alias used to connect.
	GetHost() string
}

var _ Runner = (*Client)(nil)
