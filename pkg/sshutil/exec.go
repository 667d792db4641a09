package sshutil

import (
	"context"
	"fmt"
	"io"

	"github.com/rileyhilliard/btcdash/internal/errors"
	"golang.org/x/crypto/ssh"
)

// Run executes cmd in a new session, streaming output to the writers.
// A non-zero exit status comes back as exitCode with a nil error. When ctx
// ends first the remote process gets SIGKILL, the session is closed, and
// ctx.Err() is returned with exit code -1.
func (c *Client) Run(ctx context.Context, cmd string, stdout, stderr io.Writer) (int, error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return -1, errors.WrapWithCode(err, errors.ErrSSH,
			"Failed to create SSH session",
			"Connection may have been closed. Try reconnecting.")
	}
	defer session.Close()

	session.Stdout = stdout
	session.Stderr = stderr

	if err := session.Start(cmd); err != nil {
		return -1, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Failed to start remote command on %s", c.Host),
			"Check the SSH user can run commands on the node host")
	}

	done := make(chan error, 1)
	go func() { done <- session.Wait() }()

	select {
	case err := <-done:
		return exitStatus(err)
	case <-ctx.Done():
		// Not every sshd honours signal requests; closing the session
		// tears the channel down either way.
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		<-done
		return -1, ctx.Err()
	}
}

// exitStatus maps session.Wait errors to an exit code.
func exitStatus(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*ssh.ExitError); ok {
		return exitErr.ExitStatus(), nil
	}
	if _, ok := err.(*ssh.ExitMissingError); ok {
		return -1, errors.WrapWithCode(err, errors.ErrSSH,
			"Remote command ended without an exit status",
			"The connection may have dropped")
	}
	return -1, errors.WrapWithCode(err, errors.ErrSSH,
		"Remote command failed",
		"Check the connection to the node host")
}
