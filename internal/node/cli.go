package node

import (
	"strings"

	"github.com/rileyhilliard/btcdash/internal/config"
	"github.com/rileyhilliard/btcdash/internal/exec"
)

// CLI builds authenticated bitcoin-cli command lines. It is constructed once
// at startup from the loaded credentials.
type CLI struct {
	binary   string
	baseArgs []string
	creds    config.Credentials
}

// NewCLI creates a command builder. baseArgs (e.g. -testnet) go after the
// credentials and before every subcommand.
func NewCLI(binary string, baseArgs []string, creds config.Credentials) *CLI {
	return &CLI{
		binary:   binary,
		baseArgs: append([]string(nil), baseArgs...),
		creds:    creds,
	}
}

// Command returns the full invocation for args, with the password masked
// whenever the command is printed.
func (c *CLI) Command(args ...string) exec.Command {
	full := make([]string, 0, 2+len(c.baseArgs)+len(args))
	full = append(full, "-rpcuser="+c.creds.User, "-rpcpassword="+c.creds.Password)
	full = append(full, c.baseArgs...)
	full = append(full, args...)
	return exec.Command{
		Binary: c.binary,
		Args:   full,
		Mask:   []string{c.creds.Password},
	}
}

// CommandLine builds a command from a config string such as "-getinfo" or
// "getblockchaininfo". Fields are split on whitespace only.
func (c *CLI) CommandLine(line string) exec.Command {
	return c.Command(strings.Fields(line)...)
}

// Redact hides the password anywhere in s, e.g. in echoed error text.
func (c *CLI) Redact(s string) string {
	if c.creds.Password == "" {
		return s
	}
	return strings.ReplaceAll(s, c.creds.Password, "***")
}

// Binary returns the control interface executable.
func (c *CLI) Binary() string {
	return c.binary
}

// RedactOutcome hides the password in every text field of o.
func (c *CLI) RedactOutcome(o Outcome) Outcome {
	o.Output = c.Redact(o.Output)
	o.Reason = c.Redact(o.Reason)
	return o
}
