package cli

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/btcdash/internal/errors"
	"github.com/spf13/cobra"
)

// NodeFlags are the per-run overrides shared by commands that talk to the node.
type NodeFlags struct {
	Timeout string
	SSHHost string
}

// AddNodeFlags registers --timeout and --ssh-host on a command.
func AddNodeFlags(cmd *cobra.Command, flags *NodeFlags) {
	cmd.Flags().StringVar(&flags.Timeout, "timeout", "", "per-command timeout (e.g., 5s, 1m); overrides poll.timeout")
	cmd.Flags().StringVar(&flags.SSHHost, "ssh-host", "", "run bitcoin-cli on this SSH host; overrides node.ssh_host")
}

// ParseTimeout parses a timeout flag. Empty means "use the config".
func ParseTimeout(flag string) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid timeout", flag),
			"Try something like 5s, 2m, or 500ms.")
	}
	if d <= 0 {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("Timeout must be positive, got %s", flag),
			"Try something like 5s, 2m, or 500ms.")
	}
	return d, nil
}
