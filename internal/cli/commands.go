package cli

import (
	"os"

	"github.com/rileyhilliard/btcdash/internal/errors"
	"github.com/spf13/cobra"
)

// Command-specific flags
var (
	initGlobal         bool
	initHostFlag       string
	initNetworkFlag    string
	initForce          bool
	initNonInteractive bool
)

// statusCmd runs one status poll and prints it
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print node status once and exit",
	Long: `Run the configured status command once and print the result.

Uses the same config and credentials as the dashboard. The wallet is
queried too when wallet.poll_command is set. Exits non-zero when the node
can't be reached or its output can't be parsed.

Examples:
  btcdash status
  btcdash status --json | jq .data.height`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusCommand(cmd.OutOrStdout(), statusFlags, statusJSON)
	},
}

// execCmd sends a single command to the node
var execCmd = &cobra.Command{
	Use:   "exec <rpc> [args...]",
	Short: "Send one command to the node",
	Long: `Run a bitcoin-cli command with the configured credentials and print
its output. The exit code matches bitcoin-cli's.

Arguments are passed through as given; nothing is interpreted by a shell.
Use -- before arguments that start with a dash.

Examples:
  btcdash exec getblockcount
  btcdash exec getblockhash 800000
  btcdash exec -- -named getblock blockhash=000000... verbosity=1`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return execCommand(cmd.OutOrStdout(), cmd.ErrOrStderr(), args, execFlags, execJSON)
	},
}

// qrCmd renders an address as a QR code
var qrCmd = &cobra.Command{
	Use:   "qr <address>",
	Short: "Print a QR code for a bitcoin address",
	Long: `Validate a bitcoin address and print it as a QR code that phones can
scan straight off the terminal. No node connection is needed.

The code is drawn for a dark background unless the terminal reports a
light one; --light and --dark override the guess.

Examples:
  btcdash qr bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4
  btcdash qr --light 1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return qrCommand(cmd.OutOrStdout(), args[0], qrDarkOnLight(), qrAny)
	},
}

// initCmd creates a new .btcdash.yaml configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create .btcdash.yaml configuration",
	Long: `Create a btcdash config file.

Asks where bitcoin-cli runs (this machine or a host from ~/.ssh/config),
which network the node is on, and whether to show the wallet panel.

Examples:
  btcdash init
  btcdash init --global
  btcdash init --host pi --network signet --non-interactive`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(InitOptions{
			Global:         initGlobal,
			SSHHost:        initHostFlag,
			Network:        initNetworkFlag,
			Overwrite:      initForce,
			NonInteractive: initNonInteractive,
		})
	},
}

// completionCmd generates shell completion scripts
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion scripts for btcdash.

Examples:
  # Bash
  btcdash completion bash > /etc/bash_completion.d/btcdash

  # Zsh
  btcdash completion zsh > "${fpath[1]}/_btcdash"

  # Fish
  btcdash completion fish > ~/.config/fish/completions/btcdash.fish`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(os.Stdout)
		default:
			return errors.New(errors.ErrInput,
				"Unknown shell: "+args[0],
				"Supported shells: bash, zsh, fish, powershell")
		}
	},
}

func init() {
	// init command flags
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "write ~/.config/btcdash/config.yaml")
	initCmd.Flags().StringVar(&initHostFlag, "host", "", "SSH host where bitcoin-cli runs")
	initCmd.Flags().StringVar(&initNetworkFlag, "network", "", "main, test, testnet4, signet or regtest")
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing config")
	initCmd.Flags().BoolVar(&initNonInteractive, "non-interactive", false, "skip prompts and use defaults")

	// Register all commands
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(qrCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(completionCmd)
}
