// Package cli implements the btcdash command-line interface.
//
// Each cobra command is a thin shell over a function in this package that
// takes its writers and options as arguments, so tests call the function
// directly instead of going through cobra.
//
// # Command Structure
//
//	btcdash               - Interactive dashboard (default)
//	btcdash status        - One status poll, text or --json
//	btcdash exec <rpc>    - One command through the controller
//	btcdash qr <address>  - QR code for an address, no node needed
//	btcdash init          - Write .btcdash.yaml
//	btcdash version       - Build information
//
// # Node Session
//
// Commands that talk to the node start from openNode, which loads and
// validates the config, applies --timeout and --ssh-host, reads RPC_USER
// and RPC_PASSWORD and picks a local or SSH invoker. The dashboard and exec
// then hand the session to a controller; status calls the invoker directly.
//
// # Flag Handling
//
// Global flags (--config, --verbose, --no-color) live on the root command.
// --no-color (or NO_COLOR in the environment) switches lipgloss to the
// Ascii profile before any output is rendered.
//
// # Errors
//
// Commands return *errors.Error values; Execute prints them and exits 1.
// An *errors.ExitError carries bitcoin-cli's own exit code through exec
// without printing anything further.
package cli
