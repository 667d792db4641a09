package cli

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rileyhilliard/btcdash/internal/errors"
	"github.com/rileyhilliard/btcdash/internal/logger"
	"github.com/rileyhilliard/btcdash/internal/util"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile string
	verbose bool
	noColor bool

	dashboardFlags NodeFlags
)

// rootCmd runs the dashboard when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:   "btcdash",
	Short: "Terminal dashboard for a bitcoin node",
	Long: `btcdash watches a bitcoin node through bitcoin-cli and lets you run
commands against it without leaving the terminal.

Node status refreshes in the background. Commands you run show up in a
history list with their output, and the address overlay renders a QR code
for any receive address.

RPC_USER and RPC_PASSWORD must be set in the environment.

Examples:
  btcdash
  btcdash --config ~/nodes/pi.yaml
  btcdash status --json
  btcdash exec getblockhash 800000`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return applyGlobalFlags()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return dashboardCommand(dashboardFlags)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./.btcdash.yaml or ~/.config/btcdash/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	AddNodeFlags(rootCmd, &dashboardFlags)
}

// Config returns the --config flag value.
func Config() string {
	return cfgFile
}

// Verbose reports whether --verbose was passed.
func Verbose() bool {
	return verbose
}

func applyGlobalFlags() error {
	if noColor || os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	// One-shot commands log to stderr; keep it quiet unless asked.
	if verbose {
		return logger.SetLevel("debug")
	}
	return logger.SetLevel("warn")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	if code, ok := errors.GetExitCode(err); ok {
		os.Exit(code)
	}

	if isUnknownCommandError(err) {
		err = unknownCommandError(err)
	}

	fmt.Fprint(os.Stderr, formatError(err))
	os.Exit(1)
}

// formatError renders structured errors as-is and wraps anything else in
// the same leading marker.
func formatError(err error) string {
	var dashErr *errors.Error
	if stderrors.As(err, &dashErr) {
		return dashErr.Error()
	}
	return fmt.Sprintf("✗ %s\n", err)
}

func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

// extractUnknownCommand pulls the name out of cobra's
// `unknown command "foo" for "btcdash"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}

func unknownCommandError(err error) error {
	name := extractUnknownCommand(err)
	if name == "" {
		return errors.New(errors.ErrInput, err.Error(), "Run 'btcdash --help' for usage.")
	}

	var names []string
	for _, c := range rootCmd.Commands() {
		if !c.Hidden {
			names = append(names, c.Name())
		}
	}

	suggestion := "Run 'btcdash --help' to see the available commands."
	if similar := util.SuggestSimilar(name, names, 1); len(similar) > 0 {
		suggestion = fmt.Sprintf("Did you mean 'btcdash %s'?", similar[0])
	} else if strings.HasPrefix(err.Error(), "unknown command") {
		suggestion = fmt.Sprintf("To send %s to the node, use 'btcdash exec %s'.", name, name)
	}
	return errors.New(errors.ErrInput, fmt.Sprintf("Unknown command %q", name), suggestion)
}
