package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/natefinch/atomic"
	"github.com/rileyhilliard/btcdash/internal/config"
	"github.com/rileyhilliard/btcdash/internal/errors"
	"github.com/rileyhilliard/btcdash/internal/ui"
	"github.com/rileyhilliard/btcdash/pkg/sshutil"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Global         bool   // Write ~/.config/btcdash/config.yaml instead of ./.btcdash.yaml
	SSHHost        string // Pre-specified node host
	Network        string // main, test, testnet4, signet or regtest
	Overwrite      bool   // Overwrite existing config without asking
	NonInteractive bool   // Skip prompts, use defaults
}

// initAnswers are the values the form collects.
type initAnswers struct {
	Binary      string
	Network     string
	PollCommand string
	SSHHost     string
	Wallet      bool
}

// networkArgs maps a network choice to the bitcoin-cli flag selecting it.
var networkArgs = map[string]string{
	"main":     "",
	"test":     "-testnet",
	"testnet4": "-testnet4",
	"signet":   "-signet",
	"regtest":  "-regtest",
}

// otherHost is the select value for "type a host by hand".
const otherHost = "\x00other"

// fileConfig is what init writes. Durations are strings so the file reads
// the way people write it by hand.
type fileConfig struct {
	Version  int        `yaml:"version"`
	Node     fileNode   `yaml:"node"`
	Poll     filePoll   `yaml:"poll"`
	Wallet   fileWallet `yaml:"wallet"`
	Commands []string   `yaml:"commands"`
}

type fileNode struct {
	Binary      string   `yaml:"binary"`
	Args        []string `yaml:"args,omitempty"`
	PollCommand string   `yaml:"poll_command"`
	SSHHost     string   `yaml:"ssh_host,omitempty"`
}

type filePoll struct {
	Interval string `yaml:"interval"`
	Timeout  string `yaml:"timeout"`
}

type fileWallet struct {
	PollCommand string `yaml:"poll_command"`
}

const configHeader = `# btcdash configuration
# RPC_USER and RPC_PASSWORD are read from the environment, never from this file.

`

// Init creates a new config file.
func Init(opts InitOptions) error {
	path, err := initPath(opts.Global)
	if err != nil {
		return err
	}

	interactive := !opts.NonInteractive && os.Getenv("CI") == "" && term.IsTerminal(int(os.Stdin.Fd()))

	if _, err := os.Stat(path); err == nil && !opts.Overwrite {
		if !interactive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", path),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s already exists. Overwrite?", path)).
				Value(&overwrite),
		))
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	answers := defaultAnswers(opts)
	if interactive {
		if err := askInit(&answers); err != nil {
			return err
		}
	}
	if _, ok := networkArgs[answers.Network]; !ok {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown network %q", answers.Network),
			"Use main, test, testnet4, signet or regtest.")
	}

	data, err := renderConfig(answers)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to generate config",
			"This shouldn't happen - please report this bug")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Can't create "+filepath.Dir(path),
			"Check directory permissions")
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to write config file: %s", path),
			"Check directory permissions")
	}

	fmt.Printf("%s Created %s\n\n", ui.SuccessStyle().Render(ui.SymbolSuccess), path)
	if os.Getenv(config.EnvRPCUser) == "" || os.Getenv(config.EnvRPCPassword) == "" {
		fmt.Println("Before starting, export the node's RPC credentials:")
		fmt.Println("  export RPC_USER=... RPC_PASSWORD=...")
		fmt.Println()
	}
	fmt.Println("Next steps:")
	fmt.Println("  btcdash status  - Check the node answers")
	fmt.Println("  btcdash         - Open the dashboard")
	return nil
}

func initPath(global bool) (string, error) {
	if global {
		return config.GlobalConfigPath()
	}
	return filepath.Join(".", config.ConfigFileName), nil
}

func defaultAnswers(opts InitOptions) initAnswers {
	defaults := config.DefaultConfig()
	network := opts.Network
	if network == "" {
		network = "main"
	}
	return initAnswers{
		Binary:      defaults.Node.Binary,
		Network:     network,
		PollCommand: defaults.Node.PollCommand,
		SSHHost:     opts.SSHHost,
		Wallet:      true,
	}
}

// askInit runs the interactive form, starting from the values in a.
func askInit(a *initAnswers) error {
	hosts, err := sshutil.ParseSSHConfig()
	if err != nil {
		// A broken ~/.ssh/config only costs us the suggestions.
		hosts = nil
	}

	hostChoice := a.SSHHost
	if hostChoice != "" && !hasAlias(hosts, hostChoice) {
		hostChoice = otherHost
	}
	manualHost := a.SSHHost

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where does bitcoin-cli run?").
				Description("Remote hosts are reached over SSH using your ~/.ssh/config").
				Options(sshHostOptions(hosts)...).
				Value(&hostChoice),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("SSH host").
				Description("hostname, user@hostname, or an alias").
				Placeholder("user@node.local").
				Value(&manualHost).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("SSH host is required")
					}
					return nil
				}),
		).WithHideFunc(func() bool { return hostChoice != otherHost }),
		huh.NewGroup(
			huh.NewInput().
				Title("bitcoin-cli path").
				Value(&a.Binary).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("binary is required")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Network").
				Options(
					huh.NewOption("mainnet", "main"),
					huh.NewOption("testnet3", "test"),
					huh.NewOption("testnet4", "testnet4"),
					huh.NewOption("signet", "signet"),
					huh.NewOption("regtest", "regtest"),
				).
				Value(&a.Network),
			huh.NewSelect[string]().
				Title("Status command").
				Description("-getinfo needs bitcoin-cli 0.18 or newer").
				Options(
					huh.NewOption("-getinfo", "-getinfo"),
					huh.NewOption("getblockchaininfo", "getblockchaininfo"),
				).
				Value(&a.PollCommand),
			huh.NewConfirm().
				Title("Show the wallet panel?").
				Description("Polls getwalletinfo alongside node status").
				Value(&a.Wallet),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or use --non-interactive")
	}

	switch hostChoice {
	case otherHost:
		a.SSHHost = strings.TrimSpace(manualHost)
	default:
		a.SSHHost = hostChoice
	}
	return nil
}

func sshHostOptions(hosts []sshutil.SSHHostEntry) []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption("This machine", "")}
	for _, h := range hosts {
		label := h.Alias
		if desc := h.Description(); desc != h.Alias {
			label += " (" + desc + ")"
		}
		opts = append(opts, huh.NewOption(label, h.Alias))
	}
	return append(opts, huh.NewOption("Another host...", otherHost))
}

func hasAlias(hosts []sshutil.SSHHostEntry, alias string) bool {
	for _, h := range hosts {
		if h.Alias == alias {
			return true
		}
	}
	return false
}

// renderConfig builds the file contents for a.
func renderConfig(a initAnswers) ([]byte, error) {
	defaults := config.DefaultConfig()

	fc := fileConfig{
		Version: config.CurrentConfigVersion,
		Node: fileNode{
			Binary:      strings.TrimSpace(a.Binary),
			PollCommand: a.PollCommand,
			SSHHost:     a.SSHHost,
		},
		Poll: filePoll{
			Interval: defaults.Poll.Interval.String(),
			Timeout:  defaults.Poll.Timeout.String(),
		},
		Commands: defaults.Commands,
	}
	if flag := networkArgs[a.Network]; flag != "" {
		fc.Node.Args = []string{flag}
	}
	if a.Wallet {
		fc.Wallet.PollCommand = defaults.Wallet.PollCommand
	}

	data, err := yaml.Marshal(fc)
	if err != nil {
		return nil, err
	}
	return append([]byte(configHeader), data...), nil
}

// initCommand is the implementation called by the cobra command.
func initCommand(opts InitOptions) error {
	return Init(opts)
}
