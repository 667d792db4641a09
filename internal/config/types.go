package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete .btcdash.yaml configuration file.
type Config struct {
	Version     int               `yaml:"version" mapstructure:"version"`
	Node        NodeConfig        `yaml:"node" mapstructure:"node"`
	Poll        PollConfig        `yaml:"poll" mapstructure:"poll"`
	History     HistoryConfig     `yaml:"history" mapstructure:"history"`
	Input       InputConfig       `yaml:"input" mapstructure:"input"`
	Commands    []string          `yaml:"commands" mapstructure:"commands"`
	Wallet      WalletConfig      `yaml:"wallet" mapstructure:"wallet"`
	AddressBook AddressBookConfig `yaml:"address_book" mapstructure:"address_book"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// NodeConfig describes how to reach the node's control interface.
type NodeConfig struct {
	// Binary is the control interface executable (bitcoin-cli).
	Binary string `yaml:"binary" mapstructure:"binary"`

	// Args are passed before every subcommand, e.g. -testnet or -datadir=/srv/btc.
	Args []string `yaml:"args" mapstructure:"args"`

	// PollCommand is the status subcommand run on every refresh.
	// It may carry its own arguments ("getblockchaininfo", "-getinfo").
	PollCommand string `yaml:"poll_command" mapstructure:"poll_command"`

	// SSHHost runs the control interface on another machine.
	// Accepts hostname, user@hostname, or an SSH config alias.
	SSHHost string `yaml:"ssh_host" mapstructure:"ssh_host"`
}

// PollConfig controls the refresh cadence.
type PollConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	// Timeout bounds every invocation, polls and operator commands alike.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// HistoryConfig bounds the command history.
type HistoryConfig struct {
	Cap int `yaml:"cap" mapstructure:"cap"`

	// RecordPolls adds status and wallet polls to the history list.
	RecordPolls bool `yaml:"record_polls" mapstructure:"record_polls"`
}

// InputConfig limits operator input.
type InputConfig struct {
	MaxLength int `yaml:"max_length" mapstructure:"max_length"`
}

// WalletConfig controls the wallet panel.
type WalletConfig struct {
	// PollCommand is refreshed alongside status. Empty disables the wallet panel.
	PollCommand string `yaml:"poll_command" mapstructure:"poll_command"`

	// HideAmounts starts the dashboard with balances masked.
	HideAmounts bool `yaml:"hide_amounts" mapstructure:"hide_amounts"`
}

// AddressBookConfig locates the saved receive addresses.
type AddressBookConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig controls where diagnostics go while the dashboard owns the terminal.
type LogConfig struct {
	File  string `yaml:"file" mapstructure:"file"`
	Level string `yaml:"level" mapstructure:"level"`
}

// DefaultCommands is the preset list shown when the config has none.
var DefaultCommands = []string{
	"getblockchaininfo",
	"getnetworkinfo",
	"getmempoolinfo",
	"getwalletinfo",
	"listwallets",
	"getpeerinfo",
	"uptime",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Node: NodeConfig{
			Binary:      "bitcoin-cli",
			Args:        []string{},
			PollCommand: "-getinfo",
		},
		Poll: PollConfig{
			Interval: 5 * time.Second,
			Timeout:  10 * time.Second,
		},
		History: HistoryConfig{
			Cap: 200,
		},
		Input: InputConfig{
			MaxLength: 1024,
		},
		Commands: append([]string(nil), DefaultCommands...),
		Wallet: WalletConfig{
			PollCommand: "getwalletinfo",
		},
		AddressBook: AddressBookConfig{
			Path: "~/" + GlobalConfigDir + "/addresses.json",
		},
		Log: LogConfig{
			File:  "~/" + GlobalConfigDir + "/btcdash.log",
			Level: "info",
		},
	}
}
