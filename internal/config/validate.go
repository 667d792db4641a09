package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/btcdash/internal/errors"
	"github.com/rileyhilliard/btcdash/internal/logger"
)

const (
	// MinPollInterval keeps the node from being hammered.
	MinPollInterval = 500 * time.Millisecond
	// MinTimeout is the shortest invocation timeout accepted.
	MinTimeout = 100 * time.Millisecond
	// MaxInputLength caps input.max_length.
	MaxInputLength = 64 * 1024
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but btcdash only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade btcdash or lower the version field")
	}

	if err := validateNode(cfg.Node); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'node' section in your .btcdash.yaml.")
	}

	if err := validatePoll(cfg.Poll); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Check the 'poll' section in your .btcdash.yaml.")
	}

	if cfg.History.Cap <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("history.cap must be positive, got %d", cfg.History.Cap),
			"Use something like 200")
	}

	if cfg.Input.MaxLength <= 0 || cfg.Input.MaxLength > MaxInputLength {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("input.max_length must be between 1 and %d, got %d", MaxInputLength, cfg.Input.MaxLength),
			"The default is 1024")
	}

	for i, c := range cfg.Commands {
		if strings.TrimSpace(c) == "" {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("commands[%d] is empty", i),
				"Remove the blank entry from the 'commands' list")
		}
	}

	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid log.level",
			"Use debug, info, warn or error")
	}

	return nil
}

func validateNode(n NodeConfig) error {
	if strings.TrimSpace(n.Binary) == "" {
		return fmt.Errorf("node.binary can't be empty")
	}
	if strings.TrimSpace(n.PollCommand) == "" {
		return fmt.Errorf("node.poll_command can't be empty")
	}
	for _, a := range n.Args {
		if strings.HasPrefix(a, "-rpcpassword") || strings.HasPrefix(a, "-rpcuser") {
			return fmt.Errorf("node.args must not carry credentials (%s); export RPC_USER and RPC_PASSWORD instead", strings.SplitN(a, "=", 2)[0])
		}
	}
	if strings.ContainsAny(n.SSHHost, " \t") {
		return fmt.Errorf("node.ssh_host %q contains whitespace", n.SSHHost)
	}
	return nil
}

func validatePoll(p PollConfig) error {
	if p.Interval < MinPollInterval {
		return fmt.Errorf("poll.interval must be at least %s, got %s", MinPollInterval, p.Interval)
	}
	if p.Timeout < MinTimeout {
		return fmt.Errorf("poll.timeout must be at least %s, got %s", MinTimeout, p.Timeout)
	}
	return nil
}
