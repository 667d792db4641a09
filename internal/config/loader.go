package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/btcdash/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".btcdash.yaml"
	// GlobalConfigDir is the directory for global config, relative to home.
	GlobalConfigDir = ".config/btcdash"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. BTCDASH_POLL_INTERVAL.
	EnvPrefix = "BTCDASH"
)

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'btcdash init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .btcdash.yaml in current directory
// 3. .btcdash.yaml in parent directories (stops at git root or home)
// 4. ~/.config/btcdash/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	if local := filepath.Join(cwd, ConfigFileName); fileExists(local) {
		return local, nil
	}

	home, _ := os.UserHomeDir()
	dir := cwd
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		if home != "" && parent == home {
			break
		}
		dir = parent

		if candidate := filepath.Join(dir, ConfigFileName); fileExists(candidate) {
			return candidate, nil
		}
		if fileExists(filepath.Join(dir, ".git")) {
			break
		}
	}

	if home != "" {
		global := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if fileExists(global) {
			return global, nil
		}
	}

	return "", nil
}

// LoadOrDefault finds and loads the config, falling back to defaults
// (with environment overrides applied) when no file exists.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		cfg, err := parseConfig(newViper(), "environment")
		return cfg, "", err
	}

	cfg, err := Load(path)
	return cfg, path, err
}

// GlobalConfigPath returns ~/.config/btcdash/config.yaml.
func GlobalConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine home directory",
			"Set HOME or pass --config")
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile), nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, source string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+source)
	}

	cfg.AddressBook.Path = ExpandTilde(cfg.AddressBook.Path)
	cfg.Log.File = ExpandTilde(cfg.Log.File)
	cfg.Node.Binary = ExpandTilde(cfg.Node.Binary)
	if len(cfg.Commands) == 0 {
		cfg.Commands = append([]string(nil), DefaultCommands...)
	}

	return cfg, nil
}

// setDefaults registers every key with viper. AutomaticEnv only consults the
// environment for keys viper already knows about.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("node.binary", d.Node.Binary)
	v.SetDefault("node.args", d.Node.Args)
	v.SetDefault("node.poll_command", d.Node.PollCommand)
	v.SetDefault("node.ssh_host", d.Node.SSHHost)
	v.SetDefault("poll.interval", d.Poll.Interval.String())
	v.SetDefault("poll.timeout", d.Poll.Timeout.String())
	v.SetDefault("history.cap", d.History.Cap)
	v.SetDefault("history.record_polls", d.History.RecordPolls)
	v.SetDefault("input.max_length", d.Input.MaxLength)
	v.SetDefault("commands", d.Commands)
	v.SetDefault("wallet.poll_command", d.Wallet.PollCommand)
	v.SetDefault("wallet.hide_amounts", d.Wallet.HideAmounts)
	v.SetDefault("address_book.path", d.AddressBook.Path)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
}

// ExpandTilde replaces ~ or ~/path with the user's home directory.
// Does not support ~username syntax.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
