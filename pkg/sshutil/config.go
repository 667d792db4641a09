package sshutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kevinburke/ssh_config"
)

// SSHHostEntry is a concrete Host alias from ~/.ssh/config, offered as a
// node.ssh_host choice by btcdash init.
type SSHHostEntry struct {
	Alias    string
	Hostname string
	User     string
	Port     string
}

// Description renders the entry as an ssh destination, user@host:port,
// leaving out parts that add nothing (default port, hostname equal to alias).
func (h SSHHostEntry) Description() string {
	target := h.Hostname
	if target == "" {
		target = h.Alias
	}
	if h.User != "" {
		target = h.User + "@" + target
	}
	if h.Port != "" && h.Port != "22" {
		target += ":" + h.Port
	}
	return target
}

// ParseSSHConfig reads ~/.ssh/config. A missing file yields no hosts.
func ParseSSHConfig() ([]SSHHostEntry, error) {
	return ParseSSHConfigFile(filepath.Join(homeDir(), ".ssh", "config"))
}

// ParseSSHConfigFile returns the concrete aliases declared in configPath,
// sorted by alias. Wildcard patterns and anything after the first Match
// block are ignored.
func ParseSSHConfigFile(configPath string) ([]SSHHostEntry, error) {
	content, _, err := preprocessSSHConfig(configPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	aliases := concreteAliases(cfg)
	if len(aliases) == 0 {
		return nil, nil
	}

	hosts := make([]SSHHostEntry, 0, len(aliases))
	for _, alias := range aliases {
		hosts = append(hosts, lookupEntry(cfg, alias))
	}
	return hosts, nil
}

func concreteAliases(cfg *ssh_config.Config) []string {
	seen := make(map[string]struct{})
	var aliases []string
	for _, host := range cfg.Hosts {
		for _, p := range host.Patterns {
			alias := p.String()
			if strings.ContainsAny(alias, "*?!") {
				continue
			}
			if _, dup := seen[alias]; dup {
				continue
			}
			seen[alias] = struct{}{}
			aliases = append(aliases, alias)
		}
	}
	sort.Strings(aliases)
	return aliases
}

func lookupEntry(cfg *ssh_config.Config, alias string) SSHHostEntry {
	get := func(key string) string {
		v, _ := cfg.Get(alias, key)
		return v
	}
	return SSHHostEntry{
		Alias:    alias,
		Hostname: get("HostName"),
		User:     get("User"),
		Port:     get("Port"),
	}
}
