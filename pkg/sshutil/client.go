package sshutil

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/rileyhilliard/btcdash/internal/errors"
	"github.com/rileyhilliard/btcdash/internal/logger"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// KeyEnv names an extra private key to offer, tried after the agent.
const KeyEnv = "BTCDASH_SSH_KEY"

// Client wraps an SSH connection to the node's host.
type Client struct {
	conn    *ssh.Client
	Host    string // The host/alias from config
	Address string // The resolved host:port
}

var log = logger.NewEnvLogger("ssh")

// matchWarningOnce limits the ssh_config Match warning to one per process.
var matchWarningOnce sync.Once

// StrictHostKeyChecking verifies host keys against ~/.ssh/known_hosts.
// Only tests turn it off.
var StrictHostKeyChecking = true

// Dial connects to host, which can be an SSH config alias, a hostname,
// user@hostname, or hostname:port. Settings from ~/.ssh/config apply.
func Dial(ctx context.Context, host string, timeout time.Duration) (*Client, error) {
	settings := resolveSSHSettings(host)

	config, err := buildSSHConfig(settings)
	if err != nil {
		var dashErr *errors.Error
		if stderrors.As(err, &dashErr) {
			return nil, err
		}
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't set up SSH for '%s'", host),
			"Check your keys are loaded: ssh-add -l")
	}
	config.Timeout = timeout

	address := settings.address()
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Can't reach '%s' at %s", host, address),
			suggestionForDialError(err))
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		conn.Close()

		var hostKeyErr *HostKeyMismatchError
		if stderrors.As(err, &hostKeyErr) {
			return nil, errors.New(errors.ErrSSH, hostKeyErr.Error(), hostKeyErr.Suggestion())
		}
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("SSH handshake with '%s' didn't go through", host),
			suggestionForHandshakeError(err, settings.encryptedKeys))
	}

	log.Debug("connected to %s (%s) as %s", host, address, settings.user)
	return &Client{
		conn:    ssh.NewClient(sshConn, chans, reqs),
		Host:    host,
		Address: address,
	}, nil
}

// Close closes the SSH connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// GetHost returns the host/alias used to connect.
func (c *Client) GetHost() string {
	return c.Host
}

// sshSettings holds resolved connection parameters.
type sshSettings struct {
	hostname      string
	port          string
	user          string
	identityFile  string
	encryptedKeys []string
}

func (s *sshSettings) address() string {
	return net.JoinHostPort(s.hostname, s.port)
}

// resolveSSHSettings splits user@host:port and fills the gaps from ~/.ssh/config.
func resolveSSHSettings(host string) *sshSettings {
	settings := &sshSettings{port: "22", user: currentUser()}

	if user, rest, ok := strings.Cut(host, "@"); ok {
		settings.user = user
		host = rest
	}

	if idx := strings.LastIndex(host, ":"); idx != -1 && isDigits(host[idx+1:]) {
		settings.port = host[idx+1:]
		host = host[:idx]
	}
	settings.hostname = host

	content, matchLine, err := preprocessSSHConfig(filepath.Join(homeDir(), ".ssh", "config"))
	if err != nil {
		return settings
	}
	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return settings
	}

	found := false
	apply := func(key string, dst *string, transform func(string) string) {
		if v, _ := cfg.Get(host, key); v != "" {
			if transform != nil {
				v = transform(v)
			}
			*dst = v
			found = true
		}
	}
	apply("HostName", &settings.hostname, nil)
	apply("Port", &settings.port, nil)
	apply("User", &settings.user, nil)
	apply("IdentityFile", &settings.identityFile, expandPath)

	if matchLine > 0 && !found {
		matchWarningOnce.Do(func() {
			log.Warn("host '%s' not found in SSH config; a Match block at line %d may hide later entries", host, matchLine)
		})
	}

	return settings
}

// buildSSHConfig collects auth methods (agent first, then key files) and the
// host key callback. Encrypted keys are recorded in settings for suggestions.
func buildSSHConfig(settings *sshSettings) (*ssh.ClientConfig, error) {
	var authMethods []ssh.AuthMethod

	tryKeyFile := func(keyPath string) {
		keyAuth, err := keyFileAuth(keyPath)
		if err != nil {
			var encErr *EncryptedKeyError
			if stderrors.As(err, &encErr) {
				settings.encryptedKeys = append(settings.encryptedKeys, keyPath)
			}
			return
		}
		authMethods = append(authMethods, keyAuth)
	}

	if agentAuth := sshAgentAuth(); agentAuth != nil {
		authMethods = append(authMethods, agentAuth)
	}
	if extra := os.Getenv(KeyEnv); extra != "" {
		tryKeyFile(expandPath(extra))
	}
	if settings.identityFile != "" {
		tryKeyFile(settings.identityFile)
	}
	for _, name := range []string{"id_ed25519", "id_ecdsa", "id_rsa"} {
		keyPath := filepath.Join(homeDir(), ".ssh", name)
		if keyPath != settings.identityFile {
			tryKeyFile(keyPath)
		}
	}

	if len(authMethods) == 0 {
		if len(settings.encryptedKeys) > 0 {
			return nil, errors.New(errors.ErrSSH,
				fmt.Sprintf("Found SSH key(s) but they're encrypted: %s", strings.Join(settings.encryptedKeys, ", ")),
				addKeysSuggestion("Add your key(s) to the agent:", settings.encryptedKeys))
		}
		return nil, errors.New(errors.ErrSSH,
			"No SSH auth methods available",
			"Check your keys are loaded: ssh-add -l")
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey() //nolint:gosec // tests only
	if StrictHostKeyChecking {
		var err error
		hostKeyCallback, err = createHostKeyCallback(filepath.Join(homeDir(), ".ssh", "known_hosts"))
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}
	}

	return &ssh.ClientConfig{
		User:            settings.user,
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         10 * time.Second,
	}, nil
}

var (
	agentConn     net.Conn
	agentClient   agent.ExtendedAgent
	agentConnOnce sync.Once
)

// sshAgentAuth returns agent auth when SSH_AUTH_SOCK is set and the agent
// holds at least one key. The agent connection is shared across dials.
func sshAgentAuth() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	agentConnOnce.Do(func() {
		conn, err := net.Dial("unix", socket)
		if err != nil {
			log.Debug("ssh agent unavailable: %v", err)
			return
		}
		agentConn = conn
		agentClient = agent.NewClient(conn)
	})
	if agentClient == nil {
		return nil
	}

	// An empty agent placed before key files makes servers reject the key files.
	signers, err := agentClient.Signers()
	if err != nil || len(signers) == 0 {
		return nil
	}
	return ssh.PublicKeysCallback(agentClient.Signers)
}

// CloseAgent closes the shared agent connection. Call on shutdown.
func CloseAgent() {
	if agentConn != nil {
		agentConn.Close()
	}
}

// keyFileAuth loads a private key. Passphrase-protected keys yield EncryptedKeyError.
func keyFileAuth(keyPath string) (ssh.AuthMethod, error) {
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if stderrors.As(err, &missing) || isEncryptedPEM(key) {
			return nil, &EncryptedKeyError{Path: keyPath}
		}
		return nil, err
	}
	return ssh.PublicKeys(signer), nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

func currentUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "root"
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func addKeysSuggestion(header string, keys []string) string {
	var sb strings.Builder
	sb.WriteString(header + "\n")
	for _, key := range keys {
		if runtime.GOOS == "darwin" {
			sb.WriteString(fmt.Sprintf("  ssh-add --apple-use-keychain %s\n", key))
		} else {
			sb.WriteString(fmt.Sprintf("  ssh-add %s\n", key))
		}
	}
	sb.WriteString("\nNot sure which key? Check with: ssh -v <host>")
	return sb.String()
}

func suggestionForDialError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "Is sshd running on the node host? Try: ssh <host>"
	case strings.Contains(msg, "no route to host"), strings.Contains(msg, "network is unreachable"):
		return "Can't route to the node host. Check your network connection."
	case strings.Contains(msg, "timeout"):
		return "Connection timed out. The host might be offline or firewalled."
	default:
		return "Make sure the host is reachable and node.ssh_host is right"
	}
}

func suggestionForHandshakeError(err error, encryptedKeys []string) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unable to authenticate"), strings.Contains(msg, "no supported methods"):
		if len(encryptedKeys) > 0 {
			return addKeysSuggestion("Your key(s) are encrypted. Add them to the agent:", encryptedKeys)
		}
		return "Auth failed. Check your keys are loaded: ssh-add -l"
	case strings.Contains(msg, "host key"):
		return "Host key issue. Connect once manually to record it: ssh <host>"
	default:
		return "Something went wrong during SSH setup. Try: ssh <host>"
	}
}

// EncryptedKeyError is returned when an SSH key requires a passphrase.
type EncryptedKeyError struct {
	Path string
}

func (e *EncryptedKeyError) Error() string {
	return fmt.Sprintf("SSH key at %s is encrypted (passphrase protected)", e.Path)
}

// HostKeyMismatchError explains a known_hosts verification failure.
type HostKeyMismatchError struct {
	Hostname     string
	ReceivedType string
	KnownHosts   string
	Want         []knownhosts.KnownKey
}

func (e *HostKeyMismatchError) Error() string {
	return fmt.Sprintf("host key mismatch for %s: server sent %s key", e.Hostname, e.ReceivedType)
}

// Suggestion returns the commands that repair known_hosts.
func (e *HostKeyMismatchError) Suggestion() string {
	host := e.Hostname
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	known := make([]string, 0, len(e.Want))
	for _, k := range e.Want {
		known = append(known, k.Key.Type())
	}
	wantStr := "unknown"
	if len(known) > 0 {
		wantStr = strings.Join(known, ", ")
	}

	return fmt.Sprintf(
		"The server's host key doesn't match known_hosts.\n"+
			"  Known types: %s\n"+
			"  Server sent: %s\n\n"+
			"  If the node host was reinstalled, remove the old entry:\n"+
			"    ssh-keygen -R %s\n"+
			"  then record the new key:\n"+
			"    ssh-keyscan %s >> %s",
		wantStr, e.ReceivedType, host, host, e.KnownHosts)
}

// preprocessSSHConfig returns the config content before the first Match
// directive (ssh_config can't parse Match) and that directive's line number.
func preprocessSSHConfig(configPath string) ([]byte, int, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, 0, err
	}

	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "match ") {
			return []byte(strings.Join(lines[:i], "\n")), i + 1, nil
		}
	}
	return content, 0, nil
}

func isEncryptedPEM(data []byte) bool {
	return bytes.Contains(data, []byte("ENCRYPTED"))
}

// createHostKeyCallback wraps knownhosts so mismatches surface as HostKeyMismatchError.
func createHostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	if _, err := os.Stat(knownHostsPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(knownHostsPath), 0700); err != nil {
			return nil, fmt.Errorf("failed to create .ssh directory: %w", err)
		}
		if err := os.WriteFile(knownHostsPath, []byte{}, 0600); err != nil {
			return nil, fmt.Errorf("failed to create known_hosts: %w", err)
		}
	}

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, err
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := callback(hostname, remote, key)
		var keyErr *knownhosts.KeyError
		if stderrors.As(err, &keyErr) && len(keyErr.Want) > 0 {
			return &HostKeyMismatchError{
				Hostname:     hostname,
				ReceivedType: key.Type(),
				KnownHosts:   knownHostsPath,
				Want:         keyErr.Want,
			}
		}
		return err
	}, nil
}
