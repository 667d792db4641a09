package cli

import (
	"os"

	"github.com/rileyhilliard/btcdash/internal/config"
	"github.com/rileyhilliard/btcdash/internal/controller"
	"github.com/rileyhilliard/btcdash/internal/exec"
	"github.com/rileyhilliard/btcdash/internal/logger"
	"github.com/rileyhilliard/btcdash/internal/node"
	"github.com/rileyhilliard/btcdash/pkg/sshutil"
)

// nodeSession is everything a command needs to talk to the node.
type nodeSession struct {
	cfg     *config.Config
	cfgPath string
	cli     *node.CLI
	invoker exec.Invoker
	remote  *exec.RemoteInvoker
}

// openNode loads and validates config, applies flag overrides, reads
// credentials and picks a local or SSH invoker. Callers must Close the session.
func openNode(flags NodeFlags) (*nodeSession, error) {
	cfg, path, err := config.LoadOrDefault(Config())
	if err != nil {
		return nil, err
	}

	timeout, err := ParseTimeout(flags.Timeout)
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		cfg.Poll.Timeout = timeout
	}
	if flags.SSHHost != "" {
		cfg.Node.SSHHost = flags.SSHHost
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	creds, err := config.LoadCredentials(os.Getenv)
	if err != nil {
		return nil, err
	}

	s := &nodeSession{
		cfg:     cfg,
		cfgPath: path,
		cli:     node.NewCLI(cfg.Node.Binary, cfg.Node.Args, creds),
	}

	if cfg.Node.SSHHost != "" {
		s.remote = exec.NewRemoteInvoker(cfg.Node.SSHHost, nil, logger.NewEnvLogger("ssh"))
		s.invoker = s.remote
	} else {
		s.invoker = exec.NewLocalInvoker(logger.NewEnvLogger("exec"))
	}

	logger.Default().Debug("node session: binary=%s remote=%q config=%q", cfg.Node.Binary, cfg.Node.SSHHost, path)
	return s, nil
}

// controllerOptions maps the session onto controller options.
func (s *nodeSession) controllerOptions() controller.Options {
	opts := controller.OptionsFromConfig(s.cfg, s.invoker, s.cli)
	opts.Logger = logger.NewEnvLogger("controller")
	return opts
}

// Close drops the SSH connection and agent socket, if any.
func (s *nodeSession) Close() error {
	if s.remote == nil {
		return nil
	}
	err := s.remote.Close()
	sshutil.CloseAgent()
	return err
}

// where names the machine commands run on, for messages.
func (s *nodeSession) where() string {
	if s.cfg.Node.SSHHost != "" {
		return s.cfg.Node.SSHHost
	}
	return "this machine"
}
