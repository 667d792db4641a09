package cli

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/rileyhilliard/btcdash/internal/address"
	"github.com/rileyhilliard/btcdash/internal/config"
	"github.com/rileyhilliard/btcdash/internal/controller"
	"github.com/rileyhilliard/btcdash/internal/dashboard"
	"github.com/rileyhilliard/btcdash/internal/errors"
	"github.com/rileyhilliard/btcdash/internal/logger"
	"golang.org/x/term"
)

// dashboardCommand starts the controller and runs the TUI until the user quits.
func dashboardCommand(flags NodeFlags) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New(errors.ErrConfig,
			"The dashboard needs an interactive terminal",
			"Use 'btcdash status' or 'btcdash exec <rpc>' from scripts and pipes.")
	}

	s, err := openNode(flags)
	if err != nil {
		return err
	}
	defer s.Close()

	closeLog, err := startFileLogging(s.cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	log := logger.NewEnvLogger("cli")
	log.Info("starting dashboard: config=%q node=%s poll=%q every %s",
		s.cfgPath, s.where(), s.cfg.Node.PollCommand, s.cfg.Poll.Interval)

	ctl := controller.New(s.controllerOptions())
	ctl.Start()
	defer ctl.Stop()

	book := address.LoadBook(config.ExpandTilde(s.cfg.AddressBook.Path), logger.NewEnvLogger("addressbook"))

	model := dashboard.NewModel(ctl, dashboard.Options{
		Commands:      s.cfg.Commands,
		WalletEnabled: s.cfg.Wallet.PollCommand != "",
		HideAmounts:   s.cfg.Wallet.HideAmounts,
		Book:          book,
		DarkOnLight:   !termenv.HasDarkBackground(),
		Logger:        logger.NewEnvLogger("dashboard"),
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	if err != nil {
		log.Error("dashboard exited: %v", err)
		return errors.Wrap(err, "Dashboard crashed")
	}
	log.Info("dashboard closed")
	return nil
}

// startFileLogging moves log output off the terminal for the lifetime of
// the TUI. --verbose overrides the configured level.
func startFileLogging(cfg config.LogConfig) (func(), error) {
	path := config.ExpandTilde(cfg.File)
	f, err := logger.OpenFile(path)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Can't open log file "+path,
			"Set log.file to a writable path.")
	}

	level := cfg.Level
	if Verbose() {
		level = "debug"
	}
	if err := logger.SetLevel(level); err != nil {
		f.Close()
		return nil, errors.WrapWithCode(err, errors.ErrConfig, "Invalid log.level", "Use debug, info, warn or error.")
	}

	return func() {
		logger.SetOutput(os.Stderr)
		f.Close()
	}, nil
}
