package controller

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/btcdash/internal/config"
	"github.com/rileyhilliard/btcdash/internal/exec"
	"github.com/rileyhilliard/btcdash/internal/logger"
	"github.com/rileyhilliard/btcdash/internal/node"
)

// Options configures a Controller. Zero values fall back to defaults.
type Options struct {
	Invoker exec.Invoker
	CLI     *node.CLI

	PollCommand   string
	WalletCommand string // empty disables wallet polling

	Interval time.Duration
	Timeout  time.Duration

	HistoryCap     int
	RecordPolls    bool
	MaxInputLength int

	Logger logger.Logger
}

// OptionsFromConfig maps the loaded config onto controller options.
func OptionsFromConfig(cfg *config.Config, invoker exec.Invoker, cli *node.CLI) Options {
	return Options{
		Invoker:        invoker,
		CLI:            cli,
		PollCommand:    cfg.Node.PollCommand,
		WalletCommand:  cfg.Wallet.PollCommand,
		Interval:       cfg.Poll.Interval,
		Timeout:        cfg.Poll.Timeout,
		HistoryCap:     cfg.History.Cap,
		RecordPolls:    cfg.History.RecordPolls,
		MaxInputLength: cfg.Input.MaxLength,
	}
}

// Controller wires the scheduler, router and store together.
type Controller struct {
	store     *Store
	router    *Router
	scheduler *Scheduler
	group     *group

	ctx    context.Context
	cancel context.CancelFunc

	startOnce sync.Once
	stopOnce  sync.Once
	log       logger.Logger
}

// New builds a controller. Nothing runs until Start.
func New(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = logger.NewEnvLogger("controller")
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = exec.DefaultTimeout
	}
	if opts.MaxInputLength <= 0 {
		opts.MaxInputLength = DefaultMaxInputLength
	}
	if strings.TrimSpace(opts.PollCommand) == "" {
		opts.PollCommand = config.DefaultConfig().Node.PollCommand
	}

	ctx, cancel := context.WithCancel(context.Background())
	ids := &IDSource{}
	g := &group{}
	store := NewStore(StoreOptions{
		HistoryCap:  opts.HistoryCap,
		RecordPolls: opts.RecordPolls,
		Logger:      opts.Logger,
	})

	return &Controller{
		store: store,
		router: &Router{
			ids:       ids,
			store:     store,
			invoker:   opts.Invoker,
			cli:       opts.CLI,
			timeout:   opts.Timeout,
			maxLength: opts.MaxInputLength,
			group:     g,
			ctx:       ctx,
			log:       opts.Logger,
		},
		scheduler: &Scheduler{
			interval: opts.Interval,
			timeout:  opts.Timeout,
			invoker:  opts.Invoker,
			cli:      opts.CLI,
			ids:      ids,
			store:    store,
			group:    g,
			log:      opts.Logger,
			status:   newPollTarget(StatusPoll, opts.CLI, opts.PollCommand),
			wallet:   newPollTarget(WalletPoll, opts.CLI, opts.WalletCommand),
		},
		group:  g,
		ctx:    ctx,
		cancel: cancel,
		log:    opts.Logger,
	}
}

// Start begins periodic polling. The first poll starts immediately.
func (c *Controller) Start() {
	c.startOnce.Do(func() {
		c.log.Info("polling every %s", c.scheduler.interval)
		c.group.Go(func() { c.scheduler.Run(c.ctx) })
	})
}

// Stop kills in-flight processes, waits for their goroutines and closes the
// store. The last published ViewModel stays readable.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() {
		c.cancel()
		c.group.Close()
		c.store.Close()
		c.log.Info("controller stopped")
	})
}

// Submit runs operator input; see Router.Submit.
func (c *Controller) Submit(raw string) (Invocation, error) {
	return c.router.Submit(raw)
}

// Refresh forces a poll now. It reports false when a status poll is
// already in flight.
func (c *Controller) Refresh() bool {
	return c.scheduler.Tick(c.ctx)
}

// Read returns the current view model without blocking.
func (c *Controller) Read() ViewModel {
	return c.store.Read()
}

// Changes signals when the view model changes.
func (c *Controller) Changes() <-chan struct{} {
	return c.store.Changes()
}

// Flush waits until all queued state changes are visible to Read.
func (c *Controller) Flush(ctx context.Context) error {
	return c.store.Flush(ctx)
}
