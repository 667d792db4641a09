package exec

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/rileyhilliard/btcdash/internal/errors"
	"github.com/rileyhilliard/btcdash/internal/logger"
	"github.com/rileyhilliard/btcdash/internal/util"
	"github.com/rileyhilliard/btcdash/pkg/sshutil"
)

// DialFunc opens a connection to the node host.
type DialFunc func(ctx context.Context, host string, timeout time.Duration) (sshutil.Runner, error)

// RemoteInvoker runs the control interface on the node's host over SSH.
// One connection is shared by all invocations and re-dialled after it breaks.
type RemoteInvoker struct {
	Host string

	// MaxOutput overrides MaxOutputBytes per stream when positive.
	MaxOutput int

	dial DialFunc
	log  logger.Logger

	mu      sync.Mutex
	runner  sshutil.Runner
	pending *pendingDial
}

// pendingDial is a connection attempt that concurrent invocations share.
type pendingDial struct {
	done   chan struct{}
	runner sshutil.Runner
	err    error
}

// NewRemoteInvoker creates an invoker for host. A nil dial uses sshutil.Dial.
func NewRemoteInvoker(host string, dial DialFunc, log logger.Logger) *RemoteInvoker {
	if dial == nil {
		dial = func(ctx context.Context, host string, timeout time.Duration) (sshutil.Runner, error) {
			return sshutil.Dial(ctx, host, timeout)
		}
	}
	if log == nil {
		log = logger.Noop()
	}
	return &RemoteInvoker{Host: host, dial: dial, log: log}
}

// Invoke quotes every argument for the remote shell and runs the command line.
// Dial and session failures and a missing remote binary are SpawnFailed.
func (r *RemoteInvoker) Invoke(ctx context.Context, c Command, timeout time.Duration) (res Result) {
	res.StartedAt = time.Now()
	defer func() {
		if p := recover(); p != nil {
			res = Result{Kind: SpawnFailed, ExitCode: -1, Reason: fmt.Sprintf("internal error: %v", p), StartedAt: res.StartedAt}
		}
		res.FinishedAt = time.Now()
		r.log.Debug("[%s] %s -> %s (exit %d)", r.Host, c, res.Kind, res.ExitCode)
	}()

	if c.Binary == "" {
		return Result{Kind: SpawnFailed, ExitCode: -1, Reason: "no executable configured", StartedAt: res.StartedAt}
	}

	timeout = effectiveTimeout(timeout)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	runner, err := r.connect(runCtx, timeout)
	if err != nil {
		if runCtx.Err() != nil {
			return Result{Kind: TimedOut, ExitCode: -1, Reason: timeoutReason(ctx, timeout), StartedAt: res.StartedAt}
		}
		return Result{Kind: SpawnFailed, ExitCode: -1, Reason: describe(err), StartedAt: res.StartedAt}
	}

	stdout := newCappedBuffer(r.MaxOutput)
	stderr := newCappedBuffer(r.MaxOutput)
	line := util.ShellJoin(append([]string{c.Binary}, c.Args...))

	code, err := runner.Run(runCtx, line, stdout, stderr)

	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	res.Truncated = stdout.truncated || stderr.truncated
	res.ExitCode = code

	switch {
	case err != nil && runCtx.Err() != nil:
		res.Kind = TimedOut
		res.ExitCode = -1
		res.Reason = timeoutReason(ctx, timeout)
	case err != nil:
		r.drop(runner)
		res.Kind = SpawnFailed
		res.ExitCode = -1
		res.Reason = describe(err)
	default:
		if name, missing := IsCommandNotFound(res.Stderr, code); missing {
			if name == "" {
				name = c.Binary
			}
			res.Kind = SpawnFailed
			res.Reason = fmt.Sprintf("%s not found on %s", name, r.Host)
			return res
		}
		res.Kind = Completed
	}
	return res
}

// Close drops the shared connection. A dial still in progress is closed as
// soon as it completes.
func (r *RemoteInvoker) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
	if r.runner == nil {
		return nil
	}
	err := r.runner.Close()
	r.runner = nil
	return err
}

// connect returns the shared connection, joining the dial in progress when
// there is one. The lock is never held across a dial, so a caller only waits
// for the dial itself, and gives up when ctx ends.
func (r *RemoteInvoker) connect(ctx context.Context, timeout time.Duration) (sshutil.Runner, error) {
	r.mu.Lock()
	if r.runner != nil {
		runner := r.runner
		r.mu.Unlock()
		return runner, nil
	}
	p := r.pending
	if p == nil {
		p = &pendingDial{done: make(chan struct{})}
		r.pending = p
		go r.dialShared(p, timeout)
	}
	r.mu.Unlock()

	select {
	case <-p.done:
		return p.runner, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// dialShared runs one dial for every caller waiting on p. It is bounded by
// timeout rather than by any single caller's context.
func (r *RemoteInvoker) dialShared(p *pendingDial, timeout time.Duration) {
	var (
		runner sshutil.Runner
		err    error
	)
	defer func() {
		if v := recover(); v != nil {
			runner, err = nil, fmt.Errorf("dial %s: %v", r.Host, v)
		}

		r.mu.Lock()
		switch {
		case r.pending != p:
			if runner != nil {
				_ = runner.Close()
			}
			if err == nil {
				err = fmt.Errorf("connection to %s closed", r.Host)
			}
			runner = nil
		case err == nil:
			r.pending = nil
			r.runner = runner
			r.log.Info("connected to node host %s", r.Host)
		default:
			r.pending = nil
		}
		r.mu.Unlock()

		p.runner, p.err = runner, err
		close(p.done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	runner, err = r.dial(ctx, r.Host, timeout)
}

// drop forgets a broken connection so the next invocation re-dials.
func (r *RemoteInvoker) drop(runner sshutil.Runner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runner == runner {
		_ = r.runner.Close()
		r.runner = nil
	}
}

// describe flattens an error into a single line for Result.Reason.
func describe(err error) string {
	var dashErr *errors.Error
	if stderrors.As(err, &dashErr) {
		if dashErr.Cause != nil {
			return dashErr.Message + ": " + dashErr.Cause.Error()
		}
		return dashErr.Message
	}
	return err.Error()
}
