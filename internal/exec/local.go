package exec

import (
	"context"
	stderrors "errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/rileyhilliard/btcdash/internal/logger"
)

// waitDelay bounds how long Wait lingers on output pipes held open by
// grandchildren after the process itself is gone.
const waitDelay = time.Second

// LocalInvoker runs commands as child processes of btcdash.
type LocalInvoker struct {
	// MaxOutput overrides MaxOutputBytes per stream when positive.
	MaxOutput int

	log logger.Logger
}

// NewLocalInvoker creates an invoker that logs through log (nil means discard).
func NewLocalInvoker(log logger.Logger) *LocalInvoker {
	if log == nil {
		log = logger.Noop()
	}
	return &LocalInvoker{log: log}
}

// Invoke starts c, waits up to timeout, and kills the process (and its
// process group on unix) if the deadline passes or ctx is cancelled.
func (l *LocalInvoker) Invoke(ctx context.Context, c Command, timeout time.Duration) (res Result) {
	log := l.log
	if log == nil {
		log = logger.Noop()
	}
	res.StartedAt = time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = Result{Kind: SpawnFailed, ExitCode: -1, Reason: fmt.Sprintf("internal error: %v", r), StartedAt: res.StartedAt}
		}
		res.FinishedAt = time.Now()
		log.Debug("%s -> %s (exit %d) in %s", c, res.Kind, res.ExitCode, res.FinishedAt.Sub(res.StartedAt))
	}()

	if c.Binary == "" {
		return Result{Kind: SpawnFailed, ExitCode: -1, Reason: "no executable configured", StartedAt: res.StartedAt}
	}

	timeout = effectiveTimeout(timeout)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout := newCappedBuffer(l.MaxOutput)
	stderr := newCappedBuffer(l.MaxOutput)

	cmd := exec.CommandContext(runCtx, c.Binary, c.Args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	configureKill(cmd)

	if err := cmd.Start(); err != nil {
		return Result{Kind: SpawnFailed, ExitCode: -1, Reason: err.Error(), StartedAt: res.StartedAt}
	}

	err := cmd.Wait()

	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	res.Truncated = stdout.truncated || stderr.truncated

	var exitErr *exec.ExitError
	switch {
	case err != nil && runCtx.Err() != nil:
		res.Kind = TimedOut
		res.ExitCode = -1
		res.Reason = timeoutReason(ctx, timeout)
	case err == nil:
		res.Kind = Completed
	case stderrors.As(err, &exitErr):
		res.Kind = Completed
		res.ExitCode = exitErr.ExitCode()
	case stderrors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil:
		res.Kind = Completed
		res.ExitCode = cmd.ProcessState.ExitCode()
	default:
		res.Kind = SpawnFailed
		res.ExitCode = -1
		res.Reason = err.Error()
	}
	return res
}
