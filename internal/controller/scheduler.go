package controller

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/btcdash/internal/exec"
	"github.com/rileyhilliard/btcdash/internal/logger"
	"github.com/rileyhilliard/btcdash/internal/node"
)

// DefaultPollInterval is the status refresh cadence.
const DefaultPollInterval = 5 * time.Second

// pollTarget is one periodically polled command with its own in-flight guard.
type pollTarget struct {
	kind    Kind
	line    string
	command exec.Command
	busy    atomic.Bool
}

// Scheduler polls node status at a fixed interval. At most one status poll
// and one wallet poll are in flight at any time; a tick that finds a poll
// still running is skipped, not queued.
type Scheduler struct {
	interval time.Duration
	timeout  time.Duration
	invoker  exec.Invoker
	cli      *node.CLI
	ids      *IDSource
	store    *Store
	group    *group
	log      logger.Logger

	status *pollTarget
	wallet *pollTarget // nil when wallet polling is off
}

func newPollTarget(kind Kind, cli *node.CLI, line string) *pollTarget {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	return &pollTarget{kind: kind, line: line, command: cli.CommandLine(line)}
}

// Run polls immediately, then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	s.Tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick starts each poll that isn't already in flight. It reports whether a
// status poll was started. Forced refreshes go through here too.
func (s *Scheduler) Tick(ctx context.Context) bool {
	started := s.start(ctx, s.status)
	s.start(ctx, s.wallet)
	return started
}

// StatusInFlight reports whether a status poll is running.
func (s *Scheduler) StatusInFlight() bool {
	return s.status != nil && s.status.busy.Load()
}

func (s *Scheduler) start(ctx context.Context, target *pollTarget) bool {
	if target == nil {
		return false
	}
	if !target.busy.CompareAndSwap(false, true) {
		s.log.Debug("%s still in flight, skipping", target.kind)
		return false
	}

	inv := Invocation{
		ID:          s.ids.Next(),
		Command:     target.line,
		Method:      strings.Fields(target.line)[0],
		Kind:        target.kind,
		SubmittedAt: time.Now(),
	}
	s.store.RecordSubmission(inv)

	if !s.group.Go(func() { s.poll(ctx, target, inv.ID) }) {
		s.store.ApplyPollResult(PollResult{
			ID:      inv.ID,
			Kind:    target.kind,
			Outcome: node.Outcome{Kind: node.SpawnFailed, Reason: "controller stopped"},
		})
		target.busy.Store(false)
		return false
	}
	return true
}

// poll runs one poll and hands the outcome to the store. The guard is
// released only after the result is queued, so results land in order.
func (s *Scheduler) poll(ctx context.Context, target *pollTarget, id uint64) {
	defer target.busy.Store(false)

	res := s.invoker.Invoke(ctx, target.command, s.timeout)
	result := PollResult{ID: id, Kind: target.kind, CompletedAt: completedAt(res)}

	switch target.kind {
	case WalletPoll:
		result.Outcome, result.Wallet = node.ClassifyWallet(res)
	default:
		result.Outcome, result.Snapshot = node.ClassifyStatus(res)
	}
	result.Outcome = s.cli.RedactOutcome(result.Outcome)

	if !result.Outcome.OK() {
		s.log.Warn("%s %d: %s", target.kind, id, result.Outcome.Summary())
	}
	s.store.ApplyPollResult(result)
}
