package controller

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rileyhilliard/btcdash/internal/exec"
	"github.com/rileyhilliard/btcdash/internal/logger"
	"github.com/rileyhilliard/btcdash/internal/node"
)

// ErrStoreClosed is returned by Flush once the store has shut down.
var ErrStoreClosed = stderrors.New("view-model store is closed")

const inboxSize = 256

// ViewModel is the consistent state the dashboard renders. Values returned
// by Store.Read are never modified afterwards.
type ViewModel struct {
	// Snapshot is the latest successfully parsed status, nil until the first one.
	Snapshot *node.Snapshot
	// LastSuccess is when Snapshot was fetched.
	LastSuccess time.Time

	Wallet      *node.WalletSnapshot
	WalletError string

	// History holds recorded invocations, oldest first.
	History []Invocation

	// LastError is the most recent failed operator command or status poll.
	LastError *Invocation

	// Banner is set when the control interface couldn't be started and stays
	// until a status poll succeeds.
	Banner string

	// PollFailures counts failed status polls since the last successful one.
	PollFailures int
	// LastPoll is the most recent status poll, pending or finished.
	LastPoll *Invocation

	// InFlight is the number of pending operator commands.
	InFlight int

	// Seq increases with every applied change.
	Seq uint64
}

// Stale reports whether the shown snapshot is older than the latest poll attempt.
func (vm ViewModel) Stale() bool {
	return vm.PollFailures > 0
}

// Polling reports whether a status poll is in flight.
func (vm ViewModel) Polling() bool {
	return vm.LastPoll != nil && !vm.LastPoll.Done()
}

// Find looks up a recorded invocation.
func (vm ViewModel) Find(id uint64) (Invocation, bool) {
	for i := len(vm.History) - 1; i >= 0; i-- {
		if vm.History[i].ID == id {
			return vm.History[i], true
		}
	}
	return Invocation{}, false
}

// PollResult is a finished poll, applied as one event so that the outcome
// and the snapshot it produced become visible together.
type PollResult struct {
	ID          uint64
	Kind        Kind
	Outcome     node.Outcome
	Snapshot    *node.Snapshot
	Wallet      *node.WalletSnapshot
	CompletedAt time.Time
}

// StoreOptions configures a Store.
type StoreOptions struct {
	HistoryCap int
	// RecordPolls adds status and wallet polls to History.
	RecordPolls bool
	Logger      logger.Logger
}

// Store is the single writer of view-model state. Mutations are queued on a
// FIFO inbox and applied in order by one goroutine, which then publishes a
// fresh ViewModel. Read is a lock-free load.
type Store struct {
	inbox   chan event
	current atomic.Pointer[ViewModel]
	changes chan struct{}

	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	log logger.Logger

	// Owned by the drain goroutine.
	state storeState
}

type storeState struct {
	recordPolls bool
	history     *history
	pending     map[uint64]Invocation
	vm          ViewModel
}

// NewStore creates a store and starts its drain goroutine. Call Close to stop it.
func NewStore(opts StoreOptions) *Store {
	log := opts.Logger
	if log == nil {
		log = logger.Noop()
	}
	s := &Store{
		inbox:   make(chan event, inboxSize),
		changes: make(chan struct{}, 1),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
		log:     log,
		state: storeState{
			recordPolls: opts.RecordPolls,
			history:     newHistory(opts.HistoryCap),
			pending:     make(map[uint64]Invocation),
		},
	}
	s.current.Store(&ViewModel{})
	go s.drain()
	return s
}

// Read returns the latest published view model. It never blocks.
func (s *Store) Read() ViewModel {
	return *s.current.Load()
}

// Changes signals after new state is published. Bursts are coalesced into
// one notification; receivers should Read after each signal.
func (s *Store) Changes() <-chan struct{} {
	return s.changes
}

// RecordSubmission adds a Pending invocation.
func (s *Store) RecordSubmission(inv Invocation) {
	s.send(submitEvent{inv: inv})
}

// ApplySnapshot replaces the snapshot outside of any poll.
func (s *Store) ApplySnapshot(snap node.Snapshot) {
	s.send(snapshotEvent{snap: snap})
}

// ApplyCommandResult completes invocation id. Results for ids that are
// unknown or already complete are ignored, so repeated calls are harmless.
func (s *Store) ApplyCommandResult(id uint64, o node.Outcome) {
	s.send(resultEvent{id: id, outcome: o, at: time.Now()})
}

// ApplyPollResult completes a poll and applies its snapshot in one step.
func (s *Store) ApplyPollResult(r PollResult) {
	if r.CompletedAt.IsZero() {
		r.CompletedAt = time.Now()
	}
	s.send(pollEvent{result: r})
}

// Flush waits until every event sent before the call has been applied.
func (s *Store) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !s.send(flushEvent{done: done}) {
		return ErrStoreClosed
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrStoreClosed
	}
}

// Close stops the drain goroutine. Events sent afterwards are dropped.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.stopped
}

func (s *Store) send(e event) bool {
	select {
	case <-s.quit:
		return false
	default:
	}
	select {
	case s.inbox <- e:
		return true
	case <-s.quit:
		return false
	}
}

func (s *Store) drain() {
	defer close(s.stopped)
	for {
		select {
		case e := <-s.inbox:
			if e.apply(&s.state, s.log) {
				s.publish()
			}
		case <-s.quit:
			return
		}
	}
}

func (s *Store) publish() {
	st := &s.state
	st.vm.Seq++
	vm := st.vm
	vm.History = st.history.list()
	s.current.Store(&vm)

	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// event is one queued mutation. apply reports whether state changed.
type event interface {
	apply(st *storeState, log logger.Logger) bool
}

type submitEvent struct {
	inv Invocation
}

func (e submitEvent) apply(st *storeState, log logger.Logger) bool {
	inv := e.inv
	if _, dup := st.pending[inv.ID]; dup {
		log.Warn("duplicate submission for invocation %d ignored", inv.ID)
		return false
	}
	inv.Status = Pending
	st.pending[inv.ID] = inv

	switch inv.Kind {
	case Operator:
		st.vm.InFlight++
		st.history.push(inv)
	case StatusPoll:
		st.vm.LastPoll = &inv
		if st.recordPolls {
			st.history.push(inv)
		}
	case WalletPoll:
		if st.recordPolls {
			st.history.push(inv)
		}
	}
	return true
}

type snapshotEvent struct {
	snap node.Snapshot
}

func (e snapshotEvent) apply(st *storeState, _ logger.Logger) bool {
	st.applySnapshot(e.snap)
	return true
}

type resultEvent struct {
	id      uint64
	outcome node.Outcome
	at      time.Time
}

func (e resultEvent) apply(st *storeState, log logger.Logger) bool {
	inv, ok := st.complete(e.id, e.outcome, e.at)
	if !ok {
		log.Debug("result for invocation %d ignored: unknown or already complete", e.id)
		return false
	}
	st.afterCompletion(inv)
	return true
}

type pollEvent struct {
	result PollResult
}

func (e pollEvent) apply(st *storeState, log logger.Logger) bool {
	r := e.result
	inv, ok := st.complete(r.ID, r.Outcome, r.CompletedAt)
	if !ok {
		log.Debug("poll result %d ignored: unknown or already complete", r.ID)
		return false
	}

	switch r.Kind {
	case WalletPoll:
		if r.Outcome.OK() && r.Wallet != nil {
			w := *r.Wallet
			st.vm.Wallet = &w
			st.vm.WalletError = ""
		} else {
			st.vm.WalletError = r.Outcome.Summary()
		}
		return true
	default:
		if r.Outcome.OK() && r.Snapshot != nil {
			st.applySnapshot(*r.Snapshot)
		}
	}
	st.afterCompletion(inv)
	return true
}

type flushEvent struct {
	done chan struct{}
}

func (e flushEvent) apply(*storeState, logger.Logger) bool {
	close(e.done)
	return false
}

// complete moves a pending invocation to its terminal state exactly once.
func (st *storeState) complete(id uint64, o node.Outcome, at time.Time) (Invocation, bool) {
	pending, ok := st.pending[id]
	if !ok {
		return Invocation{}, false
	}
	inv, ok := pending.complete(o, at)
	if !ok {
		return Invocation{}, false
	}
	delete(st.pending, id)
	st.history.replace(inv)
	return inv, true
}

func (st *storeState) applySnapshot(snap node.Snapshot) {
	st.vm.Snapshot = &snap
	st.vm.LastSuccess = snap.FetchedAt
	st.vm.PollFailures = 0
	st.vm.Banner = ""
}

// afterCompletion updates the derived fields for a finished operator
// command or status poll.
func (st *storeState) afterCompletion(inv Invocation) {
	switch inv.Kind {
	case Operator:
		st.vm.InFlight--
	case StatusPoll:
		st.vm.LastPoll = &inv
		if inv.Status == Failed {
			st.vm.PollFailures++
		}
	}

	if inv.Status != Failed {
		return
	}
	st.vm.LastError = &inv
	if inv.Outcome.Kind == node.SpawnFailed {
		st.vm.Banner = bannerText(inv)
	}
}

func bannerText(inv Invocation) string {
	text := "Can't run the node control interface: " + inv.Outcome.Reason
	if inv.Hint != "" {
		text += " " + inv.Hint
	}
	return text
}

// completedAt is when r finished, falling back to now for synthetic results.
func completedAt(r exec.Result) time.Time {
	if r.FinishedAt.IsZero() {
		return time.Now()
	}
	return r.FinishedAt
}
