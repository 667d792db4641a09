package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/btcdash/internal/logger"
	"github.com/rileyhilliard/btcdash/internal/node"
)

func newTestStore(t *testing.T, opts StoreOptions) *Store {
	t.Helper()
	s := NewStore(opts)
	t.Cleanup(s.Close)
	return s
}

func flushStore(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))
}

func operator(id uint64, method string) Invocation {
	return Invocation{ID: id, Command: method, Method: method, Kind: Operator, SubmittedAt: time.Now()}
}

func TestStore_EmptyModel(t *testing.T) {
	s := newTestStore(t, StoreOptions{})

	vm := s.Read()
	assert.Nil(t, vm.Snapshot)
	assert.Nil(t, vm.Wallet)
	assert.Empty(t, vm.History)
	assert.False(t, vm.Stale())
	assert.Equal(t, uint64(0), vm.Seq)
}

func TestStore_ApplyCommandResultIsIdempotent(t *testing.T) {
	s := newTestStore(t, StoreOptions{Logger: logger.Noop()})

	s.RecordSubmission(operator(1, "getblockcount"))
	flushStore(t, s)
	assert.Equal(t, 1, s.Read().InFlight)

	s.ApplyCommandResult(1, node.Outcome{Kind: node.Succeeded, Output: "800000"})
	flushStore(t, s)
	first := s.Read()

	s.ApplyCommandResult(1, node.Outcome{Kind: node.Failed, Output: "late duplicate", ExitCode: 1})
	s.ApplyCommandResult(1, node.Outcome{Kind: node.Succeeded, Output: "again"})
	flushStore(t, s)
	second := s.Read()

	assert.Equal(t, first, second)
	require.Len(t, second.History, 1)
	assert.Equal(t, Succeeded, second.History[0].Status)
	assert.Equal(t, "800000", second.History[0].Output())
	assert.Equal(t, 0, second.InFlight)
	assert.Nil(t, second.LastError)
}

func TestStore_UnknownResultIgnored(t *testing.T) {
	buf := logger.NewBufferLogger()
	s := newTestStore(t, StoreOptions{Logger: buf})

	s.ApplyCommandResult(42, node.Outcome{Kind: node.Succeeded})
	flushStore(t, s)

	assert.Equal(t, uint64(0), s.Read().Seq)
	assert.True(t, buf.Contains("invocation 42 ignored"))
}

func TestStore_HistoryCapEvictsOldest(t *testing.T) {
	s := newTestStore(t, StoreOptions{HistoryCap: 3})

	for id := uint64(1); id <= 5; id++ {
		s.RecordSubmission(operator(id, "uptime"))
		flushStore(t, s)
		assert.LessOrEqual(t, len(s.Read().History), 3)
	}

	vm := s.Read()
	require.Len(t, vm.History, 3)
	assert.Equal(t, []uint64{3, 4, 5}, historyIDs(vm))

	// Evicted invocations still complete, they just aren't listed.
	s.ApplyCommandResult(1, node.Outcome{Kind: node.Succeeded})
	flushStore(t, s)
	vm = s.Read()
	assert.Equal(t, 4, vm.InFlight)
	assert.Equal(t, []uint64{3, 4, 5}, historyIDs(vm))
}

func historyIDs(vm ViewModel) []uint64 {
	ids := make([]uint64, 0, len(vm.History))
	for _, inv := range vm.History {
		ids = append(ids, inv.ID)
	}
	return ids
}

func TestStore_ResultsAppliedInCompletionOrder(t *testing.T) {
	s := newTestStore(t, StoreOptions{})

	s.RecordSubmission(operator(1, "getblockcount"))
	s.RecordSubmission(operator(2, "getbestblockhash"))
	s.ApplyCommandResult(2, node.Outcome{Kind: node.Failed, Output: "second", ExitCode: 1})
	s.ApplyCommandResult(1, node.Outcome{Kind: node.Failed, Output: "first", ExitCode: 1})
	flushStore(t, s)

	vm := s.Read()
	require.NotNil(t, vm.LastError)
	assert.Equal(t, uint64(1), vm.LastError.ID, "last applied failure wins")
	assert.Equal(t, []uint64{1, 2}, historyIDs(vm), "history keeps submission order")
}

func TestStore_PollResult(t *testing.T) {
	s := newTestStore(t, StoreOptions{})
	fetched := time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)
	snap := node.Snapshot{Height: 800000, Connections: 8, Network: "main", Progress: 1, FetchedAt: fetched}

	s.RecordSubmission(Invocation{ID: 1, Command: "-getinfo", Method: "-getinfo", Kind: StatusPoll})
	flushStore(t, s)
	assert.True(t, s.Read().Polling())

	s.ApplyPollResult(PollResult{ID: 1, Kind: StatusPoll, Outcome: node.Outcome{Kind: node.Succeeded}, Snapshot: &snap})
	flushStore(t, s)

	vm := s.Read()
	require.NotNil(t, vm.Snapshot)
	assert.Equal(t, snap, *vm.Snapshot)
	assert.Equal(t, fetched, vm.LastSuccess)
	assert.False(t, vm.Polling())
	assert.Empty(t, vm.History)
}

func TestStore_PollFailuresAndBanner(t *testing.T) {
	s := newTestStore(t, StoreOptions{})
	snap := node.Snapshot{Height: 1, Connections: 1, Network: "regtest", Progress: 1}

	poll := func(id uint64, o node.Outcome, sn *node.Snapshot) {
		s.RecordSubmission(Invocation{ID: id, Command: "-getinfo", Method: "-getinfo", Kind: StatusPoll})
		s.ApplyPollResult(PollResult{ID: id, Kind: StatusPoll, Outcome: o, Snapshot: sn})
		flushStore(t, s)
	}

	poll(1, node.Outcome{Kind: node.Succeeded}, &snap)
	poll(2, node.Outcome{Kind: node.SpawnFailed, Reason: "fork/exec bitcoin-cli: no such file or directory"}, nil)

	vm := s.Read()
	assert.Equal(t, 1, vm.PollFailures)
	assert.Contains(t, vm.Banner, "no such file or directory")
	assert.Equal(t, snap, *vm.Snapshot)

	poll(3, node.Outcome{Kind: node.TimedOut, Reason: "no response within 10s, process killed"}, nil)
	vm = s.Read()
	assert.Equal(t, 2, vm.PollFailures)
	assert.NotEmpty(t, vm.Banner, "banner persists until a poll succeeds")
	assert.Equal(t, node.TimedOut, vm.LastError.Outcome.Kind)

	poll(4, node.Outcome{Kind: node.Succeeded}, &snap)
	vm = s.Read()
	assert.Equal(t, 0, vm.PollFailures)
	assert.Empty(t, vm.Banner)
	assert.False(t, vm.Stale())
}

func TestStore_PollResultIsAtomic(t *testing.T) {
	s := newTestStore(t, StoreOptions{})

	// Poll n produces a snapshot at height n. A reader must never see a
	// finished poll without its snapshot, nor a snapshot from a poll that
	// still looks pending.
	consistent := func(vm ViewModel) bool {
		if vm.LastPoll == nil {
			return vm.Snapshot == nil
		}
		want := int64(vm.LastPoll.ID)
		if !vm.LastPoll.Done() {
			want--
		}
		if want == 0 {
			return vm.Snapshot == nil
		}
		return vm.Snapshot != nil && vm.Snapshot.Height == want
	}

	stop := make(chan struct{})
	violations := 0
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if !consistent(s.Read()) {
				violations++
			}
		}
	}()

	for id := uint64(1); id <= 50; id++ {
		snap := node.Snapshot{Height: int64(id), Connections: 1, Network: "main", Progress: 1}
		s.RecordSubmission(Invocation{ID: id, Command: "-getinfo", Kind: StatusPoll})
		s.ApplyPollResult(PollResult{ID: id, Kind: StatusPoll, Outcome: node.Outcome{Kind: node.Succeeded}, Snapshot: &snap})
	}
	flushStore(t, s)
	close(stop)
	wg.Wait()

	assert.Equal(t, 0, violations)
	vm := s.Read()
	assert.True(t, consistent(vm))
	assert.Equal(t, int64(50), vm.Snapshot.Height)
}

func TestStore_WalletPoll(t *testing.T) {
	s := newTestStore(t, StoreOptions{RecordPolls: true})

	s.RecordSubmission(Invocation{ID: 1, Command: "getwalletinfo", Method: "getwalletinfo", Kind: WalletPoll})
	s.ApplyPollResult(PollResult{ID: 1, Kind: WalletPoll, Outcome: node.Outcome{Kind: node.Failed, ExitCode: 18, Output: "error code: -18"}})
	flushStore(t, s)

	vm := s.Read()
	assert.Nil(t, vm.Wallet)
	assert.Equal(t, "exit 18: error code: -18", vm.WalletError)
	assert.Equal(t, 0, vm.PollFailures)
	require.Len(t, vm.History, 1)
	assert.Equal(t, Failed, vm.History[0].Status)

	w := node.WalletSnapshot{Name: "hodl", Balance: 1.5}
	s.RecordSubmission(Invocation{ID: 2, Command: "getwalletinfo", Method: "getwalletinfo", Kind: WalletPoll})
	s.ApplyPollResult(PollResult{ID: 2, Kind: WalletPoll, Outcome: node.Outcome{Kind: node.Succeeded}, Wallet: &w})
	flushStore(t, s)

	vm = s.Read()
	require.NotNil(t, vm.Wallet)
	assert.Equal(t, w, *vm.Wallet)
	assert.Empty(t, vm.WalletError)
}

func TestStore_BannerSources(t *testing.T) {
	spawnFailed := node.Outcome{Kind: node.SpawnFailed, Reason: "fork/exec bitcoin-cli: no such file or directory"}
	tests := []struct {
		name       string
		inv        Invocation
		wantBanner bool
	}{
		{"status poll", Invocation{ID: 1, Command: "-getinfo", Method: "-getinfo", Kind: StatusPoll}, true},
		{"operator command", operator(1, "uptime"), true},
		{"wallet poll", Invocation{ID: 1, Command: "getwalletinfo", Method: "getwalletinfo", Kind: WalletPoll}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, StoreOptions{})
			s.RecordSubmission(tt.inv)
			if tt.inv.Kind == Operator {
				s.ApplyCommandResult(tt.inv.ID, spawnFailed)
			} else {
				s.ApplyPollResult(PollResult{ID: tt.inv.ID, Kind: tt.inv.Kind, Outcome: spawnFailed})
			}
			flushStore(t, s)

			vm := s.Read()
			if tt.wantBanner {
				assert.Contains(t, vm.Banner, "no such file or directory")
			} else {
				assert.Empty(t, vm.Banner)
				assert.Contains(t, vm.WalletError, "no such file or directory")
				assert.Equal(t, 0, vm.PollFailures)
			}
		})
	}
}

func TestStore_ReadIsImmutable(t *testing.T) {
	s := newTestStore(t, StoreOptions{})

	s.RecordSubmission(operator(1, "uptime"))
	flushStore(t, s)
	before := s.Read()

	s.ApplyCommandResult(1, node.Outcome{Kind: node.Succeeded, Output: "42"})
	flushStore(t, s)

	require.Len(t, before.History, 1)
	assert.Equal(t, Pending, before.History[0].Status)
	assert.Equal(t, Succeeded, s.Read().History[0].Status)
}

func TestStore_ChangesCoalesce(t *testing.T) {
	s := newTestStore(t, StoreOptions{})

	for id := uint64(1); id <= 10; id++ {
		s.RecordSubmission(operator(id, "uptime"))
	}
	flushStore(t, s)

	select {
	case <-s.Changes():
	default:
		t.Fatal("expected a change notification")
	}
	select {
	case <-s.Changes():
		t.Fatal("notifications should coalesce")
	default:
	}
	assert.Equal(t, uint64(10), s.Read().Seq)
}

func TestStore_ConcurrentWriters(t *testing.T) {
	s := newTestStore(t, StoreOptions{HistoryCap: 1000})
	ids := &IDSource{}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				id := ids.Next()
				s.RecordSubmission(operator(id, "uptime"))
				s.ApplyCommandResult(id, node.Outcome{Kind: node.Succeeded})
			}
		}()
	}
	wg.Wait()
	flushStore(t, s)

	vm := s.Read()
	assert.Len(t, vm.History, 400)
	assert.Equal(t, 0, vm.InFlight)
	for _, inv := range vm.History {
		assert.Equal(t, Succeeded, inv.Status)
	}
}

func TestStore_FlushAfterClose(t *testing.T) {
	s := NewStore(StoreOptions{})
	s.Close()
	s.Close()

	assert.ErrorIs(t, s.Flush(context.Background()), ErrStoreClosed)

	s.RecordSubmission(operator(1, "uptime"))
	assert.Empty(t, s.Read().History)
}
