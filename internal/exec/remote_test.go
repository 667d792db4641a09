package exec

import (
	"context"
	stderrors "errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rileyhilliard/btcdash/internal/errors"
	"github.com/rileyhilliard/btcdash/pkg/sshutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu     sync.Mutex
	lines  []string
	closed int
	run    func(ctx context.Context, cmd string, stdout, stderr io.Writer) (int, error)
}

func (f *fakeRunner) Run(ctx context.Context, cmd string, stdout, stderr io.Writer) (int, error) {
	f.mu.Lock()
	f.lines = append(f.lines, cmd)
	f.mu.Unlock()
	return f.run(ctx, cmd, stdout, stderr)
}

func (f *fakeRunner) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeRunner) GetHost() string { return "node" }

func dialTo(r *fakeRunner, dials *int32) DialFunc {
	return func(context.Context, string, time.Duration) (sshutil.Runner, error) {
		atomic.AddInt32(dials, 1)
		return r, nil
	}
}

func TestRemoteInvoker_QuotesArgumentsAndReusesConnection(t *testing.T) {
	runner := &fakeRunner{run: func(_ context.Context, _ string, stdout, _ io.Writer) (int, error) {
		_, _ = io.WriteString(stdout, `{"blocks": 1}`)
		return 0, nil
	}}
	var dials int32
	inv := NewRemoteInvoker("node", dialTo(runner, &dials), nil)

	res := inv.Invoke(context.Background(), Command{Binary: "bitcoin-cli", Args: []string{"getblock", "a b", "it's"}}, time.Second)
	require.Equal(t, Completed, res.Kind)
	assert.Equal(t, `{"blocks": 1}`, res.Stdout)

	inv.Invoke(context.Background(), Command{Binary: "bitcoin-cli", Args: []string{"uptime"}}, time.Second)

	assert.Equal(t, int32(1), atomic.LoadInt32(&dials))
	require.Len(t, runner.lines, 2)
	assert.Equal(t, `bitcoin-cli getblock 'a b' 'it'\''s'`, runner.lines[0])
	assert.Equal(t, "bitcoin-cli uptime", runner.lines[1])
}

func TestRemoteInvoker_NonZeroExit(t *testing.T) {
	runner := &fakeRunner{run: func(_ context.Context, _ string, _, stderr io.Writer) (int, error) {
		_, _ = io.WriteString(stderr, "error code: -18\nRequested wallet does not exist or is not loaded")
		return 18, nil
	}}
	var dials int32
	res := NewRemoteInvoker("node", dialTo(runner, &dials), nil).
		Invoke(context.Background(), Command{Binary: "bitcoin-cli", Args: []string{"getwalletinfo"}}, time.Second)

	assert.Equal(t, Completed, res.Kind)
	assert.Equal(t, 18, res.ExitCode)
	assert.Contains(t, res.Stderr, "not loaded")
}

func TestRemoteInvoker_MissingBinaryIsSpawnFailed(t *testing.T) {
	runner := &fakeRunner{run: func(_ context.Context, _ string, _, stderr io.Writer) (int, error) {
		_, _ = io.WriteString(stderr, "bash: bitcoin-cli: command not found\n")
		return 127, nil
	}}
	var dials int32
	res := NewRemoteInvoker("node", dialTo(runner, &dials), nil).
		Invoke(context.Background(), Command{Binary: "bitcoin-cli"}, time.Second)

	assert.Equal(t, SpawnFailed, res.Kind)
	assert.Equal(t, "bitcoin-cli not found on node", res.Reason)
}

func TestRemoteInvoker_DialFailureRedialsNextTime(t *testing.T) {
	var dials int32
	inv := NewRemoteInvoker("node", func(context.Context, string, time.Duration) (sshutil.Runner, error) {
		atomic.AddInt32(&dials, 1)
		return nil, errors.WrapWithCode(stderrors.New("connection refused"), errors.ErrSSH, "Can't reach 'node'", "")
	}, nil)

	res := inv.Invoke(context.Background(), Command{Binary: "bitcoin-cli"}, time.Second)
	assert.Equal(t, SpawnFailed, res.Kind)
	assert.Equal(t, "Can't reach 'node': connection refused", res.Reason)

	inv.Invoke(context.Background(), Command{Binary: "bitcoin-cli"}, time.Second)
	assert.Equal(t, int32(2), atomic.LoadInt32(&dials))
}

func TestRemoteInvoker_SessionFailureDropsConnection(t *testing.T) {
	runner := &fakeRunner{run: func(context.Context, string, io.Writer, io.Writer) (int, error) {
		return -1, stderrors.New("EOF")
	}}
	var dials int32
	inv := NewRemoteInvoker("node", dialTo(runner, &dials), nil)

	res := inv.Invoke(context.Background(), Command{Binary: "bitcoin-cli"}, time.Second)
	assert.Equal(t, SpawnFailed, res.Kind)
	assert.Equal(t, "EOF", res.Reason)
	assert.Equal(t, 1, runner.closed)

	inv.Invoke(context.Background(), Command{Binary: "bitcoin-cli"}, time.Second)
	assert.Equal(t, int32(2), atomic.LoadInt32(&dials))
}

func TestRemoteInvoker_Timeout(t *testing.T) {
	runner := &fakeRunner{run: func(ctx context.Context, _ string, _, _ io.Writer) (int, error) {
		<-ctx.Done()
		return -1, ctx.Err()
	}}
	var dials int32
	res := NewRemoteInvoker("node", dialTo(runner, &dials), nil).
		Invoke(context.Background(), Command{Binary: "bitcoin-cli"}, 50*time.Millisecond)

	assert.Equal(t, TimedOut, res.Kind)
	assert.Equal(t, -1, res.ExitCode)
	assert.Contains(t, res.Reason, "50ms")
}

func TestRemoteInvoker_Close(t *testing.T) {
	runner := &fakeRunner{run: func(context.Context, string, io.Writer, io.Writer) (int, error) { return 0, nil }}
	var dials int32
	inv := NewRemoteInvoker("node", dialTo(runner, &dials), nil)

	require.NoError(t, inv.Close())
	inv.Invoke(context.Background(), Command{Binary: "bitcoin-cli"}, time.Second)
	require.NoError(t, inv.Close())

	assert.Equal(t, 1, runner.closed)
}

// gatedDial blocks every dial until gate is closed and reports each start.
func gatedDial(r *fakeRunner, dials *int32, started chan<- struct{}, gate <-chan struct{}) DialFunc {
	return func(context.Context, string, time.Duration) (sshutil.Runner, error) {
		atomic.AddInt32(dials, 1)
		started <- struct{}{}
		<-gate
		return r, nil
	}
}

func okRunner() *fakeRunner {
	return &fakeRunner{run: func(_ context.Context, _ string, stdout, _ io.Writer) (int, error) {
		_, _ = io.WriteString(stdout, "ok")
		return 0, nil
	}}
}

func TestRemoteInvoker_ConcurrentInvokesShareDial(t *testing.T) {
	runner := okRunner()
	var dials int32
	started := make(chan struct{}, 2)
	gate := make(chan struct{})
	inv := NewRemoteInvoker("node", gatedDial(runner, &dials, started, gate), nil)

	results := make([]Result, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = inv.Invoke(context.Background(), Command{Binary: "bitcoin-cli", Args: []string{"uptime"}}, 5*time.Second)
		}(i)
	}

	<-started
	close(gate)
	wg.Wait()

	for _, res := range results {
		assert.Equal(t, Completed, res.Kind)
		assert.Equal(t, "ok", res.Stdout)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&dials))
}

func TestRemoteInvoker_WaitingCallerKeepsItsOwnTimeout(t *testing.T) {
	runner := okRunner()
	var dials int32
	started := make(chan struct{}, 1)
	gate := make(chan struct{})
	inv := NewRemoteInvoker("node", gatedDial(runner, &dials, started, gate), nil)

	first := make(chan Result, 1)
	go func() {
		first <- inv.Invoke(context.Background(), Command{Binary: "bitcoin-cli", Args: []string{"-getinfo"}}, 5*time.Second)
	}()
	<-started

	begin := time.Now()
	res := inv.Invoke(context.Background(), Command{Binary: "bitcoin-cli", Args: []string{"uptime"}}, 50*time.Millisecond)
	assert.Equal(t, TimedOut, res.Kind)
	assert.Less(t, time.Since(begin), time.Second)

	close(gate)
	assert.Equal(t, Completed, (<-first).Kind)
	assert.Equal(t, int32(1), atomic.LoadInt32(&dials))
}

func TestRemoteInvoker_CloseDuringDial(t *testing.T) {
	runner := okRunner()
	var dials int32
	started := make(chan struct{}, 1)
	gate := make(chan struct{})
	inv := NewRemoteInvoker("node", gatedDial(runner, &dials, started, gate), nil)

	first := make(chan Result, 1)
	go func() {
		first <- inv.Invoke(context.Background(), Command{Binary: "bitcoin-cli"}, 5*time.Second)
	}()
	<-started

	closed := make(chan error, 1)
	go func() { closed <- inv.Close() }()
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close blocked behind a dial in progress")
	}

	close(gate)
	res := <-first
	assert.Equal(t, SpawnFailed, res.Kind)
	assert.Equal(t, "connection to node closed", res.Reason)

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Equal(t, 1, runner.closed)
	assert.Empty(t, runner.lines)
}
