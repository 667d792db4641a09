// Package exec runs the node's control interface and reports what happened.
//
// Every call produces exactly one Result; failures to start, non-zero exits
// and timeouts are all values, never errors or panics.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/btcdash/internal/util"
)

const (
	// DefaultTimeout applies when Invoke is given a non-positive timeout.
	DefaultTimeout = 10 * time.Second
	// MaxOutputBytes caps each captured stream.
	MaxOutputBytes = 1 << 20
)

// Command is an executable plus its discrete arguments. Arguments are never
// joined into a shell string for local execution.
type Command struct {
	Binary string
	Args   []string

	// Mask lists secret values replaced by *** in String.
	Mask []string
}

// String renders the command line for logs and the UI, with secrets masked.
func (c Command) String() string {
	s := util.ShellJoin(append([]string{c.Binary}, c.Args...))
	for _, m := range c.Mask {
		if m != "" {
			s = strings.ReplaceAll(s, m, "***")
		}
	}
	return s
}

// Kind tags how an invocation ended.
type Kind int

const (
	// Completed means the process ran and exited; see ExitCode.
	Completed Kind = iota
	// TimedOut means the deadline passed (or the caller cancelled) and the process was killed.
	TimedOut
	// SpawnFailed means no process ran: missing binary, permissions, unreachable host.
	SpawnFailed
)

func (k Kind) String() string {
	switch k {
	case Completed:
		return "completed"
	case TimedOut:
		return "timed out"
	case SpawnFailed:
		return "spawn failed"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Result describes one finished invocation.
type Result struct {
	Kind     Kind
	ExitCode int
	Stdout   string
	Stderr   string

	// Reason explains TimedOut and SpawnFailed results.
	Reason string

	// Truncated is set when either stream hit MaxOutputBytes.
	Truncated bool

	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is how long the invocation took.
func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Invoker runs one command to completion, bounded by timeout and ctx.
// Implementations must be safe for concurrent use.
type Invoker interface {
	Invoke(ctx context.Context, c Command, timeout time.Duration) Result
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, c Command, timeout time.Duration) Result

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, c Command, timeout time.Duration) Result {
	return f(ctx, c, timeout)
}

// cappedBuffer keeps the first limit bytes and silently drops the rest, so a
// chatty process never blocks on a full pipe.
type cappedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newCappedBuffer(limit int) *cappedBuffer {
	if limit <= 0 {
		limit = MaxOutputBytes
	}
	return &cappedBuffer{limit: limit}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	room := b.limit - b.buf.Len()
	if len(p) > room {
		if room > 0 {
			b.buf.Write(p[:room])
		}
		b.truncated = true
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}

func effectiveTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultTimeout
	}
	return timeout
}

// timeoutReason words a TimedOut result depending on who ended it.
func timeoutReason(parent context.Context, timeout time.Duration) string {
	if parent.Err() != nil {
		return "cancelled"
	}
	return fmt.Sprintf("no response within %s, process killed", timeout)
}
