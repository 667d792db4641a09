package controller

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/btcdash/internal/exec"
	"github.com/rileyhilliard/btcdash/internal/logger"
	"github.com/rileyhilliard/btcdash/internal/node"
	"github.com/rileyhilliard/btcdash/internal/util"
)

// DefaultMaxInputLength bounds operator input in bytes.
const DefaultMaxInputLength = 1024

// ValidationKind says why operator input was rejected.
type ValidationKind int

const (
	// Empty input is blank or whitespace only.
	Empty ValidationKind = iota
	// TooLong input exceeds the configured byte limit.
	TooLong
	// BadQuoting input has an unterminated quote or trailing backslash.
	BadQuoting
)

// ValidationError rejects input before any id is allocated or process started.
type ValidationError struct {
	Kind   ValidationKind
	Length int
	Limit  int
	Detail string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case Empty:
		return "command is empty"
	case TooLong:
		return fmt.Sprintf("command is %d bytes, limit is %d", e.Length, e.Limit)
	default:
		return "can't parse command: " + e.Detail
	}
}

// Router turns operator text into invocations.
type Router struct {
	ids       *IDSource
	store     *Store
	invoker   exec.Invoker
	cli       *node.CLI
	timeout   time.Duration
	maxLength int
	group     *group
	ctx       context.Context
	log       logger.Logger
}

// Submit validates raw, records a Pending invocation and runs it in the
// background. The returned invocation carries the allocated id; its result
// arrives through the store. Submit never waits for the process.
func (r *Router) Submit(raw string) (Invocation, error) {
	args, err := r.validate(raw)
	if err != nil {
		return Invocation{}, err
	}

	cmd := r.cli.Command(args...)
	inv := Invocation{
		ID:          r.ids.Next(),
		Command:     r.cli.Redact(util.ShellJoin(args)),
		Method:      args[0],
		Kind:        Operator,
		SubmittedAt: time.Now(),
	}
	r.store.RecordSubmission(inv)

	id := inv.ID
	if !r.group.Go(func() { r.run(id, cmd) }) {
		r.store.ApplyCommandResult(id, node.Outcome{Kind: node.SpawnFailed, Reason: "controller stopped"})
	}
	return inv, nil
}

func (r *Router) validate(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &ValidationError{Kind: Empty}
	}
	if len(raw) > r.maxLength {
		return nil, &ValidationError{Kind: TooLong, Length: len(raw), Limit: r.maxLength}
	}
	args, err := util.SplitArgs(raw)
	if err != nil {
		return nil, &ValidationError{Kind: BadQuoting, Detail: err.Error()}
	}
	if len(args) == 0 || args[0] == "" {
		return nil, &ValidationError{Kind: Empty}
	}
	return args, nil
}

func (r *Router) run(id uint64, cmd exec.Command) {
	res := r.invoker.Invoke(r.ctx, cmd, r.timeout)
	o := r.cli.RedactOutcome(node.FromResult(res))
	r.log.Debug("invocation %d %s after %s", id, o.Kind, res.Duration())
	r.store.ApplyCommandResult(id, o)
}
