package controller

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/btcdash/internal/node"
)

// Kind says who asked for an invocation.
type Kind int

const (
	Operator Kind = iota
	StatusPoll
	WalletPoll
)

func (k Kind) String() string {
	switch k {
	case Operator:
		return "operator"
	case StatusPoll:
		return "status poll"
	case WalletPoll:
		return "wallet poll"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Status is the lifecycle state of an invocation.
type Status int

const (
	Pending Status = iota
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Invocation is one run of the control interface. It leaves Pending exactly
// once and is immutable afterwards.
type Invocation struct {
	ID uint64

	// Command is the display form with credentials stripped.
	Command string
	// Method is the RPC name (first argument), used for hints.
	Method string

	Kind        Kind
	SubmittedAt time.Time

	Status      Status
	Outcome     node.Outcome
	Hint        string
	CompletedAt time.Time
}

// Done reports whether the invocation reached a terminal state.
func (inv Invocation) Done() bool {
	return inv.Status != Pending
}

// Output is the success output, or the failure reason.
func (inv Invocation) Output() string {
	switch inv.Status {
	case Succeeded:
		return inv.Outcome.Output
	case Failed:
		return inv.Outcome.Detail()
	default:
		return ""
	}
}

// Elapsed is the run time of a finished invocation.
func (inv Invocation) Elapsed() time.Duration {
	if !inv.Done() {
		return 0
	}
	return inv.CompletedAt.Sub(inv.SubmittedAt)
}

// complete returns inv moved to its terminal state. ok is false when inv
// was already terminal, in which case inv is returned unchanged.
func (inv Invocation) complete(o node.Outcome, at time.Time) (Invocation, bool) {
	if inv.Done() {
		return inv, false
	}
	inv.Outcome = o
	inv.CompletedAt = at
	if o.OK() {
		inv.Status = Succeeded
	} else {
		inv.Status = Failed
		inv.Hint = node.Hint(inv.Method, o)
	}
	return inv, true
}
