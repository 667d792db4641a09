package node

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/btcdash/internal/exec"
)

// OutcomeKind tags how an invocation ended from the controller's point of view.
type OutcomeKind int

const (
	Succeeded OutcomeKind = iota
	Failed
	TimedOut
	SpawnFailed
	ParseFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed out"
	case SpawnFailed:
		return "spawn failed"
	case ParseFailed:
		return "parse error"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is the classified result of one invocation.
type Outcome struct {
	Kind OutcomeKind

	// Output is stdout for Succeeded and the diagnostic text for Failed.
	// ParseFailed keeps the stdout that couldn't be parsed.
	Output string

	// Reason explains TimedOut, SpawnFailed and ParseFailed.
	Reason string

	ExitCode  int
	Truncated bool

	// Parse is set for ParseFailed.
	Parse *ParseError
}

// OK reports whether the invocation succeeded.
func (o Outcome) OK() bool {
	return o.Kind == Succeeded
}

// Summary is a one-line description for lists and banners.
func (o Outcome) Summary() string {
	switch o.Kind {
	case Succeeded:
		return "ok"
	case Failed:
		line := firstLine(o.Output)
		if line == "" {
			return fmt.Sprintf("exit %d", o.ExitCode)
		}
		return fmt.Sprintf("exit %d: %s", o.ExitCode, line)
	default:
		return o.Kind.String() + ": " + o.Reason
	}
}

// Detail is the full text shown in the output pane.
func (o Outcome) Detail() string {
	switch o.Kind {
	case Succeeded, Failed:
		text := o.Output
		if o.Truncated {
			text += "\n[output truncated]"
		}
		return text
	case ParseFailed:
		return o.Reason + "\n\n" + o.Output
	default:
		return o.Summary()
	}
}

// ClassifyGeneric maps a finished process to Succeeded (exit 0, stdout) or
// Failed (stderr, or stdout when stderr is blank).
func ClassifyGeneric(exitCode int, stdout, stderr string) Outcome {
	if exitCode == 0 {
		return Outcome{Kind: Succeeded, Output: stdout}
	}
	text := stderr
	if strings.TrimSpace(text) == "" {
		text = stdout
	}
	return Outcome{Kind: Failed, Output: text, ExitCode: exitCode}
}

// FromResult maps the invoker taxonomy into an Outcome.
func FromResult(r exec.Result) Outcome {
	var o Outcome
	switch r.Kind {
	case exec.Completed:
		o = ClassifyGeneric(r.ExitCode, r.Stdout, r.Stderr)
	case exec.TimedOut:
		o = Outcome{Kind: TimedOut, Reason: r.Reason, ExitCode: -1}
	default:
		o = Outcome{Kind: SpawnFailed, Reason: r.Reason, ExitCode: -1}
	}
	o.Truncated = r.Truncated
	return o
}

// ClassifyStatus classifies a status poll and parses it on success. The
// snapshot is nil unless the outcome is Succeeded.
func ClassifyStatus(r exec.Result) (Outcome, *Snapshot) {
	o := FromResult(r)
	if !o.OK() {
		return o, nil
	}
	snap, err := ParseStatus(r.Stdout, r.FinishedAt)
	if err != nil {
		return parseFailure(o, err), nil
	}
	return o, &snap
}

// ClassifyWallet is ClassifyStatus for the wallet poll.
func ClassifyWallet(r exec.Result) (Outcome, *WalletSnapshot) {
	o := FromResult(r)
	if !o.OK() {
		return o, nil
	}
	w, err := ParseWallet(r.Stdout, r.FinishedAt)
	if err != nil {
		return parseFailure(o, err), nil
	}
	return o, &w
}

func parseFailure(o Outcome, err error) Outcome {
	pe, _ := err.(*ParseError)
	return Outcome{
		Kind:      ParseFailed,
		Output:    o.Output,
		Reason:    err.Error(),
		Truncated: o.Truncated,
		Parse:     pe,
	}
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
