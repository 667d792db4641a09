package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/rileyhilliard/btcdash/internal/controller"
	"github.com/rileyhilliard/btcdash/internal/errors"
	"github.com/rileyhilliard/btcdash/internal/util"
	"github.com/rileyhilliard/btcdash/internal/ui"
)

var (
	execJSON  bool
	execFlags NodeFlags
)

func init() {
	execCmd.Flags().BoolVar(&execJSON, "json", false, "wrap the result in a JSON envelope")
	AddNodeFlags(execCmd, &execFlags)
}

// ExecOutput is the --json form of exec.
type ExecOutput struct {
	ID        uint64 `json:"id"`
	Command   string `json:"command"`
	Output    string `json:"output"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// execCommand sends one command through the controller, the same path the
// dashboard's command line uses, and prints the result. A failing command
// exits with the control interface's exit code.
func execCommand(stdout, stderr io.Writer, args []string, flags NodeFlags, asJSON bool) error {
	if len(args) == 0 {
		return errors.New(errors.ErrInput,
			"What should I send to the node?",
			"Usage: btcdash exec <rpc> [args...]  (e.g., btcdash exec getblockhash 800000)")
	}

	s, err := openNode(flags)
	if err != nil {
		return err
	}
	defer s.Close()

	ctl := controller.New(s.controllerOptions())
	defer ctl.Stop()

	inv, err := ctl.Submit(util.ShellJoin(args))
	if err != nil {
		var verr *controller.ValidationError
		if stderrors.As(err, &verr) {
			return errors.WrapWithCode(err, errors.ErrInput,
				"Command rejected before running",
				"Check quoting and keep the command under input.max_length bytes.")
		}
		return err
	}

	ctx, cancel := interruptContext()
	defer cancel()

	done, err := awaitInvocation(ctx, ctl, inv.ID)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExec, "Interrupted while waiting for "+inv.Method, "")
	}

	if done.Status == controller.Succeeded {
		if asJSON {
			return WriteJSONSuccess(stdout, ExecOutput{
				ID:        done.ID,
				Command:   done.Command,
				Output:    strings.TrimRight(done.Output(), "\n"),
				ElapsedMS: done.Elapsed().Milliseconds(),
			})
		}
		fmt.Fprint(stdout, withNewline(done.Output()))
		return nil
	}

	if asJSON {
		WriteJSONFromOutcome(stdout, done.Method, done.Outcome)
	} else {
		fmt.Fprintf(stderr, "%s %s\n", ui.ErrorStyle().Render(ui.SymbolFail), done.Outcome.Summary())
		if detail := strings.TrimSpace(done.Outcome.Detail()); detail != "" && detail != done.Outcome.Summary() {
			fmt.Fprintln(stderr, detail)
		}
		if done.Hint != "" {
			fmt.Fprintln(stderr, ui.MutedStyle().Render(done.Hint))
		}
	}

	code := done.Outcome.ExitCode
	if code <= 0 {
		code = 1
	}
	return errors.NewExitError(code)
}

// awaitInvocation blocks until id leaves Pending or ctx ends.
func awaitInvocation(ctx context.Context, ctl *controller.Controller, id uint64) (controller.Invocation, error) {
	for {
		if inv, ok := ctl.Read().Find(id); ok && inv.Done() {
			return inv, nil
		}
		select {
		case <-ctl.Changes():
		case <-ctx.Done():
			return controller.Invocation{}, ctx.Err()
		}
	}
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
