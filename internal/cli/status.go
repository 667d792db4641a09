package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rileyhilliard/btcdash/internal/dashboard"
	"github.com/rileyhilliard/btcdash/internal/errors"
	"github.com/rileyhilliard/btcdash/internal/node"
	"github.com/rileyhilliard/btcdash/internal/ui"
	"golang.org/x/term"
)

var (
	statusJSON  bool
	statusFlags NodeFlags
)

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output in JSON format")
	AddNodeFlags(statusCmd, &statusFlags)
}

// StatusOutput is the --json form of status.
type StatusOutput struct {
	Network       string        `json:"network"`
	Height        int64         `json:"height"`
	Headers       int64         `json:"headers,omitempty"`
	Connections   int           `json:"connections"`
	Progress      float64       `json:"verification_progress"`
	Synced        bool          `json:"synced"`
	BestBlockHash string        `json:"best_block_hash,omitempty"`
	FetchedAt     time.Time     `json:"fetched_at"`
	Wallet        *WalletOutput `json:"wallet,omitempty"`
	WalletError   string        `json:"wallet_error,omitempty"`
}

// WalletOutput summarises the wallet poll.
type WalletOutput struct {
	Name        string  `json:"name"`
	Balance     float64 `json:"balance"`
	TxCount     int64   `json:"tx_count"`
	KeypoolSize int64   `json:"keypool_size"`
}

// statusCommand runs one status poll (and the wallet poll when configured)
// and prints the result.
func statusCommand(w io.Writer, flags NodeFlags, asJSON bool) error {
	s, err := openNode(flags)
	if err != nil {
		if asJSON {
			WriteJSONFromError(w, err)
			return errors.NewExitError(1)
		}
		return err
	}
	defer s.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	var spinner *ui.Spinner
	if !asJSON && term.IsTerminal(int(os.Stderr.Fd())) {
		spinner = ui.NewSpinner("Querying node on " + s.where())
		spinner.Start()
	}

	outcome, snap := pollStatus(ctx, s)
	if snap == nil {
		if spinner != nil {
			spinner.Fail()
		}
		method := firstField(s.cfg.Node.PollCommand)
		if asJSON {
			WriteJSONFromOutcome(w, method, outcome)
			return errors.NewExitError(1)
		}
		return statusError(outcome, method)
	}

	out := StatusOutput{
		Network:       snap.Network,
		Height:        snap.Height,
		Headers:       snap.Headers,
		Connections:   snap.Connections,
		Progress:      snap.Progress,
		Synced:        snap.Synced(),
		BestBlockHash: snap.BestBlockHash,
		FetchedAt:     snap.FetchedAt,
	}

	if s.cfg.Wallet.PollCommand != "" {
		wo, wallet := pollWallet(ctx, s)
		if wallet != nil {
			out.Wallet = &WalletOutput{
				Name:        wallet.Name,
				Balance:     wallet.Balance,
				TxCount:     wallet.TxCount,
				KeypoolSize: wallet.KeypoolSize,
			}
		} else {
			out.WalletError = wo.Summary()
		}
	}

	if spinner != nil {
		spinner.Success()
	}

	if asJSON {
		return WriteJSONSuccess(w, out)
	}
	fmt.Fprint(w, renderStatus(out, s.cfg.Wallet.HideAmounts))
	return nil
}

func pollStatus(ctx context.Context, s *nodeSession) (node.Outcome, *node.Snapshot) {
	res := s.invoker.Invoke(ctx, s.cli.CommandLine(s.cfg.Node.PollCommand), s.cfg.Poll.Timeout)
	o, snap := node.ClassifyStatus(res)
	return s.cli.RedactOutcome(o), snap
}

func pollWallet(ctx context.Context, s *nodeSession) (node.Outcome, *node.WalletSnapshot) {
	res := s.invoker.Invoke(ctx, s.cli.CommandLine(s.cfg.Wallet.PollCommand), s.cfg.Poll.Timeout)
	o, wallet := node.ClassifyWallet(res)
	return s.cli.RedactOutcome(o), wallet
}

func statusError(o node.Outcome, method string) error {
	code := errors.ErrExec
	if o.Kind == node.ParseFailed {
		code = errors.ErrParse
	}
	return errors.New(code, "Status poll failed: "+o.Summary(), node.Hint(method, o))
}

func renderStatus(out StatusOutput, hideAmounts bool) string {
	sync := fmt.Sprintf("%s (syncing)", formatPercent(out.Progress))
	if out.Synced {
		sync = formatPercent(out.Progress) + " (synced)"
	}

	headers := ""
	if out.Headers > 0 {
		headers = humanize.Comma(out.Headers)
	}

	fields := []ui.Field{
		{Label: "Network", Value: out.Network},
		{Label: "Height", Value: humanize.Comma(out.Height)},
		{Label: "Headers", Value: headers},
		{Label: "Peers", Value: fmt.Sprintf("%d", out.Connections)},
		{Label: "Sync", Value: sync},
		{Label: "Best block", Value: out.BestBlockHash},
	}

	switch {
	case out.Wallet != nil:
		balance := humanize.CommafWithDigits(out.Wallet.Balance, 8) + " BTC"
		if hideAmounts {
			balance = dashboard.MaskDigits(balance)
		}
		name := out.Wallet.Name
		if name == "" {
			name = "(default)"
		}
		fields = append(fields,
			ui.Field{Label: "Wallet", Value: name},
			ui.Field{Label: "Balance", Value: balance},
			ui.Field{Label: "Txs", Value: humanize.Comma(out.Wallet.TxCount)},
		)
	case out.WalletError != "":
		fields = append(fields, ui.Field{Label: "Wallet", Value: ui.MutedStyle().Render(out.WalletError)})
	}

	return ui.RenderFields(fields)
}

// formatPercent never shows 100.00% before verification has finished.
func formatPercent(p float64) string {
	pct := p * 100
	if pct < 100 && pct > 99.99 {
		pct = 99.99
	}
	return fmt.Sprintf("%.2f%%", pct)
}

func firstField(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return ""
}

// interruptContext is cancelled on Ctrl+C, which kills any running node call.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
