package cli

import (
	stderrors "errors"
	"fmt"
	"io"

	"github.com/muesli/termenv"
	"github.com/rileyhilliard/btcdash/internal/address"
	"github.com/rileyhilliard/btcdash/internal/errors"
	"github.com/rileyhilliard/btcdash/internal/qrcode"
	"github.com/rileyhilliard/btcdash/internal/ui"
)

var (
	qrLight bool
	qrDark  bool
	qrAny   bool
)

func init() {
	qrCmd.Flags().BoolVar(&qrLight, "light", false, "render for a light terminal background")
	qrCmd.Flags().BoolVar(&qrDark, "dark", false, "render for a dark terminal background")
	qrCmd.Flags().BoolVar(&qrAny, "any", false, "encode text that isn't a bitcoin address")
	qrCmd.MarkFlagsMutuallyExclusive("light", "dark")
}

// qrCommand prints a scannable QR code for addr. It needs no node.
func qrCommand(w io.Writer, addr string, darkOnLight, allowAny bool) error {
	v := address.Check(addr)
	if !v.OK() && !allowAny {
		return errors.New(errors.ErrAddress,
			fmt.Sprintf("%q is not a bitcoin address (%s)", addr, v.Label()),
			"Pass --any to encode arbitrary text.")
	}

	bitmap, err := qrcode.Encode(addr)
	if err != nil {
		suggestion := ""
		if stderrors.Is(err, qrcode.ErrTooLong) {
			suggestion = "QR codes hold a few thousand characters at most."
		}
		return errors.WrapWithCode(err, errors.ErrAddress, "Can't build a QR code", suggestion)
	}

	fmt.Fprintln(w, qrcode.Render(bitmap, darkOnLight))
	fmt.Fprintln(w)
	if v.OK() {
		fmt.Fprintf(w, "%s %s  %s\n", ui.SuccessStyle().Render(ui.SymbolSuccess), addr, ui.MutedStyle().Render(v.Label()))
	} else {
		fmt.Fprintln(w, addr)
	}
	return nil
}

// qrDarkOnLight picks the module color from the flags, falling back to
// asking the terminal.
func qrDarkOnLight() bool {
	switch {
	case qrLight:
		return true
	case qrDark:
		return false
	default:
		return !termenv.HasDarkBackground()
	}
}
