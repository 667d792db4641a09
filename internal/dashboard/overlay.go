package dashboard

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/btcdash/internal/address"
	"github.com/rileyhilliard/btcdash/internal/controller"
	"github.com/rileyhilliard/btcdash/internal/qrcode"
)

// getNewAddress is the RPC the overlay uses to mint receive addresses.
const getNewAddress = "getnewaddress"

// addressOverlay holds the state of the address and QR overlay.
type addressOverlay struct {
	book     *address.Book
	input    textinput.Model
	selected int

	// pending is the getnewaddress invocation being waited on, 0 when idle.
	pending     uint64
	pendingSave bool
}

func newAddressOverlay(book *address.Book) addressOverlay {
	in := textinput.New()
	in.Prompt = "› "
	in.Placeholder = "paste or type an address"
	in.CharLimit = 128
	in.PromptStyle = SelectedStyle
	in.TextStyle = ValueStyle
	in.PlaceholderStyle = MutedStyle

	return addressOverlay{book: book, input: in, selected: -1}
}

func (o *addressOverlay) entries() []address.Entry {
	if o.book == nil {
		return nil
	}
	return o.book.Entries()
}

// open focuses the input, preloading the selected saved address when the
// input is empty.
func (o *addressOverlay) open() tea.Cmd {
	entries := o.entries()
	if o.value() == "" && len(entries) > 0 {
		if o.selected < 0 || o.selected >= len(entries) {
			o.selected = len(entries) - 1
		}
		o.input.SetValue(entries[o.selected].Address)
		o.input.CursorEnd()
	}
	return o.input.Focus()
}

func (o *addressOverlay) close() {
	o.input.Blur()
}

// step moves the saved-address selection and loads it into the input.
func (o *addressOverlay) step(delta int) {
	entries := o.entries()
	if len(entries) == 0 {
		return
	}
	next := o.selected + delta
	if o.selected < 0 {
		next = len(entries) - 1
	}
	if next < 0 || next >= len(entries) {
		return
	}
	o.selected = next
	o.input.SetValue(entries[next].Address)
	o.input.CursorEnd()
}

func (o *addressOverlay) value() string {
	return strings.TrimSpace(o.input.Value())
}

// requestAddress asks the node for a new address through the controller.
// The reply is picked up by resolveAddressRequest once it lands in history.
func (m *Model) requestAddress(save bool) {
	if m.overlay.pending != 0 {
		m.flash("still waiting for "+getNewAddress, true)
		return
	}
	if save && m.overlay.book == nil {
		m.flash("no address book configured", true)
		return
	}

	inv, err := m.ctl.Submit(getNewAddress)
	if err != nil {
		m.flash(err.Error(), true)
		return
	}
	m.overlay.pending = inv.ID
	m.overlay.pendingSave = save
	m.flash("requesting a new address...", false)
}

// resolveAddressRequest applies a finished getnewaddress invocation.
func (m *Model) resolveAddressRequest() {
	id := m.overlay.pending
	if id == 0 {
		return
	}

	inv, ok := m.vm.Find(id)
	if !ok {
		m.overlay.pending = 0
		m.flash(getNewAddress+" result is no longer in history", true)
		return
	}
	if !inv.Done() {
		return
	}

	save := m.overlay.pendingSave
	m.overlay.pending = 0
	m.overlay.pendingSave = false

	if inv.Status != controller.Succeeded {
		msg := getNewAddress + " failed: " + inv.Outcome.Summary()
		if inv.Hint != "" {
			msg += ". " + inv.Hint
		}
		m.flash(msg, true)
		return
	}

	addr := strings.TrimSpace(inv.Outcome.Output)
	if !address.Check(addr).OK() {
		m.flash("node returned an address that doesn't validate", true)
		return
	}

	m.overlay.input.SetValue(addr)
	m.overlay.input.CursorEnd()

	if !save {
		m.flash("new address (not saved)", false)
		return
	}

	idx, err := m.overlay.book.Add(addr, m.now())
	if err != nil {
		m.log.Warn("saving address: %v", err)
		m.flash("couldn't save address: "+err.Error(), true)
		return
	}
	m.overlay.selected = idx
	m.flash("saved to "+m.overlay.book.Path(), false)
}

func (m *Model) copyAddress() {
	addr := m.overlay.value()
	if addr == "" {
		m.flash("nothing to copy", true)
		return
	}
	if err := m.writeClipboard(addr); err != nil {
		m.log.Warn("clipboard: %v", err)
		m.flash("clipboard unavailable: "+err.Error(), true)
		return
	}
	m.flash("copied "+address.Short(addr), false)
}

var (
	overlayBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(0, 1)

	overlayTitleStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)

	// QR for input that does not validate.
	qrDimStyle = lipgloss.NewStyle().Foreground(ColorTextMuted).Faint(true)
)

func validityStyle(v address.Validity) lipgloss.Style {
	switch v.State {
	case address.Valid:
		return OKStyle.Bold(true)
	case address.Invalid:
		return ErrorStyle.Bold(true)
	default:
		return MutedStyle
	}
}

// renderAddressOverlay renders the centered address overlay.
func (m Model) renderAddressOverlay() string {
	o := m.overlay
	addr := o.value()
	v := address.Check(addr)

	title := overlayTitleStyle.Render("Address & QR") + "  " + validityStyle(v).Render(v.Label())

	left := lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		o.input.View(),
		"",
		m.renderQR(addr, v),
	)

	right := m.renderAddressList(o)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, "   ", right)

	status := ""
	if o.pending != 0 {
		status = WarnStyle.Render(PendingSpinner(m.spinnerFrame) + " waiting for " + getNewAddress)
	} else if m.status != "" {
		status = m.statusStyle().Render(m.status)
	}

	hints := MutedStyle.Render(strings.Join([]string{
		"ctrl+n new+save",
		"ctrl+g new",
		"ctrl+y copy",
		"↑↓ saved",
		"esc close",
	}, " | "))

	box := overlayBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, body, "", status, hints))

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(ColorDarkBg),
	)
}

func (m Model) renderQR(addr string, v address.Validity) string {
	if v.State == address.Empty {
		return MutedStyle.Render("Type an address, pick a saved one,\nor press ctrl+g for a new one.")
	}

	bitmap, err := qrcode.Encode(addr)
	if err != nil {
		if stderrors.Is(err, qrcode.ErrTooLong) {
			return ErrorStyle.Render("Too long for a QR code.")
		}
		return ErrorStyle.Render(err.Error())
	}

	qr := qrcode.Render(bitmap, m.darkOnLight)
	if !v.OK() {
		return qrDimStyle.Render(qr)
	}
	return qr
}

const maxListedAddresses = 12

func (m Model) renderAddressList(o addressOverlay) string {
	entries := o.entries()

	lines := []string{LabelStyle.Render("Saved addresses"), ""}
	if len(entries) == 0 {
		lines = append(lines, MutedStyle.Render("none yet (ctrl+n)"))
		return strings.Join(lines, "\n")
	}

	start := 0
	if o.selected >= maxListedAddresses {
		start = o.selected - maxListedAddresses + 1
	}
	end := start + maxListedAddresses
	if end > len(entries) {
		end = len(entries)
	}

	for i := start; i < end; i++ {
		e := entries[i]
		created := MutedStyle.Render(e.CreatedAt.Local().Format("2006-01-02"))
		if i == o.selected {
			lines = append(lines, SelectedStyle.Render(GlyphSelected+" "+address.Short(e.Address))+"  "+created)
			continue
		}
		lines = append(lines, "  "+address.Short(e.Address)+"  "+created)
	}
	if len(entries) > end-start {
		lines = append(lines, "", MutedStyle.Render(positionLabel(o.selected, len(entries))))
	}
	return strings.Join(lines, "\n")
}

func positionLabel(selected, total int) string {
	if selected < 0 {
		return fmt.Sprintf("%d saved", total)
	}
	return fmt.Sprintf("%d/%d", selected+1, total)
}
