package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/rileyhilliard/btcdash/internal/controller"
	"github.com/rileyhilliard/btcdash/internal/util"
)

// layout is the panel geometry for the current terminal size.
type layout struct {
	leftWidth  int
	rightWidth int

	nodeHeight     int
	walletHeight   int
	commandsHeight int

	outputHeight  int
	historyHeight int
}

const (
	headerLines = 2 // title bar plus banner or spacer
	footerLines = 2 // status line plus hints

	nodePanelHeight   = 7
	walletPanelHeight = 6
	minPanelHeight    = 3
)

func (m Model) layout() layout {
	width, height := m.width, m.height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	body := height - headerLines - footerLines
	if body < nodePanelHeight+walletPanelHeight+minPanelHeight {
		body = nodePanelHeight + walletPanelHeight + minPanelHeight
	}

	left := width * 35 / 100
	if left < 30 {
		left = 30
	}
	if left > width/2 && width < 60 {
		left = width / 2
	}

	output := body * 2 / 3
	if output < minPanelHeight {
		output = minPanelHeight
	}

	return layout{
		leftWidth:      left,
		rightWidth:     width - left,
		nodeHeight:     nodePanelHeight,
		walletHeight:   walletPanelHeight,
		commandsHeight: body - nodePanelHeight - walletPanelHeight,
		outputHeight:   output,
		historyHeight:  body - output,
	}
}

func (l layout) outputInnerWidth() int {
	if l.rightWidth < 8 {
		return 4
	}
	return l.rightWidth - 4
}

func (l layout) outputInnerHeight() int {
	if l.outputHeight < 3 {
		return 1
	}
	return l.outputHeight - 2
}

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	l := m.layout()

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderNodePanel(l.leftWidth, l.nodeHeight),
		m.renderWalletPanel(l.leftWidth, l.walletHeight),
		m.renderCommandsPanel(l.leftWidth, l.commandsHeight),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderOutputPanel(l.rightWidth, l.outputHeight),
		m.renderHistoryPanel(l.rightWidth, l.historyHeight),
	)

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderBanner())
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, right))
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader renders the title bar with chain summary and freshness.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(ColorAccent).
		Bold(true).
		Render("btcdash")

	parts := []string{}
	if s := m.vm.Snapshot; s != nil {
		parts = append(parts,
			s.Network,
			"height "+humanize.Comma(s.Height),
			fmt.Sprintf("%d %s", s.Connections, util.Pluralize(s.Connections, "peer", "peers")),
			"updated "+formatAgo(m.vm.LastSuccess, m.now()),
		)
	} else {
		parts = append(parts, "waiting for first status")
	}

	stats := lipgloss.NewStyle().
		Foreground(ColorTextSecondary).
		Render(" | " + strings.Join(parts, " | "))

	extra := ""
	if m.vm.Stale() {
		extra += WarnStyle.Render(fmt.Sprintf(" | stale, %d %s", m.vm.PollFailures,
			util.Pluralize(m.vm.PollFailures, "failed poll", "failed polls")))
	}
	if m.vm.Polling() {
		extra += WarnStyle.Render(" " + PendingSpinner(m.spinnerFrame))
	}
	if m.vm.InFlight > 0 {
		extra += WarnStyle.Render(fmt.Sprintf(" | %d running", m.vm.InFlight))
	}

	return HeaderStyle.Render(clip(title+stats+extra, m.width-2))
}

// renderBanner shows the persistent start-up failure, or a spacer.
func (m Model) renderBanner() string {
	if m.vm.Banner == "" {
		return ""
	}
	return BannerStyle.Render(clip(GlyphFailed+" "+m.vm.Banner, m.width-2))
}

func (m Model) renderNodePanel(width, height int) string {
	s := m.vm.Snapshot
	if s == nil {
		lines := []string{MutedStyle.Render("No status yet.")}
		if p := m.vm.LastPoll; p != nil && p.Done() && p.Status == controller.Failed {
			lines = append(lines, ErrorStyle.Render(p.Outcome.Summary()))
		}
		return renderPanel("Node", "waiting", lines, width, height)
	}

	value := "syncing"
	if s.Synced() {
		value = "synced"
	}
	if m.vm.Stale() {
		value = "stale"
	}

	barWidth := width - 4 - 9 - 8
	if barWidth < 4 {
		barWidth = 4
	}

	lines := []string{
		labelled("Network", ValueStyle.Render(s.Network)),
		labelled("Height", ValueStyle.Render(humanize.Comma(s.Height))),
		labelled("Peers", ValueStyle.Render(fmt.Sprint(s.Connections))),
		labelled("Sync", ProgressBar(barWidth, s.Progress)+" "+ValueStyle.Render(formatProgress(s.Progress))),
		labelled("Updated", MutedStyle.Render(formatAgo(m.vm.LastSuccess, m.now()))),
	}
	return renderPanel("Node", value, lines, width, height)
}

func (m Model) renderWalletPanel(width, height int) string {
	value := ""
	if m.hideAmounts {
		value = "hidden"
	}

	if !m.walletEnabled {
		return renderPanel("Wallet", "off", []string{MutedStyle.Render("Wallet polling is off.")}, width, height)
	}

	w := m.vm.Wallet
	if w == nil {
		if m.vm.WalletError != "" {
			return renderPanel("Wallet", "unavailable", []string{ErrorStyle.Render(m.vm.WalletError)}, width, height)
		}
		return renderPanel("Wallet", "waiting", []string{MutedStyle.Render("No wallet info yet.")}, width, height)
	}

	mask := func(s string) string {
		if m.hideAmounts {
			return MaskDigits(s)
		}
		return s
	}

	name := w.Name
	if name == "" {
		name = "(default)"
	}

	lines := []string{
		labelled("Wallet", ValueStyle.Render(name)),
		labelled("Balance", ValueStyle.Render(mask(formatBTC(w.Balance)))),
		labelled("Txs", ValueStyle.Render(mask(humanize.Comma(w.TxCount)))),
	}
	if m.vm.WalletError != "" {
		lines = append(lines, ErrorStyle.Render(m.vm.WalletError))
	} else {
		lines = append(lines, labelled("Keypool", ValueStyle.Render(mask(humanize.Comma(w.KeypoolSize)))))
	}
	return renderPanel("Wallet", value, lines, width, height)
}

func (m Model) renderCommandsPanel(width, height int) string {
	if len(m.commands) == 0 {
		return renderPanel("Commands", "", []string{MutedStyle.Render("No preset commands.")}, width, height)
	}

	visible := height - 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.selected >= visible {
		start = m.selected - visible + 1
	}

	var lines []string
	for i := start; i < len(m.commands) && i < start+visible; i++ {
		if i == m.selected {
			lines = append(lines, SelectedStyle.Render(GlyphSelected+" "+m.commands[i]))
			continue
		}
		lines = append(lines, "  "+ValueStyle.Render(m.commands[i]))
	}
	return renderPanel("Commands", fmt.Sprintf("%d/%d", m.selected+1, len(m.commands)), lines, width, height)
}

func (m Model) renderOutputPanel(width, height int) string {
	value := ""
	if m.shown != 0 {
		value = fmt.Sprintf("#%d", m.shown)
		if m.output.TotalLineCount() > m.output.VisibleLineCount() {
			value += fmt.Sprintf(" %3.f%%", m.output.ScrollPercent()*100)
		}
	}
	return renderPanel("Output", value, strings.Split(m.output.View(), "\n"), width, height)
}

// outputContent builds the output pane text for the shown invocation and a
// key that changes whenever that text would.
func (m Model) outputContent(width int) (string, string) {
	if m.shown == 0 {
		return MutedStyle.Render("Pick a command and press enter, or type : for your own."), "0"
	}

	inv, ok := m.vm.Find(m.shown)
	if !ok {
		if m.shownSeen {
			msg := fmt.Sprintf("#%d is no longer in history.", m.shown)
			return MutedStyle.Render(msg), fmt.Sprintf("%d|evicted", m.shown)
		}
		// Submitted but the store hasn't recorded it yet.
		inv = controller.Invocation{ID: m.shown, Command: m.shownCmd}
	}

	key := fmt.Sprintf("%d|%s|%d", inv.ID, inv.Status, width)

	head := SelectedStyle.Render(fmt.Sprintf("#%d ", inv.ID)) + ValueStyle.Render(inv.Command)

	var b strings.Builder
	b.WriteString(head)
	b.WriteString("\n")

	switch inv.Status {
	case controller.Pending:
		b.WriteString(WarnStyle.Render("running..."))

	case controller.Succeeded:
		b.WriteString(OKStyle.Render(GlyphSucceeded+" ok") + MutedStyle.Render(" in "+formatElapsed(inv.Elapsed())))
		b.WriteString("\n\n")
		out := inv.Output()
		if strings.TrimSpace(out) == "" {
			out = MutedStyle.Render("(no output)")
		}
		b.WriteString(wrapText(out, width))

	case controller.Failed:
		b.WriteString(ErrorStyle.Render(GlyphFailed+" "+inv.Outcome.Summary()) + MutedStyle.Render(" in "+formatElapsed(inv.Elapsed())))
		if inv.Hint != "" {
			b.WriteString("\n")
			b.WriteString(WarnStyle.Render(wrapText(inv.Hint, width)))
		}
		if detail := inv.Output(); strings.TrimSpace(detail) != "" {
			b.WriteString("\n\n")
			b.WriteString(wrapText(detail, width))
		}
	}

	return b.String(), key
}

func (m Model) renderHistoryPanel(width, height int) string {
	rows := height - 2
	if rows < 1 {
		rows = 1
	}

	hist := m.vm.History
	if len(hist) == 0 {
		return renderPanel("History", "", []string{MutedStyle.Render("Nothing run yet.")}, width, height)
	}

	inner := width - 4
	idWidth := len(fmt.Sprint(hist[len(hist)-1].ID)) + 1
	const elapsedWidth = 8
	cmdWidth := inner - idWidth - 2 - elapsedWidth - 1
	if cmdWidth < 8 {
		cmdWidth = 8
	}

	var lines []string
	for i := len(hist) - 1; i >= 0 && len(lines) < rows; i-- {
		inv := hist[i]

		var glyph string
		switch inv.Status {
		case controller.Succeeded:
			glyph = OKStyle.Render(GlyphSucceeded)
		case controller.Failed:
			glyph = ErrorStyle.Render(GlyphFailed)
		default:
			glyph = WarnStyle.Render(PendingSpinner(m.spinnerFrame))
		}

		cmd := inv.Command
		if inv.Kind != controller.Operator {
			cmd = "[" + inv.Kind.String() + "] " + cmd
		}

		idText := runewidth.FillLeft(fmt.Sprintf("#%d", inv.ID), idWidth)
		style := ValueStyle
		if inv.ID == m.shown {
			style = SelectedStyle
		}
		lines = append(lines, MutedStyle.Render(idText)+" "+glyph+" "+
			style.Render(column(cmd, cmdWidth))+" "+
			MutedStyle.Render(runewidth.FillLeft(formatElapsed(inv.Elapsed()), elapsedWidth)))
	}

	return renderPanel("History", fmt.Sprint(len(hist)), lines, width, height)
}

func (m Model) statusStyle() lipgloss.Style {
	if m.statusErr {
		return ErrorStyle
	}
	return OKStyle
}

// renderStatusLine shows the command line when open, otherwise the latest
// status message or the last recorded error.
func (m Model) renderStatusLine() string {
	if m.mode == ModeCommand {
		return " " + m.input.View()
	}
	if m.status != "" {
		return " " + m.statusStyle().Render(clip(m.status, m.width-2))
	}
	if e := m.vm.LastError; e != nil {
		text := fmt.Sprintf("last error #%d %s: %s", e.ID, e.Command, e.Outcome.Summary())
		return " " + ErrorStyle.Render(clip(text, m.width-2))
	}
	return ""
}

// renderFooter renders the keyboard help footer.
func (m Model) renderFooter() string {
	hints := []string{
		"q quit",
		"r refresh",
		"↑↓ select",
		"enter run",
		": command",
		"j/k scroll",
		"w address",
		"h hide",
		"? help",
	}
	if m.mode == ModeCommand {
		hints = []string{"enter submit", "esc cancel"}
	}

	return FooterStyle.Render(clip(strings.Join(hints, " | "), m.width-2))
}

// keyID extracts the invocation id from an output key.
func keyID(key string) string {
	if i := strings.IndexByte(key, '|'); i >= 0 {
		return key[:i]
	}
	return key
}
