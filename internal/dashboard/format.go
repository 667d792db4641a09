package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// MaskDigits replaces every ASCII digit with X, keeping punctuation and
// units so the shape of an amount stays readable.
func MaskDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return 'X'
		}
		return r
	}, s)
}

// formatAgo renders then relative to now ("3 seconds ago").
func formatAgo(then, now time.Time) string {
	if then.IsZero() {
		return "never"
	}
	return humanize.RelTime(then, now, "ago", "from now")
}

// formatBTC renders an amount with full satoshi precision.
func formatBTC(amount float64) string {
	return humanize.CommafWithDigits(amount, 8) + " BTC"
}

// formatProgress renders a verification fraction as a percentage. Values
// just short of 1 never round up to 100%.
func formatProgress(p float64) string {
	pct := p * 100
	if pct > 99.99 && pct < 100 {
		return "99.99%"
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// formatElapsed keeps sub-second durations in milliseconds.
func formatElapsed(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return d.Round(time.Second).String()
	}
}

// wrapText word-wraps s to width and hard-wraps tokens that are still too
// long, such as hashes and raw transactions.
func wrapText(s string, width int) string {
	if width < 1 {
		return s
	}
	return wrap.String(wordwrap.String(s, width), width)
}

// clip truncates an ANSI-styled line to width cells.
func clip(s string, width int) string {
	if width < 1 {
		return ""
	}
	return truncate.StringWithTail(s, uint(width), "…")
}

// column fits plain text to exactly width cells.
func column(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}

// renderPanel draws a bordered section exactly height lines tall. Lines
// beyond the box are dropped and short content is padded with blanks.
func renderPanel(title, value string, lines []string, width, height int) string {
	if height < 2 {
		height = 2
	}
	inner := height - 2

	out := make([]string, 0, height)
	out = append(out, SectionHeader(title, value, width))
	for i := 0; i < inner; i++ {
		content := ""
		if i < len(lines) {
			content = clip(lines[i], width-4)
		}
		out = append(out, SectionContentLine(content, width))
	}
	out = append(out, SectionFooter(width))
	return strings.Join(out, "\n")
}

// labelled renders a "Label    value" row.
func labelled(label, value string) string {
	return LabelStyle.Render(column(label, 9)) + value
}
