package dashboard

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rileyhilliard/btcdash/internal/address"
	"github.com/rileyhilliard/btcdash/internal/controller"
	"github.com/rileyhilliard/btcdash/internal/logger"
)

// Controller is what the dashboard needs from the node controller.
type Controller interface {
	Submit(raw string) (controller.Invocation, error)
	Refresh() bool
	Read() controller.ViewModel
	Changes() <-chan struct{}
}

// Options configures a Model.
type Options struct {
	// Commands is the preset list, run with Enter.
	Commands []string

	// WalletEnabled is false when wallet polling is switched off.
	WalletEnabled bool
	HideAmounts   bool

	// Book is the address book behind the address overlay. Nil disables saving.
	Book *address.Book

	// DarkOnLight renders QR codes for light terminal backgrounds.
	DarkOnLight bool

	// Clipboard defaults to the system clipboard.
	Clipboard func(string) error

	Logger logger.Logger
	Now    func() time.Time
}

// changedMsg signals that the controller published a new view model.
type changedMsg struct{}

// spinnerTickMsg signals a spinner animation frame update.
type spinnerTickMsg time.Time

// spinnerInterval is the animation frame rate for pending invocations.
const spinnerInterval = 150 * time.Millisecond

// Default size until the first WindowSizeMsg arrives.
const (
	defaultWidth  = 100
	defaultHeight = 30
)

// Model is the Bubble Tea model for the node dashboard.
type Model struct {
	ctl Controller
	vm  controller.ViewModel

	commands []string
	selected int

	// shown is the invocation in the output pane, 0 for none.
	shown     uint64
	shownCmd  string
	shownSeen bool
	outputKey string
	output    viewport.Model

	mode    Mode
	input   textinput.Model
	overlay addressOverlay

	walletEnabled bool
	hideAmounts   bool
	darkOnLight   bool
	showHelp      bool

	status    string
	statusErr bool

	width        int
	height       int
	spinnerFrame int
	quitting     bool

	writeClipboard func(string) error
	log            logger.Logger
	now            func() time.Time
}

// NewModel creates a dashboard model over ctl.
func NewModel(ctl Controller, opts Options) Model {
	in := textinput.New()
	in.Prompt = ": "
	in.Placeholder = "getblock <hash> 2"
	in.CharLimit = controller.DefaultMaxInputLength * 2
	in.PromptStyle = SelectedStyle
	in.TextStyle = ValueStyle
	in.PlaceholderStyle = MutedStyle

	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewEnvLogger("dashboard")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := Model{
		ctl:            ctl,
		vm:             ctl.Read(),
		commands:       append([]string(nil), opts.Commands...),
		input:          in,
		overlay:        newAddressOverlay(opts.Book),
		walletEnabled:  opts.WalletEnabled,
		hideAmounts:    opts.HideAmounts,
		darkOnLight:    opts.DarkOnLight,
		width:          defaultWidth,
		height:         defaultHeight,
		writeClipboard: opts.Clipboard,
		log:            opts.Logger,
		now:            opts.Now,
	}

	l := m.layout()
	m.output = viewport.New(l.outputInnerWidth(), l.outputInnerHeight())
	m.syncOutput()
	return m
}

// Init starts listening for view-model changes and animates spinners.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.waitForChange(),
		m.spinnerTickCmd(),
	)
}

// Update handles incoming messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			m.syncOutput()
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		l := m.layout()
		m.output.Width = l.outputInnerWidth()
		m.output.Height = l.outputInnerHeight()
		m.outputKey = ""
		m.syncOutput()

	case changedMsg:
		m.vm = m.ctl.Read()
		m.resolveAddressRequest()
		m.syncOutput()
		return m, m.waitForChange()

	case spinnerTickMsg:
		m.spinnerFrame = (m.spinnerFrame + 1) % 10000
		return m, m.spinnerTickCmd()

	default:
		// Cursor blink and paste messages for whichever input has focus.
		var cmd tea.Cmd
		switch m.mode {
		case ModeCommand:
			m.input, cmd = m.input.Update(msg)
		case ModeAddress:
			m.overlay.input, cmd = m.overlay.input.Update(msg)
		}
		return m, cmd
	}

	return m, nil
}

// View renders the current model state.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	if m.mode == ModeAddress {
		return m.renderAddressOverlay()
	}
	return m.renderDashboard()
}

// waitForChange blocks until the controller publishes a new view model.
func (m Model) waitForChange() tea.Cmd {
	ch := m.ctl.Changes()
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

func (m Model) spinnerTickCmd() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return spinnerTickMsg(t)
	})
}

// submit sends line to the controller and points the output pane at the
// new invocation. It reports whether the line was accepted.
func (m *Model) submit(line string) bool {
	inv, err := m.ctl.Submit(line)
	if err != nil {
		m.flash(err.Error(), true)
		return false
	}
	m.show(inv)
	m.status = ""
	return true
}

func (m *Model) show(inv controller.Invocation) {
	m.shown = inv.ID
	m.shownCmd = inv.Command
	m.shownSeen = false
	m.vm = m.ctl.Read()
}

// flash sets the one-line status message under the panels.
func (m *Model) flash(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}

// syncOutput refreshes the output pane when what it shows has changed.
// Scroll position survives unrelated updates and resets on a new invocation.
func (m *Model) syncOutput() {
	if _, ok := m.vm.Find(m.shown); ok {
		m.shownSeen = true
	}
	content, key := m.outputContent(m.output.Width)
	if key == m.outputKey {
		return
	}
	sameInvocation := m.outputKey != "" && keyID(key) == keyID(m.outputKey)
	m.outputKey = key
	m.output.SetContent(content)
	if !sameInvocation {
		m.output.GotoTop()
	}
}

// Selected returns the highlighted preset command, or "" when there are none.
func (m Model) Selected() string {
	if m.selected >= 0 && m.selected < len(m.commands) {
		return m.commands[m.selected]
	}
	return ""
}

// Mode returns the current input mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Status returns the current status line and whether it reports an error.
func (m Model) Status() (string, bool) {
	return m.status, m.statusErr
}

// Shown returns the id of the invocation in the output pane.
func (m Model) Shown() uint64 {
	return m.shown
}
