// Package tui is the interactive operator console.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/Rauks/Minecraft-RCON-Console/internal/cli/render"
	"github.com/Rauks/Minecraft-RCON-Console/internal/console"
	"github.com/Rauks/Minecraft-RCON-Console/internal/consoleconfig"
	"github.com/Rauks/Minecraft-RCON-Console/internal/i18n"
	"github.com/Rauks/Minecraft-RCON-Console/internal/settings"
)

// Options wires the TUI. Settings may be nil.
type Options struct {
	Console   *console.Console
	Config    *consoleconfig.Config
	Localizer *i18n.Localizer
	Settings  *settings.Service
	Logger    *slog.Logger
}

type historyMsg []console.CommandResult

type pendingMsg int

type loadingMsg bool

type inputMsg string

type closedMsg struct{}

// Run launches the Bubble Tea TUI and blocks until the operator quits.
func Run(ctx context.Context, opts Options) error {
	m, err := newModel(opts, lipgloss.DefaultRenderer())
	if err != nil {
		return err
	}
	defer m.unsubscribe()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

type model struct {
	console   *console.Console
	cfg       *consoleconfig.Config
	loc       *i18n.Localizer
	settings  *settings.Service
	logger    *slog.Logger
	renderer  *lipgloss.Renderer
	palette   palette
	theme     string
	shortcuts []string

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	historyCh <-chan []console.CommandResult
	pendingCh <-chan int
	loadingCh <-chan bool
	inputCh   <-chan string
	stops     []func()

	history  []console.CommandResult
	pending  int
	loading  bool
	selected int
	// echoes counts input values pushed to the console that have not come
	// back through the input signal yet.
	echoes int
	// cycle is the shortcut search in progress, nil when none.
	cycle  *shortcutCycle
	notice string
	width  int
	height int
}

type shortcutCycle struct {
	matches []int
	next    int
}

func newModel(opts Options, r *lipgloss.Renderer) (*model, error) {
	if opts.Console == nil || opts.Config == nil {
		return nil, fmt.Errorf("tui: console and config are required")
	}
	loc := opts.Localizer
	if loc == nil {
		loc = i18n.New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	theme := settings.ThemeDark
	if opts.Settings != nil {
		if v, ok := opts.Settings.Get(settings.ThemeKey); ok && v != "" {
			theme = v
		}
	}

	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = loc.Translatef("tk.console.placeholder", opts.Console.Placeholder())
	input.CharLimit = 1446
	input.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	shortcuts := make([]string, len(opts.Config.Shortcuts))
	for i, s := range opts.Config.Shortcuts {
		shortcuts[i] = i18n.Sanitize(s.Name + " " + s.Command)
	}

	m := &model{
		console:   opts.Console,
		cfg:       opts.Config,
		loc:       loc,
		settings:  opts.Settings,
		logger:    logger,
		renderer:  r,
		palette:   newPalette(r, theme),
		theme:     theme,
		shortcuts: shortcuts,
		input:     input,
		viewport:  viewport.New(80, 20),
		spinner:   sp,
	}

	var stop func()
	m.historyCh, stop = opts.Console.History().Subscribe()
	m.stops = append(m.stops, stop)
	m.pendingCh, stop = opts.Console.Pending().Subscribe()
	m.stops = append(m.stops, stop)
	m.loadingCh, stop = opts.Console.Loading().Subscribe()
	m.stops = append(m.stops, stop)
	m.inputCh, stop = opts.Console.Input().Subscribe()
	m.stops = append(m.stops, stop)
	return m, nil
}

func (m *model) unsubscribe() {
	for _, stop := range m.stops {
		stop()
	}
}

func waitFor[T any](ch <-chan T, wrap func(T) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return wrap(v)
	}
}

func (m *model) waitHistory() tea.Cmd {
	return waitFor(m.historyCh, func(v []console.CommandResult) tea.Msg { return historyMsg(v) })
}

func (m *model) waitPending() tea.Cmd {
	return waitFor(m.pendingCh, func(v int) tea.Msg { return pendingMsg(v) })
}

func (m *model) waitLoading() tea.Cmd {
	return waitFor(m.loadingCh, func(v bool) tea.Msg { return loadingMsg(v) })
}

func (m *model) waitInput() tea.Cmd {
	return waitFor(m.inputCh, func(v string) tea.Msg { return inputMsg(v) })
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		m.waitHistory(),
		m.waitPending(),
		m.waitLoading(),
		m.waitInput(),
	)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-4, 10)
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-6, 3)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case historyMsg:
		m.history = msg
		if m.selected >= len(m.history) {
			m.selected = max(len(m.history)-1, 0)
		}
		m.refresh()
		return m, m.waitHistory()
	case pendingMsg:
		m.pending = int(msg)
		return m, m.waitPending()
	case loadingMsg:
		m.loading = bool(msg)
		return m, m.waitLoading()
	case inputMsg:
		if m.echoes > 0 {
			m.echoes--
		} else {
			m.input.SetValue(string(msg))
			m.input.CursorEnd()
		}
		return m, m.waitInput()
	case closedMsg:
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.cycle = nil
		if _, err := m.console.Submit(m.input.Value()); err != nil {
			m.notice = err.Error()
		}
		return m, nil
	case "esc":
		m.cycle = nil
		m.input.SetValue("")
		m.prefill("")
		return m, nil
	case "up":
		if m.selected > 0 {
			m.selected--
			m.refresh()
		}
		return m, nil
	case "down":
		if m.selected < len(m.history)-1 {
			m.selected++
			m.refresh()
		}
		return m, nil
	case "tab":
		if record, ok := m.selectedRecord(); ok {
			m.console.Autofill(record.ID)
		}
		return m, nil
	case "ctrl+r":
		if record, ok := m.selectedRecord(); ok && !m.console.Resend(record.ID) {
			m.notice = m.loc.Translate("tk.console.resend") + ": " + m.loc.Translate("tk.status."+string(record.MatchedStatus))
		}
		return m, nil
	case "ctrl+d":
		if record, ok := m.selectedRecord(); ok {
			m.console.Remove(record.ID)
		}
		return m, nil
	case "ctrl+t":
		m.toggleTheme()
		return m, nil
	case "ctrl+k":
		m.nextShortcut()
		return m, nil
	}

	m.cycle = nil
	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.prefill(after)
	}
	return m, cmd
}

// prefill pushes a locally edited value to the console.
func (m *model) prefill(value string) {
	m.echoes++
	m.console.PrefillCommand(value)
}

func (m *model) selectedRecord() (console.CommandResult, bool) {
	if m.selected < 0 || m.selected >= len(m.history) {
		return console.CommandResult{}, false
	}
	return m.history[m.selected], true
}

func (m *model) toggleTheme() {
	if m.settings != nil {
		m.theme = m.settings.ToggleTheme()
	} else if m.theme == settings.ThemeDark {
		m.theme = settings.ThemeLight
	} else {
		m.theme = settings.ThemeDark
	}
	m.palette = newPalette(m.renderer, m.theme)
	m.refresh()
}

// nextShortcut fills the input with the next shortcut matching what the
// operator typed. Repeated presses cycle through the matches.
func (m *model) nextShortcut() {
	if len(m.cfg.Shortcuts) == 0 {
		return
	}
	if m.cycle == nil {
		query := i18n.Sanitize(strings.TrimSpace(m.input.Value()))
		cycle := &shortcutCycle{}
		if query == "" {
			for i := range m.cfg.Shortcuts {
				cycle.matches = append(cycle.matches, i)
			}
		} else {
			for _, match := range fuzzy.Find(query, m.shortcuts) {
				cycle.matches = append(cycle.matches, match.Index)
			}
		}
		if len(cycle.matches) == 0 {
			m.notice = m.loc.Translatef("tk.shortcuts.none", m.input.Value())
			return
		}
		m.cycle = cycle
	}

	shortcut := m.cfg.Shortcuts[m.cycle.matches[m.cycle.next]]
	m.cycle.next = (m.cycle.next + 1) % len(m.cycle.matches)
	m.input.SetValue(shortcut.Command)
	m.input.CursorEnd()
	m.prefill(shortcut.Command)
	m.notice = m.loc.Translate("tk.shortcuts.title") + ": " + shortcut.Name
}

// refresh re-renders the history pane.
func (m *model) refresh() {
	if len(m.history) == 0 {
		m.viewport.SetContent(m.palette.muted.Render(m.loc.Translate("tk.console.empty")))
		return
	}
	var b strings.Builder
	for i, record := range m.history {
		marker, command := "  ", m.palette.command
		if i == m.selected {
			marker, command = "▸ ", m.palette.selected
		}
		badge := m.palette.badges[record.MatchedStatus].Render(m.loc.Translate("tk.status." + string(record.MatchedStatus)))
		b.WriteString(marker + badge + " " + command.Render(record.SourceCommand) + "\n")
		reply := render.Markup(record.DecodedReply, m.renderer)
		for _, line := range strings.Split(reply, "\n") {
			b.WriteString("    " + line + "\n")
		}
	}
	m.viewport.SetContent(b.String())
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(m.palette.title.Render(m.loc.Translate("tk.app.title")))
	b.WriteString(m.palette.muted.Render("  " + m.loc.Translate("tk.theme."+m.theme)))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.loading {
		b.WriteString(m.spinner.View() + " " + m.loc.Translatef("tk.console.pending", m.pending))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(m.palette.notice.Render(m.notice))
	}
	b.WriteString("\n")
	b.WriteString(m.palette.muted.Render(m.loc.Translate("tk.help.keys")))
	return b.String()
}
