package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AneeshPatel/MusicVec/internal/catalog"
	"github.com/AneeshPatel/MusicVec/internal/query"
	"github.com/AneeshPatel/MusicVec/internal/tui/styles"
)

// Mode is which stage of the query flow the screen shows.
type Mode int

const (
	ModeIntake Mode = iota
	ModeSelect
	ModeResults
)

// Model is the main application model.
type Model struct {
	orch  *query.Orchestrator
	title string
	topN  int

	input textinput.Model

	mode       Mode
	session    *query.Session
	candidates []catalog.Candidate
	cursor     int
	rows       query.Rows

	showHelp    bool
	statusMsg   string
	statusIsErr bool

	width  int
	height int

	keys KeyMap
}

// New creates a Model querying one orchestrator. The title names the active
// model (artist or song) in the header.
func New(orch *query.Orchestrator, title string, topN int) Model {
	ti := textinput.New()
	ti.Placeholder = "Type an artist or track and press enter..."
	ti.PromptStyle = styles.PromptStyle
	ti.TextStyle = styles.InputStyle
	ti.PlaceholderStyle = styles.PlaceholderStyle
	ti.Prompt = "  "
	ti.CharLimit = 256
	ti.Focus()

	if topN < 1 {
		topN = 10
	}

	return Model{
		orch:  orch,
		title: title,
		topN:  topN,
		input: ti,
		mode:  ModeIntake,
		keys:  DefaultKeyMap(),
	}
}

// Message types
type sessionMsg struct {
	session *query.Session
}

type rowsMsg struct {
	rows query.Rows
}

type errMsg struct {
	err error
}

// resolve opens a session for the typed query.
func (m Model) resolve(text string) tea.Cmd {
	return func() tea.Msg {
		sess, err := m.orch.Resolve(context.Background(), text)
		if err != nil {
			return errMsg{err}
		}
		return sessionMsg{sess}
	}
}

// runQuery fetches nearest neighbors for the session's resolved token.
func (m Model) runQuery(sess *query.Session) tea.Cmd {
	return func() tea.Msg {
		token, err := sess.Token()
		if err != nil {
			return errMsg{err}
		}
		rows, err := m.orch.MostSimilar(context.Background(), token, m.topN)
		if err != nil {
			return errMsg{err}
		}
		return rowsMsg{rows}
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, m.keys.Escape):
			return m.cancel()
		}

		switch m.mode {
		case ModeIntake:
			return m.updateIntake(msg)
		case ModeSelect:
			return m.updateSelect(msg)
		case ModeResults:
			return m.updateResults(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case sessionMsg:
		return m.applySession(msg.session)

	case rowsMsg:
		m.rows = msg.rows
		m.mode = ModeResults
		m.statusMsg = fmt.Sprintf("%d results", len(m.rows))
		m.statusIsErr = false
		return m, nil

	case errMsg:
		m.statusMsg = msg.err.Error()
		m.statusIsErr = true
		m.mode = ModeIntake
		m.input.Focus()
		return m, nil
	}

	return m, nil
}

// cancel backs out of the current stage. A pending selection is an explicit
// abort: the session terminates without a token.
func (m Model) cancel() (Model, tea.Cmd) {
	switch m.mode {
	case ModeSelect:
		m.session.Abort()
		m.statusMsg = "selection aborted"
		m.statusIsErr = false
	case ModeResults:
		m.statusMsg = ""
	default:
		m.input.SetValue("")
	}
	m.session = nil
	m.candidates = nil
	m.rows = nil
	m.mode = ModeIntake
	m.input.Focus()
	return m, nil
}

func (m Model) updateIntake(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Enter) {
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.statusMsg = "searching..."
		m.statusIsErr = false
		return m, m.resolve(text)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) applySession(sess *query.Session) (Model, tea.Cmd) {
	switch sess.State() {
	case query.StateResolved:
		m.session = sess
		return m, m.runQuery(sess)

	case query.StateAwaitingSelection:
		m.session = sess
		m.candidates = sess.Candidates()
		m.cursor = 0
		m.mode = ModeSelect
		m.input.Blur()
		m.statusMsg = fmt.Sprintf("%d candidates", len(m.candidates))
		m.statusIsErr = false
		return m, nil

	case query.StateNoMatch:
		m.statusMsg = fmt.Sprintf("no match for %q", sess.Query())
		m.statusIsErr = false
		return m, nil
	}
	return m, nil
}

func (m Model) updateSelect(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.candidates)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.GotoStart):
		m.cursor = 0
		return m, nil

	case key.Matches(msg, m.keys.GotoEnd):
		if len(m.candidates) > 0 {
			m.cursor = len(m.candidates) - 1
		}
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		if err := m.session.Select(m.cursor); err != nil {
			return m, func() tea.Msg { return errMsg{err} }
		}
		m.statusMsg = "querying..."
		m.statusIsErr = false
		return m, m.runQuery(m.session)
	}

	return m, nil
}

func (m Model) updateResults(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Enter) {
		return m.cancel()
	}
	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	header := styles.TitleStyle.Render("MusicVec") +
		styles.SubtitleStyle.Render(" - "+m.title)

	inputStyle := styles.PanelStyle
	if m.mode == ModeIntake {
		inputStyle = styles.FocusedPanelStyle
	}
	inputBox := inputStyle.Width(m.width - 4).Render(m.input.View())

	var body string
	switch m.mode {
	case ModeSelect:
		body = m.renderCandidates()
	case ModeResults:
		body = m.renderRows()
	default:
		body = styles.CandidateMetaStyle.Render("Results appear here.")
	}
	contentHeight := m.height - 8
	if contentHeight < 1 {
		contentHeight = 1
	}
	bodyPanel := styles.PanelStyle.Width(m.width - 4).Height(contentHeight).Render(body)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		inputBox,
		bodyPanel,
		m.renderStatusBar(),
	)
}

func (m Model) renderCandidates() string {
	var sb strings.Builder
	sb.WriteString(styles.PanelTitleStyle.Render("Which one did you mean?"))
	sb.WriteString("\n")

	for i, c := range m.candidates {
		line := c.Entry.Display()
		if c.Entry.Album != "" {
			line += " " + styles.CandidateMetaStyle.Render("("+c.Entry.Album+")")
		}
		if i == m.cursor {
			sb.WriteString(styles.SelectedCandidateStyle.Render(line))
		} else {
			sb.WriteString(styles.CandidateStyle.Render(line))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(styles.CandidateMetaStyle.Render("enter selects, esc aborts"))
	return sb.String()
}

func (m Model) renderRows() string {
	if len(m.rows) == 0 {
		return styles.CandidateMetaStyle.Render("No results.")
	}

	var sb strings.Builder
	sb.WriteString(styles.PanelTitleStyle.Render("Most similar"))
	sb.WriteString("\n")

	for i, row := range m.rows {
		display := styles.ResultDisplayStyle.Render(row.Display)
		if row.Unresolved {
			display = styles.UnresolvedStyle.Render(row.Display + " (unresolved)")
		}
		sb.WriteString(fmt.Sprintf("  %2d. %s  %s\n", i+1, styles.Score(row.Score), display))
	}

	sb.WriteString("\n")
	sb.WriteString(styles.CandidateMetaStyle.Render("enter or esc returns to the prompt"))
	return sb.String()
}

func (m Model) renderStatusBar() string {
	var status string
	if m.statusIsErr {
		status = styles.StatusErrorStyle.Render(m.statusMsg)
	} else {
		status = styles.StatusValueStyle.Render(m.statusMsg)
	}

	help := styles.HelpKeyStyle.Render("?") +
		styles.HelpDescStyle.Render(" help") +
		styles.HelpSeparatorStyle.Render(" • ") +
		styles.HelpKeyStyle.Render("ctrl+c") +
		styles.HelpDescStyle.Render(" quit")

	pad := m.width - lipgloss.Width(status) - lipgloss.Width(help) - 4
	if pad < 1 {
		pad = 1
	}
	return styles.StatusBarStyle.Render(status + strings.Repeat(" ", pad) + help)
}

func (m Model) renderHelp() string {
	var sb strings.Builder

	sb.WriteString(styles.TitleStyle.Render("Keyboard Shortcuts"))
	sb.WriteString("\n\n")

	helpItems := []struct {
		key  string
		desc string
	}{
		{"Enter", "Run query / Select candidate"},
		{"j/k or ↑/↓", "Navigate candidates"},
		{"g/G", "Go to start/end"},
		{"Esc", "Cancel / Abort selection"},
		{"?", "Toggle help"},
		{"Ctrl+c", "Quit"},
	}

	for _, item := range helpItems {
		sb.WriteString(styles.HelpKeyStyle.Render(fmt.Sprintf("%12s", item.key)))
		sb.WriteString("  ")
		sb.WriteString(styles.HelpDescStyle.Render(item.desc))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(styles.HelpDescStyle.Render("Press ? to close help"))

	return styles.AppStyle.Render(sb.String())
}
